package repository

import (
	"slidereview_backend/internal/model"

	"gorm.io/gorm"
)

type CaseRepository struct {
	DB *gorm.DB
}

func NewCaseRepository(db *gorm.DB) *CaseRepository {
	return &CaseRepository{DB: db}
}

func (r *CaseRepository) Create(c *model.Case) error {
	return r.DB.Create(c).Error
}

func (r *CaseRepository) Save(c *model.Case) error {
	return r.DB.Save(c).Error
}

func (r *CaseRepository) FindByID(id uint) (*model.Case, error) {
	var c model.Case
	err := r.DB.Preload("CaseList").First(&c, id).Error
	return &c, err
}

func (r *CaseRepository) ListByCaseList(caseListID uint) ([]model.Case, error) {
	var cases []model.Case
	err := r.DB.Where("case_list_id = ?", caseListID).
		Order("`order`, name").Find(&cases).Error
	return cases, err
}

func (r *CaseRepository) CaseIDs(caseListID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Case{}).Where("case_list_id = ?", caseListID).
		Pluck("id", &ids).Error
	return ids, err
}

// CandidatesFor returns the cases in a list for which the observer has no
// instance yet, in serving order.
func (r *CaseRepository) CandidatesFor(caseListID, userID uint) ([]model.Case, error) {
	var cases []model.Case
	err := r.DB.Where("case_list_id = ?", caseListID).
		Where("id NOT IN (?)", r.DB.Model(&model.CaseInstance{}).
			Select("case_id").Where("user_id = ?", userID)).
		Order("`order`, id").
		Find(&cases).Error
	return cases, err
}

func (r *CaseRepository) ListSlides(caseID uint) ([]model.CaseSlide, error) {
	var slides []model.CaseSlide
	err := r.DB.Where("case_id = ?", caseID).Order("`order`").Find(&slides).Error
	return slides, err
}

func (r *CaseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Case{}, id).Error
}
