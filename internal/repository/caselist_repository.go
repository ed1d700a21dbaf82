package repository

import (
	"slidereview_backend/internal/model"

	"gorm.io/gorm"
)

type CaseListRepository struct {
	DB *gorm.DB
}

func NewCaseListRepository(db *gorm.DB) *CaseListRepository {
	return &CaseListRepository{DB: db}
}

func (r *CaseListRepository) Create(cl *model.CaseList) error {
	return r.DB.Create(cl).Error
}

func (r *CaseListRepository) Save(cl *model.CaseList) error {
	return r.DB.Save(cl).Error
}

func (r *CaseListRepository) FindByID(id uint) (*model.CaseList, error) {
	var cl model.CaseList
	err := r.DB.First(&cl, id).Error
	return &cl, err
}

func (r *CaseListRepository) FindBySlug(slug string) (*model.CaseList, error) {
	var cl model.CaseList
	err := r.DB.Where("slug = ?", slug).First(&cl).Error
	return &cl, err
}

func (r *CaseListRepository) ListVisible() ([]model.CaseList, error) {
	var cls []model.CaseList
	err := r.DB.Where("visible_for_non_users = ?", true).Order("name").Find(&cls).Error
	return cls, err
}

func (r *CaseListRepository) ListForUser(userID uint) ([]model.UserCaseList, error) {
	var ucls []model.UserCaseList
	err := r.DB.Preload("CaseList").Where("user_id = ?", userID).Find(&ucls).Error
	return ucls, err
}

// Membership

func (r *CaseListRepository) FindMembership(userID, caseListID uint) (*model.UserCaseList, error) {
	var ucl model.UserCaseList
	err := r.DB.Where("user_id = ? AND case_list_id = ?", userID, caseListID).First(&ucl).Error
	return &ucl, err
}

func (r *CaseListRepository) FindMembershipByID(id uint) (*model.UserCaseList, error) {
	var ucl model.UserCaseList
	err := r.DB.Preload("User").Preload("CaseList").First(&ucl, id).Error
	return &ucl, err
}

func (r *CaseListRepository) CreateMembership(ucl *model.UserCaseList) error {
	return r.DB.Create(ucl).Error
}

func (r *CaseListRepository) SaveMembership(ucl *model.UserCaseList) error {
	return r.DB.Save(ucl).Error
}

func (r *CaseListRepository) DeleteMembership(id uint) error {
	return r.DB.Delete(&model.UserCaseList{}, id).Error
}

func (r *CaseListRepository) ListMembers(caseListID uint) ([]model.UserCaseList, error) {
	var ucls []model.UserCaseList
	err := r.DB.Preload("User").Where("case_list_id = ?", caseListID).Find(&ucls).Error
	return ucls, err
}

func (r *CaseListRepository) CountMembersByStatus(caseListID uint, status model.UserCaseListStatus) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserCaseList{}).
		Where("case_list_id = ? AND status = ?", caseListID, status).
		Count(&count).Error
	return count, err
}

func (r *CaseListRepository) CountAnonymousMembers(caseListID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserCaseList{}).
		Joins("JOIN users ON users.id = user_case_lists.user_id").
		Where("user_case_lists.case_list_id = ? AND users.is_anonymous = ?", caseListID, true).
		Count(&count).Error
	return count, err
}

func (r *CaseListRepository) ListAnonymousMembers(caseListID uint) ([]model.UserCaseList, error) {
	var ucls []model.UserCaseList
	err := r.DB.Preload("User").
		Joins("JOIN users ON users.id = user_case_lists.user_id").
		Where("user_case_lists.case_list_id = ? AND users.is_anonymous = ?", caseListID, true).
		Find(&ucls).Error
	return ucls, err
}

// Invitations

func (r *CaseListRepository) CreateInvitation(inv *model.CaseListInvitation) error {
	return r.DB.Create(inv).Error
}

func (r *CaseListRepository) FindInvitationByKey(key string) (*model.CaseListInvitation, error) {
	var inv model.CaseListInvitation
	err := r.DB.Preload("CaseList").Where("`key` = ?", key).First(&inv).Error
	return &inv, err
}

func (r *CaseListRepository) SaveInvitation(inv *model.CaseListInvitation) error {
	return r.DB.Save(inv).Error
}
