package repository

import (
	"slidereview_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) Save(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) ListByCase(caseID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("case_id = ?", caseID).Order("`order`").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) ListItems(questionID uint) ([]model.QuestionItem, error) {
	var items []model.QuestionItem
	err := r.DB.Where("question_id = ?", questionID).Order("`order`").Find(&items).Error
	return items, err
}

func (r *QuestionRepository) CreateItem(item *model.QuestionItem) error {
	return r.DB.Create(item).Error
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}
