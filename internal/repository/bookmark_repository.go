package repository

import (
	"slidereview_backend/internal/model"

	"gorm.io/gorm"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{DB: db}
}

func (r *BookmarkRepository) FindCaseBookmark(id uint) (*model.CaseBookmark, error) {
	var bm model.CaseBookmark
	err := r.DB.First(&bm, id).Error
	return &bm, err
}

// FindCaseBookmarkByLabel locates the upsert target for (case, text).
func (r *BookmarkRepository) FindCaseBookmarkByLabel(caseID uint, text string) (*model.CaseBookmark, error) {
	var bm model.CaseBookmark
	err := r.DB.Where("case_id = ? AND text = ?", caseID, text).First(&bm).Error
	return &bm, err
}

func (r *BookmarkRepository) SaveCaseBookmark(bm *model.CaseBookmark) error {
	return r.DB.Save(bm).Error
}

func (r *BookmarkRepository) DeleteCaseBookmark(id uint) error {
	return r.DB.Delete(&model.CaseBookmark{}, id).Error
}

func (r *BookmarkRepository) ListCaseBookmarks(caseID uint) ([]model.CaseBookmark, error) {
	var bms []model.CaseBookmark
	err := r.DB.Where("case_id = ?", caseID).Order("`order`").Find(&bms).Error
	return bms, err
}

func (r *BookmarkRepository) FindQuestionBookmark(id uint) (*model.QuestionBookmark, error) {
	var bm model.QuestionBookmark
	err := r.DB.First(&bm, id).Error
	return &bm, err
}

func (r *BookmarkRepository) FindQuestionBookmarkByLabel(questionID uint, text string) (*model.QuestionBookmark, error) {
	var bm model.QuestionBookmark
	err := r.DB.Where("question_id = ? AND text = ?", questionID, text).First(&bm).Error
	return &bm, err
}

func (r *BookmarkRepository) SaveQuestionBookmark(bm *model.QuestionBookmark) error {
	return r.DB.Save(bm).Error
}

func (r *BookmarkRepository) DeleteQuestionBookmark(id uint) error {
	return r.DB.Delete(&model.QuestionBookmark{}, id).Error
}

// ListQuestionBookmarkRefs returns the (id, label) pairs shown next to
// remark questions.
func (r *BookmarkRepository) ListQuestionBookmarkRefs(questionID uint) ([]model.BookmarkRef, error) {
	var bms []model.QuestionBookmark
	if err := r.DB.Where("question_id = ?", questionID).Order("`order`").Find(&bms).Error; err != nil {
		return nil, err
	}
	refs := make([]model.BookmarkRef, 0, len(bms))
	for _, bm := range bms {
		refs = append(refs, model.BookmarkRef{ID: bm.ID, Text: bm.Text})
	}
	return refs, nil
}
