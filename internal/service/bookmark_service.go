package service

import (
	"errors"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"

	"gorm.io/gorm"
)

// BookmarkService stores named viewer positions on cases and questions.
// Saving under an existing label on the same owner updates that bookmark
// instead of creating a second one.
type BookmarkService struct {
	Bookmarks *repository.BookmarkRepository
}

func NewBookmarkService(bookmarks *repository.BookmarkRepository) *BookmarkService {
	return &BookmarkService{Bookmarks: bookmarks}
}

// BookmarkRequest is the viewer position payload shared by case and
// question bookmarks.
type BookmarkRequest struct {
	SlideID uint    `json:"slideid"`
	Text    string  `json:"text"`
	CenterX float64 `json:"centerx"`
	CenterY float64 `json:"centery"`
	Zoom    float64 `json:"zoom"`
	Order   int     `json:"order"`
}

func (s *BookmarkService) SaveCaseBookmark(caseID uint, req BookmarkRequest) (*model.CaseBookmark, error) {
	bm, err := s.Bookmarks.FindCaseBookmarkByLabel(caseID, req.Text)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bm = &model.CaseBookmark{CaseID: caseID, Text: req.Text}
	} else if err != nil {
		return nil, err
	}
	bm.SlideID = req.SlideID
	bm.CenterX = req.CenterX
	bm.CenterY = req.CenterY
	bm.Zoom = req.Zoom
	bm.Order = req.Order
	if err := s.Bookmarks.SaveCaseBookmark(bm); err != nil {
		return nil, err
	}
	return bm, nil
}

func (s *BookmarkService) SaveQuestionBookmark(questionID uint, req BookmarkRequest) (*model.QuestionBookmark, error) {
	bm, err := s.Bookmarks.FindQuestionBookmarkByLabel(questionID, req.Text)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		bm = &model.QuestionBookmark{QuestionID: questionID, Text: req.Text}
	} else if err != nil {
		return nil, err
	}
	bm.SlideID = req.SlideID
	bm.CenterX = req.CenterX
	bm.CenterY = req.CenterY
	bm.Zoom = req.Zoom
	bm.Order = req.Order
	if err := s.Bookmarks.SaveQuestionBookmark(bm); err != nil {
		return nil, err
	}
	return bm, nil
}

func (s *BookmarkService) GetCaseBookmark(id uint) (*model.CaseBookmark, error) {
	return s.Bookmarks.FindCaseBookmark(id)
}

func (s *BookmarkService) GetQuestionBookmark(id uint) (*model.QuestionBookmark, error) {
	return s.Bookmarks.FindQuestionBookmark(id)
}

func (s *BookmarkService) DeleteCaseBookmark(id uint) error {
	return s.Bookmarks.DeleteCaseBookmark(id)
}

func (s *BookmarkService) DeleteQuestionBookmark(id uint) error {
	return s.Bookmarks.DeleteQuestionBookmark(id)
}
