package service

import (
	"errors"
	"time"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/util"

	"gorm.io/gorm"
)

// CaseService owns case authoring: creation, editing, duplication and the
// administrative instance operations.
type CaseService struct {
	Cases     *repository.CaseRepository
	Questions *repository.QuestionRepository
	Instances *repository.InstanceRepository
	DB        *gorm.DB
}

func NewCaseService(cases *repository.CaseRepository, questions *repository.QuestionRepository,
	instances *repository.InstanceRepository, db *gorm.DB) *CaseService {
	return &CaseService{Cases: cases, Questions: questions, Instances: instances, DB: db}
}

// NewCasePlaceholderName is the name given to freshly created cases so they
// stand out in the admin view until edited.
const NewCasePlaceholderName = "-- New Case --"

// Create adds an empty placeholder case at the end of the list's ordering.
func (s *CaseService) Create(caseListID uint) (*model.Case, error) {
	existing, err := s.Cases.ListByCaseList(caseListID)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, c := range existing {
		if c.Order >= order {
			order = c.Order + 1
		}
	}
	c := &model.Case{CaseListID: caseListID, Name: NewCasePlaceholderName, Order: order}
	if err := s.Cases.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

type CaseRequest struct {
	Name         string `json:"name" binding:"required"`
	Order        int    `json:"order"`
	Introduction string `json:"introduction"`
	Report       string `json:"report"`
}

func (s *CaseService) Update(c *model.Case, req CaseRequest) error {
	c.Name = req.Name
	c.Order = req.Order
	c.Introduction = req.Introduction
	c.Report = req.Report
	return s.Cases.Save(c)
}

// Copy duplicates a case with its slides, questions and question items as a
// single transaction. The copy gets "c" appended to its name and lands in
// the same list.
func (s *CaseService) Copy(src *model.Case) (*model.Case, error) {
	slides, err := s.Cases.ListSlides(src.ID)
	if err != nil {
		return nil, err
	}
	questions, err := s.Questions.ListByCase(src.ID)
	if err != nil {
		return nil, err
	}

	dup := &model.Case{
		CaseListID:   src.CaseListID,
		Name:         src.Name + "c",
		Order:        src.Order,
		Introduction: src.Introduction,
		Report:       src.Report,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dup).Error; err != nil {
			return err
		}
		for _, sl := range slides {
			cp := model.CaseSlide{CaseID: dup.ID, SlideID: sl.SlideID, Order: sl.Order}
			if err := tx.Create(&cp).Error; err != nil {
				return err
			}
		}
		for _, q := range questions {
			items, err := s.Questions.ListItems(q.ID)
			if err != nil {
				return err
			}
			qc := model.Question{
				CaseID:        dup.ID,
				Type:          q.Type,
				Order:         q.Order,
				Text:          q.Text,
				Required:      q.Required,
				CorrectAnswer: q.CorrectAnswer,
			}
			if err := tx.Create(&qc).Error; err != nil {
				return err
			}
			for _, it := range items {
				ic := model.QuestionItem{QuestionID: qc.ID, Order: it.Order, Text: it.Text}
				if err := tx.Create(&ic).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dup, nil
}

// Delete removes a case together with its questions, items, slides and
// instances.
func (s *CaseService) Delete(c *model.Case) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		questions, err := s.Questions.ListByCase(c.ID)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if err := tx.Where("question_id = ?", q.ID).Delete(&model.QuestionItem{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&model.CaseSlide{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", c.ID).Delete(&model.CaseInstance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Case{}, c.ID).Error
	})
}

type QuestionRequest struct {
	Type          model.QuestionType `json:"type" binding:"required"`
	Order         int                `json:"order"`
	Text          string             `json:"text" binding:"required"`
	Required      bool               `json:"required"`
	CorrectAnswer string             `json:"correctAnswer"`
	Items         []string           `json:"items"`
}

// AddQuestion appends a question, with its choice items, to a case.
func (s *CaseService) AddQuestion(caseID uint, req QuestionRequest) (*model.Question, error) {
	if !req.Type.Valid() {
		return nil, util.ErrTypeMismatch
	}
	q := &model.Question{
		CaseID:        caseID,
		Type:          req.Type,
		Order:         req.Order,
		Text:          req.Text,
		Required:      req.Required,
		CorrectAnswer: req.CorrectAnswer,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		for i, text := range req.Items {
			item := model.QuestionItem{QuestionID: q.ID, Order: i + 1, Text: text}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a question with its items and recorded answers.
func (s *CaseService) DeleteQuestion(questionID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&model.QuestionItem{}).Error; err != nil {
			return err
		}
		answers, err := s.Instances.ListAnswersByQuestion(questionID)
		if err != nil {
			return err
		}
		for _, a := range answers {
			if a.Annotation != nil {
				if err := tx.Delete(&model.AnswerAnnotation{}, a.Annotation.ID).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("question_id = ?", questionID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, questionID).Error
	})
}

// Skip marks a case as administratively skipped for an observer so the
// scheduler stops offering it to them.
func (s *CaseService) Skip(caseID, userID uint) error {
	ci, err := s.Instances.FindByCaseAndUser(caseID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ci = &model.CaseInstance{CaseID: caseID, UserID: userID, StartTime: time.Now()}
	} else if err != nil {
		return err
	}
	if ci.Status == model.InstanceEnded {
		return util.ErrPermissionDenied
	}
	ci.Status = model.InstanceSkipped
	ci.EndTime = time.Now()
	if ci.ID == 0 {
		return s.Instances.Create(ci)
	}
	return s.Instances.Save(ci)
}

// DeleteInstance discards an observer's attempt so the case is served to
// them again, removing its answers and annotations.
func (s *CaseService) DeleteInstance(instanceID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		answers, err := s.Instances.ListAnswers(instanceID)
		if err != nil {
			return err
		}
		for _, a := range answers {
			if a.Annotation != nil {
				if err := tx.Delete(&model.AnswerAnnotation{}, a.Annotation.ID).Error; err != nil {
					return err
				}
			}
		}
		if err := tx.Where("case_instance_id = ?", instanceID).Delete(&model.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CaseInstance{}, instanceID).Error
	})
}
