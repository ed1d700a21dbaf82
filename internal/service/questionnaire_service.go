package service

import (
	"errors"
	"fmt"
	"time"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/qtype"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/util"
	"slidereview_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionnaireService builds the per-case question form and reconciles
// submitted answers against stored ones.
type QuestionnaireService struct {
	Questions *repository.QuestionRepository
	Instances *repository.InstanceRepository
	Bookmarks *repository.BookmarkRepository
	DB        *gorm.DB
}

func NewQuestionnaireService(questions *repository.QuestionRepository, instances *repository.InstanceRepository,
	bookmarks *repository.BookmarkRepository, db *gorm.DB) *QuestionnaireService {
	return &QuestionnaireService{Questions: questions, Instances: instances, Bookmarks: bookmarks, DB: db}
}

// Build enumerates the case's questions in order and produces one typed
// field per non-remark question. When the observer already has an instance
// for this case, fields are prefilled from the stored answers.
func (s *QuestionnaireService) Build(cs *model.Case, userID uint) ([]qtype.FieldSpec, error) {
	questions, err := s.Questions.ListByCase(cs.ID)
	if err != nil {
		return nil, err
	}

	priors := make(map[uint]*qtype.Prior)
	if userID != 0 {
		ci, err := s.Instances.FindByCaseAndUser(cs.ID, userID)
		if err == nil {
			answers, err := s.Instances.ListAnswers(ci.ID)
			if err != nil {
				return nil, err
			}
			for i := range answers {
				priors[answers[i].QuestionID] = &qtype.Prior{
					Answer:     &answers[i],
					Annotation: answers[i].Annotation,
				}
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	fields := make([]qtype.FieldSpec, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		handler, ok := qtype.ForType(q.Type)
		if !ok {
			return nil, fmt.Errorf("question %d has unknown type %q", q.ID, q.Type)
		}
		var items []model.QuestionItem
		if q.Type == model.MultipleChoice {
			if items, err = s.Questions.ListItems(q.ID); err != nil {
				return nil, err
			}
		}
		var bookmarks []model.BookmarkRef
		if q.Type == model.Remark {
			if bookmarks, err = s.Bookmarks.ListQuestionBookmarkRefs(q.ID); err != nil {
				return nil, err
			}
		}
		fields = append(fields, handler.BuildField(q, items, priors[q.ID], bookmarks))
	}
	return fields, nil
}

// Validate cleans a raw submission. Remark fields are skipped entirely. The
// second return value maps field identifiers to user facing messages; a
// non-empty map means the submission must be re-presented, nothing mutated.
func (s *QuestionnaireService) Validate(cs *model.Case, form map[string]string) (map[qtype.FieldKey]qtype.Value, map[string]string, error) {
	questions, err := s.Questions.ListByCase(cs.ID)
	if err != nil {
		return nil, nil, err
	}

	cleaned := make(map[qtype.FieldKey]qtype.Value)
	fieldErrors := make(map[string]string)
	for i := range questions {
		q := &questions[i]
		if q.Type == model.Remark {
			continue
		}
		handler, ok := qtype.ForType(q.Type)
		if !ok {
			return nil, nil, fmt.Errorf("question %d has unknown type %q", q.ID, q.Type)
		}
		var items []model.QuestionItem
		if q.Type == model.MultipleChoice {
			if items, err = s.Questions.ListItems(q.ID); err != nil {
				return nil, nil, err
			}
		}
		value, err := handler.Validate(q, items, form[q.FieldID()])
		if err != nil {
			var ve *qtype.ValidationError
			if errors.As(err, &ve) {
				fieldErrors[ve.Field] = ve.Reason
				continue
			}
			return nil, nil, err
		}
		cleaned[qtype.KeyFor(q)] = value
	}
	if len(fieldErrors) > 0 {
		return nil, fieldErrors, nil
	}
	return cleaned, nil, nil
}

// ParseFieldIDs decodes raw wire identifiers, rejecting malformed ones.
// Unknown identifiers in the submission payload are a protocol error.
func ParseFieldIDs(form map[string]string) (map[qtype.FieldKey]string, error) {
	parsed := make(map[qtype.FieldKey]string, len(form))
	for id, raw := range form {
		key, err := qtype.ParseFieldKey(id)
		if err != nil {
			return nil, err
		}
		parsed[key] = raw
	}
	return parsed, nil
}

// Submit runs the full reconciliation pass for one observer's submission of
// one case, atomically. The observer's instance is created on first
// submission and reused afterwards; its status always ends up Ended.
func (s *QuestionnaireService) Submit(cs *model.Case, userID uint, cleaned map[qtype.FieldKey]qtype.Value) (*model.CaseInstance, error) {
	var instance *model.CaseInstance
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var ci model.CaseInstance
		err := tx.Where("case_id = ? AND user_id = ?", cs.ID, userID).First(&ci).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ci = model.CaseInstance{CaseID: cs.ID, UserID: userID, StartTime: time.Now()}
		} else if err != nil {
			return err
		}
		ci.Status = model.InstanceEnded
		ci.EndTime = time.Now()
		if err := tx.Save(&ci).Error; err != nil {
			return err
		}

		for key, value := range cleaned {
			if key.Type == model.Remark {
				continue
			}
			var q model.Question
			if err := tx.First(&q, key.QuestionID).Error; err != nil {
				return fmt.Errorf("question %d: %w", key.QuestionID, err)
			}
			// The identifier's type tag must agree with the stored
			// question; disagreement means a forged or stale form.
			if q.Type != key.Type || q.CaseID != cs.ID {
				logger.Log.Error("field identifier mismatch",
					zap.Uint("question", q.ID),
					zap.String("fieldType", string(key.Type)),
					zap.String("questionType", string(q.Type)))
				return util.ErrTypeMismatch
			}
			if err := reconcileAnswer(tx, &ci, &q, value); err != nil {
				return err
			}
		}

		instance = &ci
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// reconcileAnswer upserts or deletes the answer for one question. Blank
// values clear previously stored answers, including annotation side records.
func reconcileAnswer(tx *gorm.DB, ci *model.CaseInstance, q *model.Question, value qtype.Value) error {
	var ans model.Answer
	err := tx.Where("case_instance_id = ? AND question_id = ?", ci.ID, q.ID).First(&ans).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if value.Blank {
		if !exists {
			return nil
		}
		if q.Type == model.Line {
			if err := tx.Where("answer_id = ?", ans.ID).Delete(&model.AnswerAnnotation{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&ans).Error
	}

	if !exists {
		ans = model.Answer{CaseInstanceID: ci.ID, QuestionID: q.ID}
	}

	switch q.Type {
	case model.MultipleChoice, model.Numeric:
		ans.AnswerNumeric = value.Numeric
		return tx.Save(&ans).Error
	case model.Line:
		m := value.Line
		ans.AnswerText = fmt.Sprintf("%.3g %s", m.Length, m.LengthUnit)
		if err := tx.Save(&ans).Error; err != nil {
			return err
		}
		var annot model.AnswerAnnotation
		err := tx.Where("answer_id = ?", ans.ID).First(&annot).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			annot = model.AnswerAnnotation{AnswerID: ans.ID}
		} else if err != nil {
			return err
		}
		annot.SlideID = m.SlideID
		annot.Length = m.Length
		annot.LengthUnit = m.LengthUnit
		annot.AnnotationJSON = string(m.Annotation)
		return tx.Save(&annot).Error
	default:
		ans.AnswerText = value.Text
		return tx.Save(&ans).Error
	}
}
