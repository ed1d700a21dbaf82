package qtype

import (
	"time"

	"slidereview_backend/internal/model"
)

// dateHandler stores an ISO date string in AnswerText. Reporting only needs
// the answer count for dates.
type dateHandler struct{}

var dateLayouts = []string{"2006-01-02", "2006-1-2", "02-01-2006"}

func (dateHandler) BuildField(q *model.Question, _ []model.QuestionItem, prior *Prior, _ []model.BookmarkRef) FieldSpec {
	spec := FieldSpec{
		ID:       q.FieldID(),
		Label:    q.Text,
		Type:     model.Date,
		Required: q.Required,
	}
	if prior != nil && prior.Answer != nil {
		spec.Initial = prior.Answer.AnswerText
	}
	return spec
}

func (dateHandler) Validate(q *model.Question, _ []model.QuestionItem, raw string) (Value, error) {
	if raw == "" {
		if q.Required {
			return Value{}, invalid(KeyFor(q), "this field is required")
		}
		return Value{Blank: true}, nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, raw); err == nil {
			return Value{Text: d.Format("2006-01-02")}, nil
		}
	}
	return Value{}, invalid(KeyFor(q), "enter a valid date")
}

func (dateHandler) Stats(q *model.Question, _ []model.QuestionItem, answers []AnswerData) Stats {
	return Stats{
		QuestionID:   q.ID,
		Type:         q.Type,
		Text:         q.Text,
		TotalAnswers: len(answers),
	}
}
