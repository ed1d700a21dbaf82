package qtype

import (
	"strconv"

	"slidereview_backend/internal/model"
)

// numericHandler accepts integers, stored in AnswerNumeric.
type numericHandler struct{}

func (numericHandler) BuildField(q *model.Question, _ []model.QuestionItem, prior *Prior, _ []model.BookmarkRef) FieldSpec {
	spec := FieldSpec{
		ID:       q.FieldID(),
		Label:    q.Text,
		Type:     model.Numeric,
		Required: q.Required,
	}
	if prior != nil && prior.Answer != nil {
		spec.Initial = strconv.Itoa(prior.Answer.AnswerNumeric)
	}
	return spec
}

func (numericHandler) Validate(q *model.Question, _ []model.QuestionItem, raw string) (Value, error) {
	key := KeyFor(q)
	if raw == "" {
		if q.Required {
			return Value{}, invalid(key, "this field is required")
		}
		return Value{Blank: true}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Value{}, invalid(key, "enter a whole number")
	}
	return Value{Numeric: n}, nil
}

func (numericHandler) Stats(q *model.Question, _ []model.QuestionItem, answers []AnswerData) Stats {
	values := make([]float64, 0, len(answers))
	for _, a := range answers {
		values = append(values, float64(a.Answer.AnswerNumeric))
	}
	return Stats{
		QuestionID:   q.ID,
		Type:         q.Type,
		Text:         q.Text,
		TotalAnswers: len(answers),
		Numeric:      summarize(values),
	}
}
