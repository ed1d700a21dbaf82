package qtype

import (
	"strconv"

	"slidereview_backend/internal/model"
)

// multipleChoiceHandler stores the selected item's Order value in
// AnswerNumeric. Required fields reject the unset/zero sentinel.
type multipleChoiceHandler struct{}

func (multipleChoiceHandler) BuildField(q *model.Question, items []model.QuestionItem, prior *Prior, _ []model.BookmarkRef) FieldSpec {
	spec := FieldSpec{
		ID:       q.FieldID(),
		Label:    q.Text,
		Type:     model.MultipleChoice,
		Required: q.Required,
		Choices:  make([]Choice, 0, len(items)),
	}
	for _, item := range items {
		spec.Choices = append(spec.Choices, Choice{Value: item.Order, Text: item.Text})
	}
	if prior != nil && prior.Answer != nil {
		spec.Initial = strconv.Itoa(prior.Answer.AnswerNumeric)
	}
	return spec
}

func (multipleChoiceHandler) Validate(q *model.Question, items []model.QuestionItem, raw string) (Value, error) {
	key := KeyFor(q)
	if raw == "" {
		if q.Required {
			return Value{}, invalid(key, "this field is required")
		}
		return Value{Blank: true}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Value{}, invalid(key, "select a valid choice, %q is not a number", raw)
	}
	if q.Required && n < 1 {
		return Value{}, invalid(key, "this field is required")
	}
	for _, item := range items {
		if item.Order == n {
			return Value{Numeric: n}, nil
		}
	}
	return Value{}, invalid(key, "select a valid choice, %d is not one of the available choices", n)
}

func (multipleChoiceHandler) Stats(q *model.Question, items []model.QuestionItem, answers []AnswerData) Stats {
	counts := make(map[int]int, len(items))
	for _, a := range answers {
		counts[a.Answer.AnswerNumeric]++
	}
	st := Stats{QuestionID: q.ID, Type: q.Type, Text: q.Text, TotalAnswers: len(answers)}
	st.Choices = make([]ChoiceCount, 0, len(items))
	for _, item := range items {
		c := counts[item.Order]
		st.Choices = append(st.Choices, ChoiceCount{
			Value:   item.Order,
			Text:    item.Text,
			Count:   c,
			Percent: percent(c, len(answers)),
		})
	}
	return st
}
