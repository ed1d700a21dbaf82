package qtype

import (
	"slidereview_backend/internal/model"
)

// openTextHandler stores free text in AnswerText and reports the ten most
// frequent distinct strings.
type openTextHandler struct{}

func (openTextHandler) BuildField(q *model.Question, _ []model.QuestionItem, prior *Prior, _ []model.BookmarkRef) FieldSpec {
	spec := FieldSpec{
		ID:       q.FieldID(),
		Label:    q.Text,
		Type:     model.OpenText,
		Required: q.Required,
	}
	if prior != nil && prior.Answer != nil {
		spec.Initial = prior.Answer.AnswerText
	}
	return spec
}

func (openTextHandler) Validate(q *model.Question, _ []model.QuestionItem, raw string) (Value, error) {
	if raw == "" {
		if q.Required {
			return Value{}, invalid(KeyFor(q), "this field is required")
		}
		return Value{Blank: true}, nil
	}
	return Value{Text: raw}, nil
}

func (openTextHandler) Stats(q *model.Question, _ []model.QuestionItem, answers []AnswerData) Stats {
	texts := make([]string, 0, len(answers))
	for _, a := range answers {
		texts = append(texts, a.Answer.AnswerText)
	}
	rows, total := topTexts(texts, 10)
	return Stats{
		QuestionID:   q.ID,
		Type:         q.Type,
		Text:         q.Text,
		TotalAnswers: total,
		TopTexts:     rows,
	}
}
