package qtype

import (
	"slidereview_backend/internal/model"
)

// remarkHandler is display only. It never produces an answer record; its
// field just carries the question bookmarks for the client.
type remarkHandler struct{}

func (remarkHandler) BuildField(q *model.Question, _ []model.QuestionItem, _ *Prior, bookmarks []model.BookmarkRef) FieldSpec {
	return FieldSpec{
		ID:        q.FieldID(),
		Label:     q.Text,
		Type:      model.Remark,
		Bookmarks: bookmarks,
	}
}

func (remarkHandler) Validate(_ *model.Question, _ []model.QuestionItem, _ string) (Value, error) {
	// Whatever is submitted for a remark is discarded during reconciliation.
	return Value{Blank: true}, nil
}

func (remarkHandler) Stats(q *model.Question, _ []model.QuestionItem, answers []AnswerData) Stats {
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
