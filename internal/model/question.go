package model

import "fmt"

type QuestionType string

const (
	MultipleChoice QuestionType = "M"
	OpenText       QuestionType = "O"
	Numeric        QuestionType = "N"
	Date           QuestionType = "D"
	Remark         QuestionType = "R"
	Line           QuestionType = "L"
)

// QuestionTypes is the closed set of supported kinds, in display order.
var QuestionTypes = []QuestionType{MultipleChoice, OpenText, Numeric, Date, Remark, Line}

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, OpenText, Numeric, Date, Remark, Line:
		return true
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel
	CaseID   uint         `gorm:"index;not null" json:"caseId"`
	Type     QuestionType `gorm:"size:1;not null" json:"type"`
	Order    int          `gorm:"column:order;not null" json:"order"`
	Text     string       `gorm:"size:200;not null" json:"text"`
	Required bool         `gorm:"default:false" json:"required"`
	// CorrectAnswer grades submissions when non-empty. For multiple choice
	// it holds the Order value of the correct item, as text.
	CorrectAnswer string `gorm:"size:40" json:"correctAnswer"`

	Items []QuestionItem `gorm:"foreignKey:QuestionID" json:"items,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// FieldID synthesizes the form field identifier for this question,
// e.g. "question_R_M_12" for a required multiple choice question.
func (q *Question) FieldID() string {
	return fmt.Sprintf("question_%s_%s_%d", q.RequiredTag(), q.Type, q.ID)
}

func (q *Question) RequiredTag() string {
	if q.Required {
		return "R"
	}
	return "F"
}

// QuestionItem is one choice of a multiple choice question. Order values
// need not be contiguous; they are what gets stored as the answer.
type QuestionItem struct {
	BaseModel
	QuestionID uint   `gorm:"index;not null" json:"questionId"`
	Order      int    `gorm:"column:order;not null" json:"order"`
	Text       string `gorm:"size:200;not null" json:"text"`
}

func (QuestionItem) TableName() string {
	return "question_items"
}
