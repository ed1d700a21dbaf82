package model

import (
	"strconv"
	"time"
)

type CaseInstanceStatus string

const (
	InstanceOpen    CaseInstanceStatus = "O"
	InstanceSkipped CaseInstanceStatus = "S"
	InstanceEnded   CaseInstanceStatus = "E"
)

// CaseInstance is one observer's attempt at one case. There is at most one
// logical instance per (case, user); resubmission updates it in place.
// swagger:model CaseInstance
type CaseInstance struct {
	BaseModel
	CaseID    uint               `gorm:"index:idx_case_user;not null" json:"caseId"`
	Case      *Case              `gorm:"foreignKey:CaseID" json:"case,omitempty"`
	UserID    uint               `gorm:"index:idx_case_user;not null" json:"userId"`
	User      *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    CaseInstanceStatus `gorm:"size:1;not null" json:"status"`
	StartTime time.Time          `json:"startTime"`
	EndTime   time.Time          `json:"endTime"`
}

func (CaseInstance) TableName() string {
	return "case_instances"
}

// swagger:model Answer
type Answer struct {
	BaseModel
	CaseInstanceID uint      `gorm:"index;not null" json:"caseInstanceId"`
	QuestionID     uint      `gorm:"index;not null" json:"questionId"`
	Question       *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
	AnswerNumeric  int       `gorm:"default:0" json:"answerNumeric"`
	AnswerText     string    `gorm:"type:text" json:"answerText"`

	Annotation *AnswerAnnotation `gorm:"foreignKey:AnswerID" json:"annotation,omitempty"`
}

func (Answer) TableName() string {
	return "answers"
}

type AnswerGrade int

const (
	GradeUngraded AnswerGrade = iota
	GradeCorrect
	GradeError
)

// Grade compares the answer's effective value against the question's
// configured correct answer. Questions without one are never graded.
func (a *Answer) Grade(q *Question) AnswerGrade {
	if q.CorrectAnswer == "" {
		return GradeUngraded
	}
	if a.TextValue(q) == q.CorrectAnswer {
		return GradeCorrect
	}
	return GradeError
}

// TextValue renders the stored answer as text, using the numeric column for
// the numeric question kinds.
func (a *Answer) TextValue(q *Question) string {
	switch q.Type {
	case MultipleChoice, Numeric:
		return strconv.Itoa(a.AnswerNumeric)
	default:
		return a.AnswerText
	}
}

// AnswerAnnotation is the one-to-one side record of a line measurement
// answer. Its lifecycle is tied to the owning answer.
// swagger:model AnswerAnnotation
type AnswerAnnotation struct {
	BaseModel
	AnswerID       uint    `gorm:"uniqueIndex;not null" json:"answerId"`
	SlideID        uint    `gorm:"index;not null" json:"slideId"`
	Length         float64 `json:"length"`
	LengthUnit     string  `gorm:"size:10" json:"lengthUnit"`
	AnnotationJSON string  `gorm:"type:text" json:"annotationJson"`
}

func (AnswerAnnotation) TableName() string {
	return "answer_annotations"
}
