// Package qtype implements the closed set of question kinds. Each kind
// provides field construction for the questionnaire, validation of submitted
// values and aggregate statistics, so adding a kind is a one-file change.
package qtype

import (
	"fmt"
	"strconv"
	"strings"

	"slidereview_backend/internal/model"
)

// FieldKey is the structured identity behind a form field. It is only
// serialized to the "question_<R|F>_<type>_<id>" wire form at the transport
// boundary.
type FieldKey struct {
	Required   bool
	Type       model.QuestionType
	QuestionID uint
}

func (k FieldKey) String() string {
	tag := "F"
	if k.Required {
		tag = "R"
	}
	return fmt.Sprintf("question_%s_%s_%d", tag, k.Type, k.QuestionID)
}

func KeyFor(q *model.Question) FieldKey {
	return FieldKey{Required: q.Required, Type: q.Type, QuestionID: q.ID}
}

// ParseFieldKey decodes a wire field identifier. Identifiers that do not
// decompose into exactly four underscore separated parts with a literal
// "question" prefix are rejected.
func ParseFieldKey(s string) (FieldKey, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 4 || parts[0] != "question" {
		return FieldKey{}, fmt.Errorf("malformed field identifier %q", s)
	}
	var required bool
	switch parts[1] {
	case "R":
		required = true
	case "F":
		required = false
	default:
		return FieldKey{}, fmt.Errorf("malformed field identifier %q: bad required tag", s)
	}
	qt := model.QuestionType(parts[2])
	if !qt.Valid() {
		return FieldKey{}, fmt.Errorf("malformed field identifier %q: unknown type tag", s)
	}
	id, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return FieldKey{}, fmt.Errorf("malformed field identifier %q: bad question id", s)
	}
	return FieldKey{Required: required, Type: qt, QuestionID: uint(id)}, nil
}

// ValidationError is a recoverable, user facing rejection of one field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func invalid(key FieldKey, format string, args ...interface{}) error {
	return &ValidationError{Field: key.String(), Reason: fmt.Sprintf(format, args...)}
}

// Choice is one selectable option of a multiple choice field.
type Choice struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}

// FieldSpec describes a single questionnaire input sent to the client.
type FieldSpec struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	Type      model.QuestionType  `json:"type"`
	Required  bool                `json:"required"`
	Choices   []Choice            `json:"choices,omitempty"`
	Initial   string              `json:"initial,omitempty"`
	Bookmarks []model.BookmarkRef `json:"bookmarks,omitempty"`
}

// Prior carries an observer's previously stored answer for prefilling.
type Prior struct {
	Answer     *model.Answer
	Annotation *model.AnswerAnnotation
}

// Value is a cleaned submitted value. Blank values clear stored answers.
type Value struct {
	Blank   bool
	Numeric int
	Text    string
	Line    *LineMeasurement
}

// AnswerData pairs an answer with its optional annotation side record for
// aggregation.
type AnswerData struct {
	Answer     model.Answer
	Annotation *model.AnswerAnnotation
}

// Handler is implemented once per question kind.
type Handler interface {
	// BuildField constructs the typed input, prefilled from prior when the
	// observer answered before.
	BuildField(q *model.Question, items []model.QuestionItem, prior *Prior, bookmarks []model.BookmarkRef) FieldSpec
	// Validate cleans a raw submitted value. A nil error with Blank set
	// means "clear any stored answer".
	Validate(q *model.Question, items []model.QuestionItem, raw string) (Value, error)
	// Stats aggregates all stored answers for one question.
	Stats(q *model.Question, items []model.QuestionItem, answers []AnswerData) Stats
}

var handlers = map[model.QuestionType]Handler{
	model.MultipleChoice: multipleChoiceHandler{},
	model.OpenText:       openTextHandler{},
	model.Numeric:        numericHandler{},
	model.Date:           dateHandler{},
	model.Remark:         remarkHandler{},
	model.Line:           lineHandler{},
}

// ForType returns the handler for a question kind.
func ForType(t model.QuestionType) (Handler, bool) {
	h, ok := handlers[t]
	return h, ok
}
