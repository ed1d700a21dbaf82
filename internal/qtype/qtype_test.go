package qtype

import (
	"testing"

	"slidereview_backend/internal/model"
)

func TestFieldKeyString(t *testing.T) {
	tests := []struct {
		name string
		key  FieldKey
		want string
	}{
		{"required multiple choice", FieldKey{Required: true, Type: model.MultipleChoice, QuestionID: 7}, "question_R_M_7"},
		{"optional open text", FieldKey{Required: false, Type: model.OpenText, QuestionID: 12}, "question_F_O_12"},
		{"required line", FieldKey{Required: true, Type: model.Line, QuestionID: 3}, "question_R_L_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFieldKeyRoundTrip(t *testing.T) {
	q := &model.Question{Type: model.Numeric, Required: true}
	q.ID = 42
	key, err := ParseFieldKey(q.FieldID())
	if err != nil {
		t.Fatalf("ParseFieldKey(%q) error: %v", q.FieldID(), err)
	}
	if key != KeyFor(q) {
		t.Errorf("round trip mismatch: got %+v, want %+v", key, KeyFor(q))
	}
}

func TestParseFieldKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"question_R_M",
		"question_R_M_1_extra",
		"answer_R_M_1",
		"question_X_M_1",
		"question_R_Z_1",
		"question_R_M_abc",
		"question_R_M_-1",
	}
	for _, s := range bad {
		if _, err := ParseFieldKey(s); err == nil {
			t.Errorf("ParseFieldKey(%q) accepted a malformed identifier", s)
		}
	}
}

func TestForTypeCoversAllKinds(t *testing.T) {
	for _, qt := range []model.QuestionType{
		model.MultipleChoice, model.OpenText, model.Numeric,
		model.Date, model.Remark, model.Line,
	} {
		if _, ok := ForType(qt); !ok {
			t.Errorf("no handler registered for type %q", qt)
		}
	}
	if _, ok := ForType(model.QuestionType("X")); ok {
		t.Error("handler returned for unknown type")
	}
}
