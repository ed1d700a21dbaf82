package qtype

import (
	"encoding/json"

	"slidereview_backend/internal/model"
)

// LineMeasurement is the JSON payload of a line measurement answer as
// produced by the annotation editor.
type LineMeasurement struct {
	Length     float64         `json:"length"`
	LengthUnit string          `json:"length_unit"`
	SlideID    uint            `json:"slideid"`
	Annotation json.RawMessage `json:"annotation"`
}

// lineHandler carries a client drawn geometry plus a derived length. The
// answer row stores a formatted "<length> <unit>" text; the geometry lives in
// the AnswerAnnotation side record.
type lineHandler struct{}

func (lineHandler) BuildField(q *model.Question, _ []model.QuestionItem, prior *Prior, _ []model.BookmarkRef) FieldSpec {
	spec := FieldSpec{
		ID:       q.FieldID(),
		Label:    q.Text,
		Type:     model.Line,
		Required: q.Required,
	}
	// Without the side record there is nothing to reconstruct.
	if prior != nil && prior.Annotation != nil {
		m := LineMeasurement{
			Length:     prior.Annotation.Length,
			LengthUnit: prior.Annotation.LengthUnit,
			SlideID:    prior.Annotation.SlideID,
			Annotation: json.RawMessage(prior.Annotation.AnnotationJSON),
		}
		if encoded, err := json.Marshal(m); err == nil {
			spec.Initial = string(encoded)
		}
	}
	return spec
}

func (lineHandler) Validate(q *model.Question, _ []model.QuestionItem, raw string) (Value, error) {
	key := KeyFor(q)
	if raw == "" {
		if q.Required {
			return Value{}, invalid(key, "this field is required")
		}
		return Value{Blank: true}, nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return Value{}, invalid(key, "enter a valid measurement payload")
	}
	for _, want := range []string{"length", "length_unit", "slideid", "annotation"} {
		if _, ok := keys[want]; !ok {
			return Value{}, invalid(key, "measurement payload is missing %q", want)
		}
	}
	var m LineMeasurement
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Value{}, invalid(key, "enter a valid measurement payload")
	}
	return Value{Line: &m}, nil
}

func (lineHandler) Stats(q *model.Question, _ []model.QuestionItem, answers []AnswerData) Stats {
	st := Stats{QuestionID: q.ID, Type: q.Type, Text: q.Text}
	lengths := make([]float64, 0, len(answers))
	units := make(map[string]bool)
	for _, a := range answers {
		// Answers without a side record are skipped.
		if a.Annotation == nil {
			continue
		}
		lengths = append(lengths, a.Annotation.Length)
		units[a.Annotation.LengthUnit] = true
		st.Annotations = append(st.Annotations, AnnotationOverlay{
			AnswerID:   a.Answer.ID,
			SlideID:    a.Annotation.SlideID,
			Annotation: json.RawMessage(a.Annotation.AnnotationJSON),
		})
	}
	st.TotalAnswers = len(lengths)
	st.Numeric = summarize(lengths)
	switch len(units) {
	case 0:
	case 1:
		for u := range units {
			st.LengthUnit = u
		}
	default:
		st.LengthUnit = MixedUnits
	}
	return st
}
