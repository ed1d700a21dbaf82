package qtype

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"slidereview_backend/internal/model"
)

// Stats is the aggregate result for one question. Which sections are filled
// depends on the question kind.
type Stats struct {
	QuestionID   uint               `json:"questionId"`
	Type         model.QuestionType `json:"type"`
	Text         string             `json:"text"`
	TotalAnswers int                `json:"totalAnswers"`

	Numeric     *NumericSummary     `json:"numeric,omitempty"`
	Choices     []ChoiceCount       `json:"choices,omitempty"`
	TopTexts    []TextCount         `json:"topTexts,omitempty"`
	LengthUnit  string              `json:"lengthUnit,omitempty"`
	Annotations []AnnotationOverlay `json:"annotations,omitempty"`
}

// NumericSummary reports min/max/mean and the sample standard deviation.
// StdDevValid is false when fewer than two values were collected.
type NumericSummary struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stdDev"`
	StdDevValid bool    `json:"stdDevValid"`
}

// ChoiceCount is one frequency table row. Every defined item appears,
// including zero count ones.
type ChoiceCount struct {
	Value   int    `json:"value"`
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

type TextCount struct {
	Text    string `json:"text"`
	Count   int    `json:"count"`
	Percent string `json:"percent"`
}

// AnnotationOverlay is one line geometry tagged with its originating answer,
// for client side overlay rendering.
type AnnotationOverlay struct {
	AnswerID   uint            `json:"answerId"`
	SlideID    uint            `json:"slideId"`
	Annotation json.RawMessage `json:"annotation"`
}

// MixedUnits marks a length unit column where observers measured in more
// than one distinct unit.
const MixedUnits = "-"

func summarize(values []float64) *NumericSummary {
	if len(values) == 0 {
		return nil
	}
	s := &NumericSummary{Min: values[0], Max: values[0]}
	var sum float64
	for _, v := range values {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Mean = sum / float64(len(values))
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(len(values)-1))
		s.StdDevValid = true
	}
	return s
}

func percent(count, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", 100*float64(count)/float64(total))
}

// topTexts builds the most-frequent table over non blank texts, capped at n
// rows. Ties break on count, then lexically, so output is stable.
func topTexts(texts []string, n int) ([]TextCount, int) {
	counts := make(map[string]int)
	total := 0
	for _, t := range texts {
		if t == "" {
			continue
		}
		counts[t]++
		total++
	}
	rows := make([]TextCount, 0, len(counts))
	for t, c := range counts {
		rows = append(rows, TextCount{Text: t, Count: c, Percent: percent(c, total)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Text < rows[j].Text
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows, total
}
