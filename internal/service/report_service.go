package service

import (
	"fmt"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/qtype"
	"slidereview_backend/internal/repository"
)

// ReportService aggregates recorded answers into per-question statistics
// and per-observer evaluations.
type ReportService struct {
	Cases     *repository.CaseRepository
	Questions *repository.QuestionRepository
	Instances *repository.InstanceRepository
}

func NewReportService(cases *repository.CaseRepository, questions *repository.QuestionRepository,
	instances *repository.InstanceRepository) *ReportService {
	return &ReportService{Cases: cases, Questions: questions, Instances: instances}
}

// CaseReport computes the aggregate statistics for every question of a
// case, across all observers, in question order.
func (s *ReportService) CaseReport(cs *model.Case) ([]qtype.Stats, error) {
	questions, err := s.Questions.ListByCase(cs.ID)
	if err != nil {
		return nil, err
	}
	report := make([]qtype.Stats, 0, len(questions))
	for i := range questions {
		q := &questions[i]
		h, ok := qtype.ForType(q.Type)
		if !ok {
			continue
		}
		items, err := s.Questions.ListItems(q.ID)
		if err != nil {
			return nil, err
		}
		answers, err := s.Instances.ListAnswersByQuestion(q.ID)
		if err != nil {
			return nil, err
		}
		data := make([]qtype.AnswerData, len(answers))
		for j := range answers {
			data[j] = qtype.AnswerData{Answer: answers[j], Annotation: answers[j].Annotation}
		}
		report = append(report, h.Stats(q, items, data))
	}
	return report, nil
}

// EvaluationEntry is one observer answer with its grading outcome.
type EvaluationEntry struct {
	QuestionID    uint               `json:"questionId"`
	QuestionText  string             `json:"questionText"`
	Type          model.QuestionType `json:"type"`
	Value         string             `json:"value"`
	CorrectAnswer string             `json:"correctAnswer,omitempty"`
	Grade         model.AnswerGrade  `json:"grade"`
}

// CaseEvaluation is the observer-facing result page for one ended
// instance. Score is "" unless at least two graded questions exist, true
// to the exam result display.
type CaseEvaluation struct {
	CaseID  uint              `json:"caseId"`
	Report  string            `json:"report"`
	Entries []EvaluationEntry `json:"entries"`
	Score   string            `json:"score"`
}

// Evaluate grades one observer's answers to a case against the configured
// correct answers.
func (s *ReportService) Evaluate(cs *model.Case, ci *model.CaseInstance) (*CaseEvaluation, error) {
	questions, err := s.Questions.ListByCase(cs.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.Instances.ListAnswers(ci.ID)
	if err != nil {
		return nil, err
	}
	byQuestion := make(map[uint]*model.Answer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}

	eval := &CaseEvaluation{CaseID: cs.ID, Report: cs.Report}
	graded, correct := 0, 0
	for i := range questions {
		q := &questions[i]
		if q.Type == model.Remark {
			continue
		}
		entry := EvaluationEntry{
			QuestionID:    q.ID,
			QuestionText:  q.Text,
			Type:          q.Type,
			CorrectAnswer: q.CorrectAnswer,
		}
		if a, ok := byQuestion[q.ID]; ok {
			entry.Value = a.TextValue(q)
			entry.Grade = a.Grade(q)
		}
		switch entry.Grade {
		case model.GradeCorrect:
			graded++
			correct++
		case model.GradeError:
			graded++
		}
		eval.Entries = append(eval.Entries, entry)
	}
	if graded > 1 {
		eval.Score = fmt.Sprintf("%d correct of %d", correct, graded)
	}
	return eval, nil
}
