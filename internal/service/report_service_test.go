package service

import (
	"testing"

	"slidereview_backend/internal/model"
)

func TestCaseReportAggregatesAcrossObservers(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Panel", model.ObserverVariability, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	mc := e.addQuestion(t, cs.ID, model.MultipleChoice, true, "", "benign", "malignant")
	num := e.addQuestion(t, cs.ID, model.Numeric, false, "")

	for i, pick := range []int{1, 1, 2} {
		obs := e.user(t, "obs"+string(rune('a'+i)))
		ci := e.endInstance(t, cs.ID, obs.ID)
		e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: mc.ID, AnswerNumeric: pick})
		e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: num.ID, AnswerNumeric: 10 * (i + 1)})
	}

	loaded, _ := e.cases.FindByID(cs.ID)
	report, err := e.report.CaseReport(loaded)
	if err != nil {
		t.Fatalf("CaseReport: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("report rows = %d, want 2", len(report))
	}

	mcStats := report[0]
	if mcStats.QuestionID != mc.ID || mcStats.TotalAnswers != 3 {
		t.Errorf("choice stats = %+v", mcStats)
	}
	if len(mcStats.Choices) != 2 || mcStats.Choices[0].Count != 2 || mcStats.Choices[1].Count != 1 {
		t.Errorf("frequency table = %+v", mcStats.Choices)
	}

	numStats := report[1]
	if numStats.Numeric == nil || numStats.Numeric.Mean != 20 {
		t.Errorf("numeric stats = %+v", numStats.Numeric)
	}
}

func TestEvaluateGradesAgainstCorrectAnswers(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Exam", model.Examination, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	e.db.Model(&model.Case{}).Where("id = ?", cs.ID).Update("report", "Ductal carcinoma in situ.")
	right := e.addQuestion(t, cs.ID, model.MultipleChoice, true, "2", "benign", "malignant")
	wrong := e.addQuestion(t, cs.ID, model.OpenText, true, "carcinoma")
	e.addQuestion(t, cs.ID, model.Remark, false, "")

	ci := e.endInstance(t, cs.ID, observer.ID)
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: right.ID, AnswerNumeric: 2})
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: wrong.ID, AnswerText: "adenoma"})

	loaded, _ := e.cases.FindByID(cs.ID)
	eval, err := e.report.Evaluate(loaded, ci)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Report != "Ductal carcinoma in situ." {
		t.Errorf("report text = %q", eval.Report)
	}
	// Remark questions never appear in the evaluation.
	if len(eval.Entries) != 2 {
		t.Fatalf("entries = %+v", eval.Entries)
	}
	if eval.Entries[0].Grade != model.GradeCorrect || eval.Entries[1].Grade != model.GradeError {
		t.Errorf("grades = %+v", eval.Entries)
	}
	if eval.Score != "1 correct of 2" {
		t.Errorf("score = %q, want %q", eval.Score, "1 correct of 2")
	}
}

func TestEvaluateScoreNeedsTwoGradedQuestions(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Exam", model.Examination, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	only := e.addQuestion(t, cs.ID, model.OpenText, true, "carcinoma")
	e.addQuestion(t, cs.ID, model.OpenText, false, "")

	ci := e.endInstance(t, cs.ID, observer.ID)
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: only.ID, AnswerText: "carcinoma"})

	loaded, _ := e.cases.FindByID(cs.ID)
	eval, err := e.report.Evaluate(loaded, ci)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if eval.Score != "" {
		t.Errorf("score = %q, want empty with a single graded question", eval.Score)
	}
}
