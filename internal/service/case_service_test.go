package service

import (
	"errors"
	"testing"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/util"
)

func TestCreatePlaceholderCase(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	e.addCase(t, cl.ID, "Existing", 4)

	cs, err := e.caseSvc.Create(cl.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cs.Name != NewCasePlaceholderName {
		t.Errorf("name = %q", cs.Name)
	}
	if cs.Order != 5 {
		t.Errorf("order = %d, want appended after existing cases", cs.Order)
	}
}

func TestCopyCaseDuplicatesEverything(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	src := e.addCase(t, cl.ID, "Original", 1)
	e.db.Create(&model.CaseSlide{CaseID: src.ID, SlideID: 11, Order: 1})
	e.db.Create(&model.CaseSlide{CaseID: src.ID, SlideID: 12, Order: 2})
	mc := e.addQuestion(t, src.ID, model.MultipleChoice, true, "2", "yes", "no")
	e.addQuestion(t, src.ID, model.OpenText, false, "")

	loaded, _ := e.cases.FindByID(src.ID)
	dup, err := e.caseSvc.Copy(loaded)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if dup.Name != "Originalc" {
		t.Errorf("copy name = %q, want Originalc", dup.Name)
	}
	if dup.ID == src.ID || dup.CaseListID != cl.ID {
		t.Errorf("copy = %+v", dup)
	}

	slides, _ := e.cases.ListSlides(dup.ID)
	if len(slides) != 2 || slides[0].SlideID != 11 {
		t.Errorf("slides = %+v", slides)
	}
	questions, _ := e.questions.ListByCase(dup.ID)
	if len(questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(questions))
	}
	for _, q := range questions {
		if q.ID == mc.ID {
			t.Error("copy reuses original question row")
		}
		if q.Type == model.MultipleChoice {
			if q.CorrectAnswer != "2" {
				t.Errorf("correct answer not copied: %q", q.CorrectAnswer)
			}
			items, _ := e.questions.ListItems(q.ID)
			if len(items) != 2 || items[0].Text != "yes" {
				t.Errorf("items = %+v", items)
			}
		}
	}
}

func TestDeleteQuestionCascades(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	q := e.addQuestion(t, cs.ID, model.MultipleChoice, true, "", "yes", "no")

	ci := e.endInstance(t, cs.ID, observer.ID)
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: q.ID, AnswerNumeric: 1})

	if err := e.caseSvc.DeleteQuestion(q.ID); err != nil {
		t.Fatalf("DeleteQuestion: %v", err)
	}
	var items, answers int64
	e.db.Model(&model.QuestionItem{}).Where("question_id = ?", q.ID).Count(&items)
	e.db.Model(&model.Answer{}).Where("question_id = ?", q.ID).Count(&answers)
	if items != 0 || answers != 0 {
		t.Errorf("leftovers: items=%d answers=%d", items, answers)
	}
}

func TestSkipRefusesCompletedCases(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)

	if err := e.caseSvc.Skip(cs.ID, observer.ID); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	ci, err := e.instances.FindByCaseAndUser(cs.ID, observer.ID)
	if err != nil || ci.Status != model.InstanceSkipped {
		t.Fatalf("instance after skip = %+v, %v", ci, err)
	}

	other := e.addCase(t, cl.ID, "Case 2", 2)
	e.endInstance(t, other.ID, observer.ID)
	if err := e.caseSvc.Skip(other.ID, observer.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("skip on completed case = %v, want permission denied", err)
	}
}

func TestDeleteInstanceRemovesAnswers(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	line := e.addQuestion(t, cs.ID, model.Line, false, "")

	ci := e.endInstance(t, cs.ID, observer.ID)
	a := &model.Answer{CaseInstanceID: ci.ID, QuestionID: line.ID, AnswerText: "5 µm"}
	e.db.Create(a)
	e.db.Create(&model.AnswerAnnotation{AnswerID: a.ID, SlideID: 1, Length: 5, LengthUnit: "µm", AnnotationJSON: "{}"})

	if err := e.caseSvc.DeleteInstance(ci.ID); err != nil {
		t.Fatalf("DeleteInstance: %v", err)
	}
	var instances, answers, annotations int64
	e.db.Model(&model.CaseInstance{}).Where("id = ?", ci.ID).Count(&instances)
	e.db.Model(&model.Answer{}).Where("case_instance_id = ?", ci.ID).Count(&answers)
	e.db.Model(&model.AnswerAnnotation{}).Where("answer_id = ?", a.ID).Count(&annotations)
	if instances != 0 || answers != 0 || annotations != 0 {
		t.Errorf("leftovers: instances=%d answers=%d annotations=%d", instances, answers, annotations)
	}

	// The scheduler serves the case again afterwards.
	e.member(t, observer.ID, cl.ID)
	got, ok, err := e.caseList.NextCase(cl, observer.ID)
	if err != nil || !ok || got != cs.ID {
		t.Errorf("NextCase after reset = %d, ok=%v, err=%v", got, ok, err)
	}
}

func TestBookmarkUpsertByLabel(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)

	first, err := e.bookmark.SaveCaseBookmark(cs.ID, BookmarkRequest{SlideID: 1, Text: "tumor front", CenterX: 0.2, CenterY: 0.3, Zoom: 4})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := e.bookmark.SaveCaseBookmark(cs.ID, BookmarkRequest{SlideID: 1, Text: "tumor front", CenterX: 0.5, CenterY: 0.5, Zoom: 8})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("same label created a second bookmark: %d vs %d", first.ID, second.ID)
	}
	if second.Zoom != 8 || second.CenterX != 0.5 {
		t.Errorf("bookmark not updated: %+v", second)
	}
	var count int64
	e.db.Model(&model.CaseBookmark{}).Where("case_id = ?", cs.ID).Count(&count)
	if count != 1 {
		t.Errorf("bookmark rows = %d, want 1", count)
	}
}
