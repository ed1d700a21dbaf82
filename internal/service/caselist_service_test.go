package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/util"
)

func TestCreateCaseListAddsOwnerMembership(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Lymph node panel", model.CaseReport, 0, owner.ID)

	if cl.Slug != "lymph-node-panel" {
		t.Errorf("slug = %q", cl.Slug)
	}
	ucl, err := e.caseLists.FindMembership(owner.ID, cl.ID)
	if err != nil {
		t.Fatalf("owner membership missing: %v", err)
	}
	if ucl.Status != model.MemberActive {
		t.Errorf("owner status = %q, want active", ucl.Status)
	}
}

func TestCreateCaseListSlugCollision(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	first := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	second := e.caselist(t, "Panel", model.CaseReport, 0, owner.ID)
	if first.Slug == second.Slug {
		t.Fatalf("duplicate slug %q", second.Slug)
	}
	if second.Slug != "panel-2" {
		t.Errorf("second slug = %q, want panel-2", second.Slug)
	}
}

func TestCreateCaseListSlugFallbackForNonLatinName(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "病理パネル", model.CaseReport, 0, owner.ID)

	if cl.Slug == "" {
		t.Fatal("slug is empty, list would be unreachable by URL")
	}
	if !strings.HasPrefix(cl.Slug, "list-") {
		t.Errorf("slug = %q, want a generated fallback", cl.Slug)
	}
}

func TestApplyRespectsRegistrationFlags(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")

	closed := e.caselist(t, "Closed", model.CaseReport, 0, owner.ID)
	if _, err := e.caseList.Apply(observer.ID, closed); !errors.Is(err, util.ErrPermissionDenied) {
		t.Errorf("apply on closed list = %v, want permission denied", err)
	}

	moderated, _ := e.caseList.Create(owner.ID, CaseListRequest{Name: "Moderated", Type: model.CaseReport, OpenForRegistration: true})
	ucl, err := e.caseList.Apply(observer.ID, moderated)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ucl.Status != model.MemberPending {
		t.Errorf("status = %q, want pending approval", ucl.Status)
	}
	if _, err := e.caseList.Apply(observer.ID, moderated); !errors.Is(err, util.ErrMembershipExists) {
		t.Errorf("second apply = %v, want membership exists", err)
	}

	open, _ := e.caseList.Create(owner.ID, CaseListRequest{Name: "Open", Type: model.CaseReport, OpenForRegistration: true, SelfRegistration: true})
	ucl, err = e.caseList.Apply(observer.ID, open)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ucl.Status != model.MemberActive {
		t.Errorf("self registration status = %q, want active", ucl.Status)
	}
}

func TestNextCaseServesInManualOrder(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Sequential", model.CaseReport, 0, owner.ID)
	third := e.addCase(t, cl.ID, "Third", 3)
	first := e.addCase(t, cl.ID, "First", 1)
	second := e.addCase(t, cl.ID, "Second", 2)
	e.member(t, observer.ID, cl.ID)

	expect := []uint{first.ID, second.ID, third.ID}
	for _, want := range expect {
		got, ok, err := e.caseList.NextCase(cl, observer.ID)
		if err != nil || !ok {
			t.Fatalf("NextCase: %v, ok=%v", err, ok)
		}
		if got != want {
			t.Fatalf("NextCase = %d, want %d", got, want)
		}
		e.endInstance(t, got, observer.ID)
	}

	if _, ok, err := e.caseList.NextCase(cl, observer.ID); err != nil || ok {
		t.Errorf("exhausted list still serves cases: ok=%v err=%v", ok, err)
	}
}

func TestNextCaseSkipsSkippedAndRandomizesVariabilityTies(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Variability", model.ObserverVariability, 0, owner.ID)
	a := e.addCase(t, cl.ID, "A", 1)
	b := e.addCase(t, cl.ID, "B", 1)
	e.member(t, observer.ID, cl.ID)

	// A skipped instance removes the case from the candidate pool.
	skipped := &model.CaseInstance{CaseID: a.ID, UserID: observer.ID, Status: model.InstanceSkipped}
	if err := e.db.Create(skipped).Error; err != nil {
		t.Fatal(err)
	}

	got, ok, err := e.caseList.NextCase(cl, observer.ID)
	if err != nil || !ok {
		t.Fatalf("NextCase: %v", err)
	}
	if got != b.ID {
		t.Errorf("NextCase = %d, want %d (skipped case excluded)", got, b.ID)
	}
}

func TestNextCaseTieBreaksDeterministically(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Fixed sequence", model.CaseReport, 0, owner.ID)
	a := e.addCase(t, cl.ID, "A", 1)
	e.addCase(t, cl.ID, "B", 1)

	// Equal order values fall back to the lowest id, so every fresh
	// observer starts with the same case.
	for i := 0; i < 5; i++ {
		observer := e.user(t, fmt.Sprintf("fixed-observer-%d", i))
		e.member(t, observer.ID, cl.ID)
		got, ok, err := e.caseList.NextCase(cl, observer.ID)
		if err != nil || !ok {
			t.Fatalf("NextCase: %v, ok=%v", err, ok)
		}
		if got != a.ID {
			t.Fatalf("observer %d served case %d, want %d", i, got, a.ID)
		}
	}
}

func TestNextCaseRandomizesVariabilityTies(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Tied variability", model.ObserverVariability, 0, owner.ID)
	a := e.addCase(t, cl.ID, "A", 1)
	b := e.addCase(t, cl.ID, "B", 1)

	served := make(map[uint]int)
	for i := 0; i < 40; i++ {
		observer := e.user(t, fmt.Sprintf("tie-observer-%d", i))
		e.member(t, observer.ID, cl.ID)
		got, ok, err := e.caseList.NextCase(cl, observer.ID)
		if err != nil || !ok {
			t.Fatalf("NextCase: %v, ok=%v", err, ok)
		}
		served[got]++
	}
	if served[a.ID] == 0 || served[b.ID] == 0 {
		t.Errorf("tied candidates unevenly exposed, served = %v", served)
	}
}

func TestNextCaseQuotaPrefersLeastObserved(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Quota", model.ObserverVariability, 2, owner.ID)
	a := e.addCase(t, cl.ID, "A", 1)
	b := e.addCase(t, cl.ID, "B", 2)

	other := e.user(t, "other")
	e.endInstance(t, a.ID, other.ID)

	observer := e.user(t, "observer")
	e.member(t, observer.ID, cl.ID)

	got, ok, err := e.caseList.NextCase(cl, observer.ID)
	if err != nil || !ok {
		t.Fatalf("NextCase: %v", err)
	}
	if got != b.ID {
		t.Errorf("NextCase = %d, want %d (least observed first)", got, b.ID)
	}
}

func TestCountsExcludeSkippedFromTotal(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Counts", model.CaseReport, 0, owner.ID)
	a := e.addCase(t, cl.ID, "A", 1)
	b := e.addCase(t, cl.ID, "B", 2)
	e.addCase(t, cl.ID, "C", 3)
	e.member(t, observer.ID, cl.ID)

	e.endInstance(t, a.ID, observer.ID)
	skipped := &model.CaseInstance{CaseID: b.ID, UserID: observer.ID, Status: model.InstanceSkipped}
	if err := e.db.Create(skipped).Error; err != nil {
		t.Fatal(err)
	}

	counts, err := e.caseList.Counts(cl, observer.ID)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts.CountCompleted != 1 || counts.CountSkipped != 1 {
		t.Errorf("counts = %+v", counts)
	}
	if counts.CountTotal != 2 {
		t.Errorf("CountTotal = %d, want 2 (skipped excluded)", counts.CountTotal)
	}
	if counts.CountTodo != 1 {
		t.Errorf("CountTodo = %d, want 1", counts.CountTodo)
	}
}

func TestEvaluationSummarizesGradedAnswers(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Exam", model.Examination, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)
	right := e.addQuestion(t, cs.ID, model.MultipleChoice, true, "1", "yes", "no")
	wrong := e.addQuestion(t, cs.ID, model.OpenText, true, "carcinoma")
	e.addQuestion(t, cs.ID, model.OpenText, false, "") // ungraded
	e.member(t, observer.ID, cl.ID)

	ci := e.endInstance(t, cs.ID, observer.ID)
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: right.ID, AnswerNumeric: 1})
	e.db.Create(&model.Answer{CaseInstanceID: ci.ID, QuestionID: wrong.ID, AnswerText: "adenoma"})

	got, err := e.caseList.Evaluation(cl, observer.ID)
	if err != nil {
		t.Fatalf("Evaluation: %v", err)
	}
	if got != "1 of 2" {
		t.Errorf("Evaluation = %q, want %q", got, "1 of 2")
	}

	// No graded answers yet for a second observer.
	second := e.user(t, "second")
	e.member(t, second.ID, cl.ID)
	got, err = e.caseList.Evaluation(cl, second.ID)
	if err != nil || got != "" {
		t.Errorf("Evaluation without answers = %q, %v; want empty", got, err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Invited", model.CaseReport, 0, owner.ID)
	inv, err := e.caseList.Invite(cl, "observer@example.org", "11111111-2222-3333-4444-555555555555")
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}

	observer := e.user(t, "observer")
	ucl, err := e.caseList.AcceptInvitation(inv.Key, observer.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation: %v", err)
	}
	if ucl.Status != model.MemberActive || ucl.CaseListID != cl.ID {
		t.Errorf("membership = %+v", ucl)
	}

	// Re-accepting the own key is a no-op, a different user is rejected.
	if _, err := e.caseList.AcceptInvitation(inv.Key, observer.ID); err != nil {
		t.Errorf("idempotent accept failed: %v", err)
	}
	intruder := e.user(t, "intruder")
	if _, err := e.caseList.AcceptInvitation(inv.Key, intruder.ID); !errors.Is(err, util.ErrInvitationUsed) {
		t.Errorf("foreign accept = %v, want invitation used", err)
	}
	if _, err := e.caseList.AcceptInvitation("no-such-key", observer.ID); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("unknown key = %v, want not found", err)
	}
}

func TestDeleteInactiveAnonymous(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	cl := e.caselist(t, "Public", model.ShowCase, 0, owner.ID)
	cs := e.addCase(t, cl.ID, "Case 1", 1)

	active := &model.User{Username: "anon-1", IsAnonymous: true}
	idle := &model.User{Username: "anon-2", IsAnonymous: true}
	e.db.Create(active)
	e.db.Create(idle)
	e.member(t, active.ID, cl.ID)
	e.member(t, idle.ID, cl.ID)
	e.endInstance(t, cs.ID, active.ID)

	if err := e.caseList.DeleteInactiveAnonymous(cl); err != nil {
		t.Fatalf("DeleteInactiveAnonymous: %v", err)
	}

	if _, err := e.caseLists.FindMembership(active.ID, cl.ID); err != nil {
		t.Errorf("active anonymous member was deleted: %v", err)
	}
	if _, err := e.caseLists.FindMembership(idle.ID, cl.ID); err == nil {
		t.Error("idle anonymous member survived the purge")
	}
}

func TestEnsureActiveMembershipIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner")
	observer := e.user(t, "observer")
	cl := e.caselist(t, "Walk-in", model.ShowCase, 0, owner.ID)

	if err := e.caseList.EnsureActiveMembership(observer.ID, cl); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := e.caseList.EnsureActiveMembership(observer.ID, cl); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	var count int64
	e.db.Model(&model.UserCaseList{}).Where("user_id = ? AND case_list_id = ?", observer.ID, cl.ID).Count(&count)
	if count != 1 {
		t.Errorf("membership rows = %d, want 1", count)
	}
}
