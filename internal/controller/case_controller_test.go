package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/service"
	"slidereview_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type submitFixture struct {
	db       *gorm.DB
	router   *gin.Engine
	observer *model.User
	list     *model.CaseList
	first    *model.Case
	second   *model.Case
	question *model.Question
}

func newSubmitFixture(t *testing.T, listType model.CaseListType, report string) *submitFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	f := &submitFixture{db: db}
	owner := &model.User{Username: "owner"}
	f.observer = &model.User{Username: "observer"}
	db.Create(owner)
	db.Create(f.observer)

	f.list = &model.CaseList{Name: "Panel", Slug: "panel", Type: listType, OwnerID: owner.ID, StartDate: time.Now()}
	db.Create(f.list)
	db.Create(&model.UserCaseList{UserID: f.observer.ID, CaseListID: f.list.ID, Status: model.MemberActive, StartTime: time.Now()})

	f.first = &model.Case{CaseListID: f.list.ID, Name: "Case 1", Order: 1, Report: report}
	f.second = &model.Case{CaseListID: f.list.ID, Name: "Case 2", Order: 2, Report: report}
	db.Create(f.first)
	db.Create(f.second)

	f.question = &model.Question{CaseID: f.first.ID, Type: model.OpenText, Order: 1, Text: "Diagnosis", Required: true}
	db.Create(f.question)

	cases := repository.NewCaseRepository(db)
	questions := repository.NewQuestionRepository(db)
	instances := repository.NewInstanceRepository(db)
	caseLists := repository.NewCaseListRepository(db)
	bookmarks := repository.NewBookmarkRepository(db)
	users := repository.NewUserRepository(db)

	mail := service.NewMailService(config.MailConfig{}, "http://test.local", zap.NewNop())
	caseListService := service.NewCaseListService(caseLists, cases, instances, users, mail, db)
	caseService := service.NewCaseService(cases, questions, instances, db)
	questionnaire := service.NewQuestionnaireService(questions, instances, bookmarks, db)
	reportService := service.NewReportService(cases, questions, instances)
	bookmarkService := service.NewBookmarkService(bookmarks)
	ctrl := NewCaseController(caseService, caseListService, questionnaire, reportService, bookmarkService)

	router := gin.New()
	router.Use(claimsAs(f.observer))
	router.POST("/api/cases/:id/submit", ctrl.Submit)
	f.router = router
	return f
}

func (f *submitFixture) submit(t *testing.T, caseID uint, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/cases/%d/submit", caseID), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var envelope struct {
		Code    int                    `json:"code"`
		Message string                 `json:"message"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid response body %q: %v", w.Body.String(), err)
	}
	return w, envelope.Data
}

func TestSubmitNextActionAdvances(t *testing.T) {
	f := newSubmitFixture(t, model.CaseReport, "")

	body := fmt.Sprintf(`{"answers":{%q:"melanoma"},"action":"next"}`, f.question.FieldID())
	w, data := f.submit(t, f.first.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if done, _ := data["done"].(bool); done {
		t.Fatalf("expected another case to be offered, got %v", data)
	}
	if next := uint(data["next"].(float64)); next != f.second.ID {
		t.Errorf("expected next case %d, got %d", f.second.ID, next)
	}

	var ci model.CaseInstance
	if err := f.db.Where("case_id = ? AND user_id = ?", f.first.ID, f.observer.ID).First(&ci).Error; err != nil {
		t.Fatalf("expected an instance: %v", err)
	}
	if ci.Status != model.InstanceEnded {
		t.Errorf("expected status %q, got %q", model.InstanceEnded, ci.Status)
	}
	var answer model.Answer
	if err := f.db.Where("case_instance_id = ? AND question_id = ?", ci.ID, f.question.ID).First(&answer).Error; err != nil {
		t.Fatalf("expected an answer: %v", err)
	}
	if answer.AnswerText != "melanoma" {
		t.Errorf("expected answer text %q, got %q", "melanoma", answer.AnswerText)
	}
}

func TestSubmitDefaultActionReturnsToList(t *testing.T) {
	f := newSubmitFixture(t, model.CaseReport, "")

	body := fmt.Sprintf(`{"answers":{%q:"melanoma"}}`, f.question.FieldID())
	w, data := f.submit(t, f.first.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if done, _ := data["done"].(bool); !done {
		t.Fatalf("expected done response, got %v", data)
	}
	if _, offered := data["next"]; offered {
		t.Errorf("default action must not advance, got %v", data)
	}
}

func TestSubmitRequiredFieldMissing(t *testing.T) {
	f := newSubmitFixture(t, model.CaseReport, "")

	body := fmt.Sprintf(`{"answers":{%q:""}}`, f.question.FieldID())
	w, data := f.submit(t, f.first.ID, body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	fields, ok := data["fields"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected field errors, got %v", data)
	}
	if _, ok := fields[f.question.FieldID()]; !ok {
		t.Errorf("expected an error for %s, got %v", f.question.FieldID(), fields)
	}

	var count int64
	f.db.Model(&model.CaseInstance{}).Where("user_id = ?", f.observer.ID).Count(&count)
	if count != 0 {
		t.Errorf("validation failure must not create an instance, found %d", count)
	}
}

func TestSubmitExaminationShowsEvaluation(t *testing.T) {
	f := newSubmitFixture(t, model.Examination, "Reference diagnosis: melanoma")

	body := fmt.Sprintf(`{"answers":{%q:"melanoma"},"action":"next"}`, f.question.FieldID())
	w, data := f.submit(t, f.first.ID, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	evalID, ok := data["evaluation"].(float64)
	if !ok {
		t.Fatalf("expected an evaluation pointer, got %v", data)
	}

	var ci model.CaseInstance
	if err := f.db.Where("case_id = ? AND user_id = ?", f.first.ID, f.observer.ID).First(&ci).Error; err != nil {
		t.Fatalf("expected an instance: %v", err)
	}
	if uint(evalID) != ci.ID {
		t.Errorf("expected evaluation of instance %d, got %v", ci.ID, evalID)
	}
}

func TestSubmitClosedListRejected(t *testing.T) {
	f := newSubmitFixture(t, model.CaseReport, "")
	past := time.Now().Add(-24 * time.Hour)
	f.db.Model(f.list).Update("end_date", past)

	body := fmt.Sprintf(`{"answers":{%q:"melanoma"}}`, f.question.FieldID())
	w, _ := f.submit(t, f.first.ID, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}
