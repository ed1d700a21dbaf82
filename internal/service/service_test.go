package service

import (
	"fmt"
	"testing"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/pkg/database"
	"slidereview_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testEnv bundles the repositories and services under test on a fresh
// in-memory database.
type testEnv struct {
	db            *gorm.DB
	users         *repository.UserRepository
	caseLists     *repository.CaseListRepository
	cases         *repository.CaseRepository
	questions     *repository.QuestionRepository
	instances     *repository.InstanceRepository
	bookmarks     *repository.BookmarkRepository
	caseList      *CaseListService
	caseSvc       *CaseService
	questionnaire *QuestionnaireService
	report        *ReportService
	bookmark      *BookmarkService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	e := &testEnv{
		db:        db,
		users:     repository.NewUserRepository(db),
		caseLists: repository.NewCaseListRepository(db),
		cases:     repository.NewCaseRepository(db),
		questions: repository.NewQuestionRepository(db),
		instances: repository.NewInstanceRepository(db),
		bookmarks: repository.NewBookmarkRepository(db),
	}
	mail := NewMailService(config.MailConfig{}, "http://test.local", zap.NewNop())
	e.caseList = NewCaseListService(e.caseLists, e.cases, e.instances, e.users, mail, db)
	e.caseSvc = NewCaseService(e.cases, e.questions, e.instances, db)
	e.questionnaire = NewQuestionnaireService(e.questions, e.instances, e.bookmarks, db)
	e.report = NewReportService(e.cases, e.questions, e.instances)
	e.bookmark = NewBookmarkService(e.bookmarks)
	return e
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, FirstName: "Test", LastName: "Observer", LastSeen: time.Now()}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func (e *testEnv) caselist(t *testing.T, name string, typ model.CaseListType, quota uint, ownerID uint) *model.CaseList {
	t.Helper()
	cl, err := e.caseList.Create(ownerID, CaseListRequest{
		Name:             name,
		Type:             typ,
		ObserversPerCase: quota,
	})
	if err != nil {
		t.Fatalf("failed to create case list: %v", err)
	}
	return cl
}

func (e *testEnv) addCase(t *testing.T, caseListID uint, name string, order int) *model.Case {
	t.Helper()
	c := &model.Case{CaseListID: caseListID, Name: name, Order: order}
	if err := e.db.Create(c).Error; err != nil {
		t.Fatalf("failed to create case: %v", err)
	}
	return c
}

func (e *testEnv) addQuestion(t *testing.T, caseID uint, qt model.QuestionType, required bool, correct string, items ...string) *model.Question {
	t.Helper()
	var existing int64
	e.db.Model(&model.Question{}).Where("case_id = ?", caseID).Count(&existing)
	q := &model.Question{CaseID: caseID, Type: qt, Order: int(existing) + 1, Required: required, Text: "question", CorrectAnswer: correct}
	if err := e.db.Create(q).Error; err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	for i, text := range items {
		item := &model.QuestionItem{QuestionID: q.ID, Order: i + 1, Text: text}
		if err := e.db.Create(item).Error; err != nil {
			t.Fatalf("failed to create item: %v", err)
		}
	}
	return q
}

func (e *testEnv) member(t *testing.T, userID, caseListID uint) {
	t.Helper()
	ucl := &model.UserCaseList{UserID: userID, CaseListID: caseListID, Status: model.MemberActive, StartTime: time.Now()}
	if err := e.db.Create(ucl).Error; err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}
}

func (e *testEnv) endInstance(t *testing.T, caseID, userID uint) *model.CaseInstance {
	t.Helper()
	ci := &model.CaseInstance{CaseID: caseID, UserID: userID, Status: model.InstanceEnded, StartTime: time.Now(), EndTime: time.Now()}
	if err := e.db.Create(ci).Error; err != nil {
		t.Fatalf("failed to create instance: %v", err)
	}
	return ci
}
