package controller

import (
	"errors"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/service"
	"slidereview_backend/internal/util"
	"slidereview_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CaseController struct {
	CaseService     *service.CaseService
	CaseListService *service.CaseListService
	Questionnaire   *service.QuestionnaireService
	ReportService   *service.ReportService
	Bookmarks       *service.BookmarkService
}

func NewCaseController(caseService *service.CaseService, caseListService *service.CaseListService,
	questionnaire *service.QuestionnaireService, reportService *service.ReportService,
	bookmarks *service.BookmarkService) *CaseController {
	return &CaseController{
		CaseService:     caseService,
		CaseListService: caseListService,
		Questionnaire:   questionnaire,
		ReportService:   reportService,
		Bookmarks:       bookmarks,
	}
}

// find loads a case with its owning list, replying 404 when missing.
func (c *CaseController) find(ctx *gin.Context) (*model.Case, bool) {
	cs, err := c.CaseService.Cases.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}
	if cs.CaseList == nil {
		util.NotFound(ctx)
		return nil, false
	}
	return cs, true
}

// requireObserver checks that the requester may review cases of the list,
// enrolling walk-in observers on publicly visible lists.
func (c *CaseController) requireObserver(ctx *gin.Context, cs *model.Case) (*util.Claims, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	cl := cs.CaseList
	if c.CaseListService.IsAdmin(claims.UserID, claims.IsStaff, cl) {
		return claims, true
	}
	status := c.CaseListService.MembershipStatus(claims.UserID, cl.ID)
	if status == model.MemberNone && cl.VisibleForNonUsers {
		if err := c.CaseListService.EnsureActiveMembership(claims.UserID, cl); err != nil {
			util.LogInternalError(ctx, err)
			return nil, false
		}
		return claims, true
	}
	if status != model.MemberActive && status != model.MemberComplete {
		util.Forbidden(ctx)
		return nil, false
	}
	return claims, true
}

func (c *CaseController) requireAdmin(ctx *gin.Context, cl *model.CaseList) (*util.Claims, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil, false
	}
	if !c.CaseListService.IsAdmin(claims.UserID, claims.IsStaff, cl) {
		util.Forbidden(ctx)
		return nil, false
	}
	return claims, true
}

// Get godoc
// @Summary Serve a case for review
// @Description Returns the case with its slides, saved viewer positions and
// the prefilled questionnaire for the requesting observer.
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} util.Response
// @Router /cases/{id} [get]
func (c *CaseController) Get(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	claims, ok := c.requireObserver(ctx, cs)
	if !ok {
		return
	}

	fields, err := c.Questionnaire.Build(cs, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	slides, err := c.CaseService.Cases.ListSlides(cs.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	bookmarks, err := c.Bookmarks.Bookmarks.ListCaseBookmarks(cs.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"case": gin.H{
			"id":           cs.ID,
			"name":         cs.Name,
			"introduction": cs.Introduction,
			"caseListId":   cs.CaseListID,
		},
		"slides":    slides,
		"bookmarks": bookmarks,
		"fields":    fields,
	})
}

// SubmitRequest carries the raw questionnaire values keyed by field id.
// Action "submit" returns the observer to the case list, "next" advances
// straight to the following case.
type SubmitRequest struct {
	Answers map[string]string `json:"answers"`
	Action  string            `json:"action"`
}

// Submit godoc
// @Summary Submit a reviewed case
// @Description Validates and records the answers, then tells the client
// where to go next: the evaluation for exam lists, the next case, or back
// to the case list depending on the action.
// @Tags cases
// @Accept json
// @Produce json
// @Param id path int true "case id"
// @Param body body SubmitRequest true "answers"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response
// @Router /cases/{id}/submit [post]
func (c *CaseController) Submit(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	claims, ok := c.requireObserver(ctx, cs)
	if !ok {
		return
	}
	if !cs.CaseList.IsActive() {
		util.Error(ctx, 403, "case list is closed")
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := service.ParseFieldIDs(req.Answers); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cleaned, fieldErrors, err := c.Questionnaire.Validate(cs, req.Answers)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if len(fieldErrors) > 0 {
		util.ValidationFailed(ctx, fieldErrors)
		return
	}

	instance, err := c.Questionnaire.Submit(cs, claims.UserID, cleaned)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	monitoring.SubmissionCounter.WithLabelValues("submit").Inc()
	c.respondNext(ctx, cs, claims.UserID, instance, req.Action == "next")
}

// respondNext points the client at the follow-up screen. Examination cases
// with a reference report show the graded evaluation of the just submitted
// instance; otherwise the action discriminator decides between returning to
// the case list and serving the next case.
func (c *CaseController) respondNext(ctx *gin.Context, cs *model.Case, userID uint, instance *model.CaseInstance, advance bool) {
	if instance != nil && cs.CaseList.Type == model.Examination && cs.Report != "" {
		util.Success(ctx, gin.H{"evaluation": instance.ID})
		return
	}
	if !advance {
		util.Success(ctx, gin.H{"done": true})
		return
	}
	caseID, found, err := c.CaseListService.NextCase(cs.CaseList, userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !found {
		util.Success(ctx, gin.H{"done": true})
		return
	}
	util.Success(ctx, gin.H{"done": false, "next": caseID})
}

// Evaluation godoc
// @Summary Graded answers for the observer's attempt at a case
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} util.Response
// @Router /cases/{id}/evaluation [get]
func (c *CaseController) Evaluation(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	claims, ok := c.requireObserver(ctx, cs)
	if !ok {
		return
	}
	ci, err := c.CaseService.Instances.FindByCaseAndUser(cs.ID, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if ci.Status != model.InstanceEnded {
		util.Error(ctx, 409, "case not completed yet")
		return
	}
	eval, err := c.ReportService.Evaluate(cs, ci)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, eval)
}

// Report godoc
// @Summary Aggregate answer statistics per question
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} util.Response
// @Router /cases/{id}/report [get]
func (c *CaseController) Report(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	report, err := c.ReportService.CaseReport(cs)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"caseId": cs.ID, "questions": report})
}

// Create godoc
// @Summary Add an empty case to a case list
// @Tags cases
// @Produce json
// @Param slug path string true "case list slug"
// @Success 201 {object} util.Response
// @Router /caselists/{slug}/cases [post]
func (c *CaseController) Create(ctx *gin.Context) {
	cl, err := c.CaseListService.CaseLists.FindBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	if _, ok := c.requireAdmin(ctx, cl); !ok {
		return
	}
	cs, err := c.CaseService.Create(cl.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, cs)
}

// Update godoc
// @Summary Update case content
// @Tags cases
// @Accept json
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} util.Response
// @Router /cases/{id} [put]
func (c *CaseController) Update(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	var req service.CaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CaseService.Update(cs, req); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cs)
}

// Copy godoc
// @Summary Duplicate a case with its questions and slides
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Success 201 {object} util.Response
// @Router /cases/{id}/copy [post]
func (c *CaseController) Copy(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	dup, err := c.CaseService.Copy(cs)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, dup)
}

// Delete godoc
// @Summary Delete a case
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} util.Response
// @Router /cases/{id} [delete]
func (c *CaseController) Delete(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	if err := c.CaseService.Delete(cs); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// AddQuestion godoc
// @Summary Add a question to a case
// @Tags cases
// @Accept json
// @Produce json
// @Param id path int true "case id"
// @Success 201 {object} util.Response
// @Router /cases/{id}/questions [post]
func (c *CaseController) AddQuestion(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	q, err := c.CaseService.AddQuestion(cs.ID, req)
	if err != nil {
		if errors.Is(err, util.ErrTypeMismatch) {
			util.BadRequest(ctx, "unknown question type")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, q)
}

// DeleteQuestion godoc
// @Summary Delete a question and its recorded answers
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Param questionId path int true "question id"
// @Success 200 {object} util.Response
// @Router /cases/{id}/questions/{questionId} [delete]
func (c *CaseController) DeleteQuestion(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	q, err := c.CaseService.Questions.FindByID(util.MustParseUint(ctx.Param("questionId")))
	if err != nil || q.CaseID != cs.ID {
		util.NotFound(ctx)
		return
	}
	if err := c.CaseService.DeleteQuestion(q.ID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}

// SkipForUser godoc
// @Summary Administratively skip a case for an observer
// @Tags cases
// @Produce json
// @Param id path int true "case id"
// @Param userId path int true "observer id"
// @Success 200 {object} util.Response
// @Router /cases/{id}/skip/{userId} [post]
func (c *CaseController) SkipForUser(ctx *gin.Context) {
	cs, ok := c.find(ctx)
	if !ok {
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	if err := c.CaseService.Skip(cs.ID, util.MustParseUint(ctx.Param("userId"))); err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Error(ctx, 409, "case already completed")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	monitoring.SubmissionCounter.WithLabelValues("skip").Inc()
	util.Success(ctx, gin.H{"skipped": true})
}

// DeleteInstance godoc
// @Summary Discard an observer's attempt so the case is served again
// @Tags cases
// @Produce json
// @Param id path int true "instance id"
// @Success 200 {object} util.Response
// @Router /instances/{id} [delete]
func (c *CaseController) DeleteInstance(ctx *gin.Context) {
	ci, err := c.CaseService.Instances.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	cs, err := c.CaseService.Cases.FindByID(ci.CaseID)
	if err != nil || cs.CaseList == nil {
		util.NotFound(ctx)
		return
	}
	if _, ok := c.requireAdmin(ctx, cs.CaseList); !ok {
		return
	}
	if err := c.CaseService.DeleteInstance(ci.ID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
