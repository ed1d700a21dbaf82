package controller

import (
	"errors"
	"net/http"
	"strings"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/service"
	"slidereview_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BookmarkController speaks the slide viewer's bookmark protocol: JSON-only
// POSTs answered with {"status": "OK"} or {"status": "error", "message":
// ...}. Deletion replies 404 to anyone but a list admin so probing
// requests cannot tell a forbidden bookmark from a missing one.
type BookmarkController struct {
	BookmarkService *service.BookmarkService
	CaseService     *service.CaseService
	CaseListService *service.CaseListService
}

func NewBookmarkController(bookmarkService *service.BookmarkService, caseService *service.CaseService,
	caseListService *service.CaseListService) *BookmarkController {
	return &BookmarkController{
		BookmarkService: bookmarkService,
		CaseService:     caseService,
		CaseListService: caseListService,
	}
}

func bookmarkOK(ctx *gin.Context, data gin.H) {
	body := gin.H{"status": "OK"}
	for k, v := range data {
		body[k] = v
	}
	ctx.JSON(http.StatusOK, body)
}

func bookmarkError(ctx *gin.Context, code int, message string) {
	ctx.JSON(code, gin.H{"status": "error", "message": message})
}

// parsePayload enforces the JSON content type and the presence of every
// viewer position key, mirroring the strictness of the client protocol.
func parsePayload(ctx *gin.Context) (service.BookmarkRequest, bool) {
	var req service.BookmarkRequest
	if !strings.HasPrefix(ctx.ContentType(), "application/json") {
		bookmarkError(ctx, http.StatusBadRequest, "JSON body expected")
		return req, false
	}
	var raw map[string]interface{}
	if err := ctx.ShouldBindJSON(&raw); err != nil {
		bookmarkError(ctx, http.StatusBadRequest, "malformed JSON")
		return req, false
	}
	for _, key := range []string{"slideid", "text", "centerx", "centery", "zoom"} {
		if _, ok := raw[key]; !ok {
			bookmarkError(ctx, http.StatusBadRequest, "KeyError: '"+key+"'")
			return req, false
		}
	}
	slideID, ok := raw["slideid"].(float64)
	if !ok {
		bookmarkError(ctx, http.StatusBadRequest, "slideid must be a number")
		return req, false
	}
	text, ok := raw["text"].(string)
	if !ok || text == "" {
		bookmarkError(ctx, http.StatusBadRequest, "text must be a non-empty string")
		return req, false
	}
	centerX, _ := raw["centerx"].(float64)
	centerY, _ := raw["centery"].(float64)
	zoom, _ := raw["zoom"].(float64)
	order, _ := raw["order"].(float64)

	req = service.BookmarkRequest{
		SlideID: uint(slideID),
		Text:    text,
		CenterX: centerX,
		CenterY: centerY,
		Zoom:    zoom,
		Order:   int(order),
	}
	return req, true
}

func (c *BookmarkController) isCaseAdmin(ctx *gin.Context, caseID uint) (*model.Case, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return nil, false
	}
	cs, err := c.CaseService.Cases.FindByID(caseID)
	if err != nil || cs.CaseList == nil {
		return nil, false
	}
	return cs, c.CaseListService.IsAdmin(claims.UserID, claims.IsStaff, cs.CaseList)
}

// SaveCaseBookmark godoc
// @Summary Save a viewer position on a case
// @Tags bookmarks
// @Accept json
// @Produce json
// @Param id path int true "case id"
// @Success 200 {object} map[string]interface{}
// @Router /cases/{id}/bookmarks [post]
func (c *BookmarkController) SaveCaseBookmark(ctx *gin.Context) {
	// Protocol errors are rejected before touching the database.
	req, ok := parsePayload(ctx)
	if !ok {
		return
	}
	caseID := util.MustParseUint(ctx.Param("id"))
	if _, ok := c.isCaseAdmin(ctx, caseID); !ok {
		bookmarkError(ctx, http.StatusForbidden, "not allowed")
		return
	}
	bm, err := c.BookmarkService.SaveCaseBookmark(caseID, req)
	if err != nil {
		bookmarkError(ctx, http.StatusInternalServerError, "could not save bookmark")
		return
	}
	bookmarkOK(ctx, gin.H{"id": bm.ID})
}

// GetCaseBookmark godoc
// @Summary Fetch a stored case viewer position
// @Tags bookmarks
// @Produce json
// @Param id path int true "bookmark id"
// @Success 200 {object} map[string]interface{}
// @Router /bookmarks/case/{id} [get]
func (c *BookmarkController) GetCaseBookmark(ctx *gin.Context) {
	bm, err := c.BookmarkService.GetCaseBookmark(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		} else {
			bookmarkError(ctx, http.StatusInternalServerError, "could not load bookmark")
		}
		return
	}
	bookmarkOK(ctx, gin.H{
		"id":      bm.ID,
		"slideid": bm.SlideID,
		"text":    bm.Text,
		"centerx": bm.CenterX,
		"centery": bm.CenterY,
		"zoom":    bm.Zoom,
		"order":   bm.Order,
	})
}

// DeleteCaseBookmark godoc
// @Summary Delete a case viewer position
// @Tags bookmarks
// @Produce json
// @Param id path int true "bookmark id"
// @Success 200 {object} map[string]interface{}
// @Router /bookmarks/case/{id} [delete]
func (c *BookmarkController) DeleteCaseBookmark(ctx *gin.Context) {
	bm, err := c.BookmarkService.GetCaseBookmark(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		return
	}
	if _, ok := c.isCaseAdmin(ctx, bm.CaseID); !ok {
		// Non-admins get the same reply as for a missing bookmark.
		bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		return
	}
	if err := c.BookmarkService.DeleteCaseBookmark(bm.ID); err != nil {
		bookmarkError(ctx, http.StatusInternalServerError, "could not delete bookmark")
		return
	}
	bookmarkOK(ctx, nil)
}

func (c *BookmarkController) isQuestionAdmin(ctx *gin.Context, questionID uint) bool {
	q, err := c.CaseService.Questions.FindByID(questionID)
	if err != nil {
		return false
	}
	_, ok := c.isCaseAdmin(ctx, q.CaseID)
	return ok
}

// SaveQuestionBookmark godoc
// @Summary Save a viewer position on a question
// @Tags bookmarks
// @Accept json
// @Produce json
// @Param id path int true "question id"
// @Success 200 {object} map[string]interface{}
// @Router /questions/{id}/bookmarks [post]
func (c *BookmarkController) SaveQuestionBookmark(ctx *gin.Context) {
	req, ok := parsePayload(ctx)
	if !ok {
		return
	}
	questionID := util.MustParseUint(ctx.Param("id"))
	if !c.isQuestionAdmin(ctx, questionID) {
		bookmarkError(ctx, http.StatusForbidden, "not allowed")
		return
	}
	bm, err := c.BookmarkService.SaveQuestionBookmark(questionID, req)
	if err != nil {
		bookmarkError(ctx, http.StatusInternalServerError, "could not save bookmark")
		return
	}
	bookmarkOK(ctx, gin.H{"id": bm.ID})
}

// GetQuestionBookmark godoc
// @Summary Fetch a stored question viewer position
// @Tags bookmarks
// @Produce json
// @Param id path int true "bookmark id"
// @Success 200 {object} map[string]interface{}
// @Router /bookmarks/question/{id} [get]
func (c *BookmarkController) GetQuestionBookmark(ctx *gin.Context) {
	bm, err := c.BookmarkService.GetQuestionBookmark(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		} else {
			bookmarkError(ctx, http.StatusInternalServerError, "could not load bookmark")
		}
		return
	}
	bookmarkOK(ctx, gin.H{
		"id":      bm.ID,
		"slideid": bm.SlideID,
		"text":    bm.Text,
		"centerx": bm.CenterX,
		"centery": bm.CenterY,
		"zoom":    bm.Zoom,
		"order":   bm.Order,
	})
}

// DeleteQuestionBookmark godoc
// @Summary Delete a question viewer position
// @Tags bookmarks
// @Produce json
// @Param id path int true "bookmark id"
// @Success 200 {object} map[string]interface{}
// @Router /bookmarks/question/{id} [delete]
func (c *BookmarkController) DeleteQuestionBookmark(ctx *gin.Context) {
	bm, err := c.BookmarkService.GetQuestionBookmark(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		return
	}
	if !c.isQuestionAdmin(ctx, bm.QuestionID) {
		bookmarkError(ctx, http.StatusNotFound, "unknown bookmark")
		return
	}
	if err := c.BookmarkService.DeleteQuestionBookmark(bm.ID); err != nil {
		bookmarkError(ctx, http.StatusInternalServerError, "could not delete bookmark")
		return
	}
	bookmarkOK(ctx, nil)
}
