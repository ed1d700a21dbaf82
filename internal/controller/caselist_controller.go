package controller

import (
	"errors"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/service"
	"slidereview_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseListController struct {
	CaseListService *service.CaseListService
	Cases           *service.CaseService
}

func NewCaseListController(caseListService *service.CaseListService, cases *service.CaseService) *CaseListController {
	return &CaseListController{CaseListService: caseListService, Cases: cases}
}

// find loads a case list by slug, replying 404 when it does not exist.
func (c *CaseListController) find(ctx *gin.Context) (*model.CaseList, bool) {
	cl, err := c.CaseListService.CaseLists.FindBySlug(ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return nil, false
	}
	return cl, true
}

// requireAdmin replies 403 unless the requester owns the list or is staff.
func (c *CaseListController) requireAdmin(ctx *gin.Context, cl *model.CaseList) bool {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return false
	}
	if !c.CaseListService.IsAdmin(claims.UserID, claims.IsStaff, cl) {
		util.Forbidden(ctx)
		return false
	}
	return true
}

// List godoc
// @Summary Case lists visible to the requester
// @Tags caselists
// @Produce json
// @Success 200 {object} util.Response
// @Router /caselists [get]
func (c *CaseListController) List(ctx *gin.Context) {
	visible, err := c.CaseListService.CaseLists.ListVisible()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	type entry struct {
		CaseList   model.CaseList           `json:"caseList"`
		Status     model.UserCaseListStatus `json:"status"`
		Evaluation string                   `json:"evaluation,omitempty"`
	}
	seen := make(map[uint]bool)
	entries := []entry{}

	if claims := util.GetUserFromContext(ctx); claims != nil {
		memberships, err := c.CaseListService.CaseLists.ListForUser(claims.UserID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		for _, m := range memberships {
			if m.CaseList == nil {
				continue
			}
			e := entry{CaseList: *m.CaseList, Status: m.Status}
			if m.CaseList.Type == model.Examination {
				e.Evaluation, _ = c.CaseListService.Evaluation(m.CaseList, claims.UserID)
			}
			entries = append(entries, e)
			seen[m.CaseListID] = true
		}
	}
	for _, cl := range visible {
		if !seen[cl.ID] {
			entries = append(entries, entry{CaseList: cl, Status: model.MemberNone})
		}
	}

	util.Success(ctx, gin.H{"caseLists": entries})
}

// Create godoc
// @Summary Create a case list
// @Tags caselists
// @Accept json
// @Produce json
// @Param body body service.CaseListRequest true "case list data"
// @Success 201 {object} util.Response
// @Router /caselists [post]
func (c *CaseListController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CaseListRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	cl, err := c.CaseListService.Create(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, cl)
}

// Get godoc
// @Summary Case list detail with the requester's progress
// @Tags caselists
// @Produce json
// @Param slug path string true "case list slug"
// @Success 200 {object} util.Response
// @Router /caselists/{slug} [get]
func (c *CaseListController) Get(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)

	status := model.MemberNone
	isAdmin := false
	if claims != nil {
		status = c.CaseListService.MembershipStatus(claims.UserID, cl.ID)
		isAdmin = c.CaseListService.IsAdmin(claims.UserID, claims.IsStaff, cl)
	}
	if !cl.VisibleForNonUsers && status == model.MemberNone && !isAdmin {
		util.NotFound(ctx)
		return
	}

	resp := gin.H{
		"caseList": cl,
		"status":   status,
		"isAdmin":  isAdmin,
		"active":   cl.IsActive(),
	}
	if claims != nil && (status == model.MemberActive || status == model.MemberComplete) {
		counts, err := c.CaseListService.Counts(cl, claims.UserID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp["counts"] = counts
		if cl.Type == model.Examination {
			eval, err := c.CaseListService.Evaluation(cl, claims.UserID)
			if err != nil {
				util.LogInternalError(ctx, err)
				return
			}
			resp["evaluation"] = eval
		}
	}
	if isAdmin {
		cases, err := c.CaseListService.Cases.ListByCaseList(cl.ID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resp["cases"] = cases
	}
	util.Success(ctx, resp)
}

// Update godoc
// @Summary Update a case list
// @Tags caselists
// @Accept json
// @Produce json
// @Param slug path string true "case list slug"
// @Success 200 {object} util.Response
// @Router /caselists/{slug} [put]
func (c *CaseListController) Update(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	var req service.CaseListRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err := c.CaseListService.Update(cl, req); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, cl)
}

// Apply godoc
// @Summary Apply for membership of an open case list
// @Tags caselists
// @Produce json
// @Param slug path string true "case list slug"
// @Success 201 {object} util.Response
// @Router /caselists/{slug}/apply [post]
func (c *CaseListController) Apply(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	ucl, err := c.CaseListService.Apply(claims.UserID, cl)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrMembershipExists):
			util.Error(ctx, 409, "already a member")
		case errors.Is(err, util.ErrCaseListClosed):
			util.Error(ctx, 403, "case list is closed")
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, gin.H{"status": ucl.Status})
}

// NextCase godoc
// @Summary Next case to review on this list
// @Tags caselists
// @Produce json
// @Param slug path string true "case list slug"
// @Success 200 {object} util.Response
// @Router /caselists/{slug}/next [get]
func (c *CaseListController) NextCase(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	if !cl.IsActive() {
		util.Error(ctx, 403, "case list is closed")
		return
	}

	status := c.CaseListService.MembershipStatus(claims.UserID, cl.ID)
	if status == model.MemberNone && cl.VisibleForNonUsers {
		// Anonymous and walk-in observers are enrolled on first contact.
		if err := c.CaseListService.EnsureActiveMembership(claims.UserID, cl); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		status = model.MemberActive
	}
	if status != model.MemberActive && status != model.MemberComplete {
		util.Forbidden(ctx)
		return
	}

	caseID, found, err := c.CaseListService.NextCase(cl, claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if !found {
		util.Success(ctx, gin.H{"done": true})
		return
	}
	util.Success(ctx, gin.H{"done": false, "caseId": caseID})
}

// Users godoc
// @Summary Member overview with progress and evaluation
// @Tags caselists
// @Produce json
// @Param slug path string true "case list slug"
// @Success 200 {object} util.Response
// @Router /caselists/{slug}/users [get]
func (c *CaseListController) Users(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	members, err := c.CaseListService.CaseLists.ListMembers(cl.ID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	type memberEntry struct {
		MembershipID uint                     `json:"membershipId"`
		UserID       uint                     `json:"userId"`
		Name         string                   `json:"name"`
		Status       model.UserCaseListStatus `json:"status"`
		Counts       *service.CaseCounts      `json:"counts"`
		Evaluation   string                   `json:"evaluation,omitempty"`
	}
	entries := make([]memberEntry, 0, len(members))
	for _, m := range members {
		e := memberEntry{MembershipID: m.ID, UserID: m.UserID, Status: m.Status}
		if m.User != nil {
			e.Name = m.User.DisplayName()
		}
		counts, err := c.CaseListService.Counts(cl, m.UserID)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		e.Counts = counts
		e.Evaluation, _ = c.CaseListService.Evaluation(cl, m.UserID)
		entries = append(entries, e)
	}
	util.Success(ctx, gin.H{"members": entries})
}

// ActivateMember godoc
// @Summary Approve a pending membership
// @Tags caselists
// @Produce json
// @Success 200 {object} util.Response
// @Router /caselists/{slug}/members/{id}/activate [post]
func (c *CaseListController) ActivateMember(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	if err := c.CaseListService.ActivateMember(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrNotMember) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"activated": true})
}

// RemindMember godoc
// @Summary Send the reminder mail to a member
// @Tags caselists
// @Produce json
// @Success 200 {object} util.Response
// @Router /caselists/{slug}/members/{id}/remind [post]
func (c *CaseListController) RemindMember(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	if err := c.CaseListService.SendReminder(util.MustParseUint(ctx.Param("id"))); err != nil {
		if errors.Is(err, util.ErrNotMember) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"reminded": true})
}

// PurgeAnonymous godoc
// @Summary Delete anonymous members without any completed case
// @Tags caselists
// @Produce json
// @Success 200 {object} util.Response
// @Router /caselists/{slug}/anonymous [delete]
func (c *CaseListController) PurgeAnonymous(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	if err := c.CaseListService.DeleteInactiveAnonymous(cl); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"purged": true})
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// Invite godoc
// @Summary Invite an observer by mail
// @Tags caselists
// @Accept json
// @Produce json
// @Success 201 {object} util.Response
// @Router /caselists/{slug}/invitations [post]
func (c *CaseListController) Invite(ctx *gin.Context) {
	cl, ok := c.find(ctx)
	if !ok {
		return
	}
	if !c.requireAdmin(ctx, cl) {
		return
	}
	var req InviteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	inv, err := c.CaseListService.Invite(cl, req.Email, uuid.New().String())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, gin.H{"key": inv.Key})
}

// AcceptInvitation godoc
// @Summary Accept an invitation key
// @Tags caselists
// @Produce json
// @Param key path string true "invitation key"
// @Success 200 {object} util.Response
// @Router /invitations/{key}/accept [post]
func (c *CaseListController) AcceptInvitation(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	ucl, err := c.CaseListService.AcceptInvitation(ctx.Param("key"), claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvitationUsed):
			util.Error(ctx, 409, "invitation already used")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"caseListId": ucl.CaseListID, "status": ucl.Status})
}
