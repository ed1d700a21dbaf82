package controller

import (
	"errors"

	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/service"
	"slidereview_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
	Users       *repository.UserRepository
}

func NewAuthController(authService *service.AuthService, users *repository.UserRepository) *AuthController {
	return &AuthController{AuthService: authService, Users: users}
}

// Register godoc
// @Summary Register a new observer account
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.RegisterRequest true "registration data"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req service.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			util.Error(ctx, 409, "username already taken")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID, "username": user.Username})
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Log in and receive a token
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "credentials"
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.DisplayName(),
			"isStaff":  user.IsStaff,
		},
	})
}

// GetProfile godoc
// @Summary Current observer profile
// @Tags auth
// @Produce json
// @Success 200 {object} util.Response
// @Failure 401 {object} util.Response
// @Router /profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	user, err := c.Users.FindByID(claims.UserID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"email":       user.Email,
		"isStaff":     user.IsStaff,
		"isAnonymous": user.IsAnonymous,
		"lastSeen":    user.LastSeen,
	})
}
