package service

import (
	"errors"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

type AuthService struct {
	Users *repository.UserRepository
	cfg   config.JWTConfig
}

func NewAuthService(users *repository.UserRepository, cfg config.JWTConfig) *AuthService {
	return &AuthService{Users: users, cfg: cfg}
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=30"`
	Password  string `json:"password" binding:"required,min=8"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (s *AuthService) Register(req RegisterRequest) (*model.User, error) {
	if _, err := s.Users.FindByUsername(req.Username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:  req.Username,
		Password:  string(hash),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		LastSeen:  time.Now(),
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token.
func (s *AuthService) Login(username, password string) (string, *model.User, error) {
	user, err := s.Users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if user.IsAnonymous {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := util.GenerateJWT(user, s.cfg.Secret, s.cfg.ExpireTime)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}
