package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"slidereview_backend/internal/model"
	"slidereview_backend/internal/repository"
	"slidereview_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionService maps anonymous observer tokens to shadow user records so
// publicly visible case lists can track progress without registration. The
// token travels in a cookie; redis pins token to user id so concurrent
// first requests agree on one identity.
type SessionService struct {
	Users  *repository.UserRepository
	Redis  *redis.Client
	MaxAge time.Duration
}

func NewSessionService(users *repository.UserRepository, rdb *redis.Client, maxAge time.Duration) *SessionService {
	return &SessionService{Users: users, Redis: rdb, MaxAge: maxAge}
}

// NewToken mints a fresh anonymous session token.
func (s *SessionService) NewToken() string {
	return uuid.New().String()
}

// ResolveUser returns the shadow user for an anonymous token, creating it
// on first sight. The redis claim makes creation race free; without redis
// the database unique index on username is the fallback arbiter.
func (s *SessionService) ResolveUser(ctx context.Context, token string) (*model.User, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, fmt.Errorf("malformed session token: %w", err)
	}
	username := "anon-" + token

	if s.Redis != nil {
		key := "session:anon:" + token
		claimed, err := s.Redis.SetNX(ctx, key, "1", s.MaxAge).Result()
		if err == nil && !claimed {
			// Another request created the user already.
			if user, err := s.Users.FindByUsername(username); err == nil {
				return user, nil
			}
		}
	}

	user, err := s.Users.FindByUsername(username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = &model.User{
		Username:    username,
		FirstName:   "Anonymous",
		LastName:    "Observer",
		IsAnonymous: true,
		LastSeen:    time.Now(),
	}
	if err := s.Users.Create(user); err != nil {
		// Lost the race against another request holding the same token.
		if existing, ferr := s.Users.FindByUsername(username); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	monitoring.AnonymousSessionCounter.Inc()
	return user, nil
}
