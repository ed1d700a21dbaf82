package middleware

import (
	"strings"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/service"
	"slidereview_backend/internal/util"
	"slidereview_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return c.Query("token")
}

// AuthMiddleware requires a valid bearer token and stores its claims under
// "user".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		cfg := c.MustGet("config").(*config.Config)
		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("token rejected", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

// TryAuthMiddleware parses a bearer token when present but never rejects
// the request. Public endpoints use it so registered observers are
// recognized while anonymous ones pass through.
func TryAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := tokenFromRequest(c); tokenString != "" {
			cfg := c.MustGet("config").(*config.Config)
			if claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret); err == nil {
				c.Set("user", claims)
			}
		}
		c.Next()
	}
}

// StaffMiddleware restricts a route to site staff.
func StaffMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !user.IsStaff {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionMiddleware resolves an anonymous observer from the session cookie
// when no authenticated user is present, minting a token cookie on first
// contact. The resolved shadow user is exposed through the same "user"
// claims as a registered one.
func SessionMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if util.GetUserFromContext(c) != nil {
			c.Next()
			return
		}

		cfg := c.MustGet("config").(*config.Config)
		token, err := c.Cookie(cfg.Session.CookieName)
		if err != nil || token == "" {
			token = sessions.NewToken()
			c.SetCookie(cfg.Session.CookieName, token, cfg.Session.MaxAge, "/", "", false, true)
		}

		user, err := sessions.ResolveUser(c.Request.Context(), token)
		if err != nil {
			logger.Log.Warn("anonymous session rejected", zap.Error(err))
			c.Next()
			return
		}
		c.Set("user", &util.Claims{UserID: user.ID, Username: user.Username})
		c.Next()
	}
}

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware records when an observer was last seen. The update is
// asynchronous so it never blocks the request.
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := util.GetUserFromContext(c); claims != nil {
			go repo.UpdateLastSeen(claims.UserID)
		}
		c.Next()
	}
}

// ConfigMiddleware exposes the loaded configuration to downstream handlers.
func ConfigMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	}
}
