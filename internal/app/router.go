package app

import (
	"slidereview_backend/docs"
	"slidereview_backend/internal/config"
	"slidereview_backend/internal/middleware"
	"slidereview_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services, repos *repositories, cfg *config.Config) {
	router.Use(middleware.ConfigMiddleware(cfg))

	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// Public routes, no login needed.
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// Review routes: registered observers are recognized by token,
	// everyone else gets an anonymous session so publicly visible lists
	// work without an account.
	review := router.Group("/api")
	review.Use(
		middleware.TryAuthMiddleware(),
		middleware.SessionMiddleware(s.session),
		middleware.ActivityMiddleware(repos.user),
	)
	{
		review.GET("/caselists", c.caseList.List)
		review.GET("/caselists/:slug", c.caseList.Get)
		review.GET("/caselists/:slug/next", c.caseList.NextCase)
		review.GET("/cases/:id", c.cases.Get)
		review.POST("/cases/:id/submit", c.cases.Submit)
		review.GET("/cases/:id/evaluation", c.cases.Evaluation)
		review.GET("/bookmarks/case/:id", c.bookmark.GetCaseBookmark)
		review.GET("/bookmarks/question/:id", c.bookmark.GetQuestionBookmark)
	}

	// Routes that require a registered account.
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)
		authGroup.POST("/caselists", c.caseList.Create)
		authGroup.PUT("/caselists/:slug", c.caseList.Update)
		authGroup.POST("/caselists/:slug/apply", c.caseList.Apply)
		authGroup.POST("/invitations/:key/accept", c.caseList.AcceptInvitation)

		// Case list administration, permission checked per list.
		authGroup.GET("/caselists/:slug/users", c.caseList.Users)
		authGroup.POST("/caselists/:slug/members/:id/activate", c.caseList.ActivateMember)
		authGroup.POST("/caselists/:slug/members/:id/remind", c.caseList.RemindMember)
		authGroup.DELETE("/caselists/:slug/anonymous", c.caseList.PurgeAnonymous)
		authGroup.POST("/caselists/:slug/invitations", c.caseList.Invite)

		// Case authoring.
		authGroup.POST("/caselists/:slug/cases", c.cases.Create)
		authGroup.PUT("/cases/:id", c.cases.Update)
		authGroup.DELETE("/cases/:id", c.cases.Delete)
		authGroup.POST("/cases/:id/copy", c.cases.Copy)
		authGroup.POST("/cases/:id/questions", c.cases.AddQuestion)
		authGroup.DELETE("/cases/:id/questions/:questionId", c.cases.DeleteQuestion)
		authGroup.GET("/cases/:id/report", c.cases.Report)
		authGroup.POST("/cases/:id/skip/:userId", c.cases.SkipForUser)
		authGroup.DELETE("/instances/:id", c.cases.DeleteInstance)

		// Viewer bookmarks.
		authGroup.POST("/cases/:id/bookmarks", c.bookmark.SaveCaseBookmark)
		authGroup.DELETE("/bookmarks/case/:id", c.bookmark.DeleteCaseBookmark)
		authGroup.POST("/questions/:id/bookmarks", c.bookmark.SaveQuestionBookmark)
		authGroup.DELETE("/bookmarks/question/:id", c.bookmark.DeleteQuestionBookmark)
	}
}
