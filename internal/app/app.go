package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slidereview_backend/internal/config"
	"slidereview_backend/internal/controller"
	"slidereview_backend/internal/repository"
	"slidereview_backend/internal/service"
	"slidereview_backend/pkg/database"
	"slidereview_backend/pkg/logger"
	"slidereview_backend/pkg/monitoring"
	"slidereview_backend/pkg/security"
	"slidereview_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user     *repository.UserRepository
	caseList *repository.CaseListRepository
	cases    *repository.CaseRepository
	question *repository.QuestionRepository
	instance *repository.InstanceRepository
	bookmark *repository.BookmarkRepository
}

type services struct {
	auth          *service.AuthService
	session       *service.SessionService
	mail          *service.MailService
	caseList      *service.CaseListService
	cases         *service.CaseService
	questionnaire *service.QuestionnaireService
	report        *service.ReportService
	bookmark      *service.BookmarkService
}

type controllers struct {
	auth     *controller.AuthController
	caseList *controller.CaseListController
	cases    *controller.CaseController
	bookmark *controller.BookmarkController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		caseList: repository.NewCaseListRepository(db),
		cases:    repository.NewCaseRepository(db),
		question: repository.NewQuestionRepository(db),
		instance: repository.NewInstanceRepository(db),
		bookmark: repository.NewBookmarkRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg.JWT)
	s.session = service.NewSessionService(repos.user, rdb, time.Duration(cfg.Session.MaxAge)*time.Second)
	s.mail = service.NewMailService(cfg.Mail, cfg.Server.BaseURL, logger.Log)
	s.caseList = service.NewCaseListService(repos.caseList, repos.cases, repos.instance, repos.user, s.mail, db)
	s.cases = service.NewCaseService(repos.cases, repos.question, repos.instance, db)
	s.questionnaire = service.NewQuestionnaireService(repos.question, repos.instance, repos.bookmark, db)
	s.report = service.NewReportService(repos.cases, repos.question, repos.instance)
	s.bookmark = service.NewBookmarkService(repos.bookmark)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth, repos.user),
		caseList: controller.NewCaseListController(s.caseList, s.cases),
		cases:    controller.NewCaseController(s.cases, s.caseList, s.questionnaire, s.report, s.bookmark),
		bookmark: controller.NewBookmarkController(s.bookmark, s.cases, s.caseList),
		health:   controller.NewHealthController(db, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Anonymous session claims fall back to the database unique
		// index when redis is unavailable.
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, repos, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("slide-review", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, services, repos, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
