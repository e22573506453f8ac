package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/ujianku-backend/internal/config"
	"github.com/stemsi/ujianku-backend/internal/handler"
	"github.com/stemsi/ujianku-backend/internal/middleware"
	"github.com/stemsi/ujianku-backend/internal/response"
	"github.com/stemsi/ujianku-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Practice *handler.PracticeHandler
	Exam     *handler.ExamHandler
	User     *handler.UserHandler
	Admin    *handler.AdminHandler
	Question *handler.QuestionHandler
	Setting  *handler.SettingHandler
}

// Services groups the services the middleware chain needs directly.
type Services struct {
	Auth *service.AuthService
	User *service.UserService
	Exam *service.ExamService
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(services *Services, handlers *Handlers, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// The exam guard runs before any route group: a machine with a running
	// exam is locked into the exam surface, whichever account is active.
	router.Use(middleware.ExamGuard(services.User, services.Exam, rdb, log))

	// Static frontend assets with aggressive caching.
	staticGroup := router.Group("/static")
	staticGroup.Use(middleware.CacheControl(86400))
	{
		staticGroup.Static("/", cfg.StaticDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.StudentLogin)
		auth.POST("/logout", handlers.Auth.StudentLogout)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		auth.GET("/me", middleware.RequireStudent(services.User), handlers.Auth.Me)
		auth.POST("/admin/logout", middleware.RequireAdminJWT(services.Auth), handlers.Auth.AdminLogout)
	}

	// ─── 2. Student Practice Group ─────────────────────────────────────
	practiceAPI := router.Group("/api/practice")
	practiceAPI.Use(middleware.RequireStudent(services.User))
	{
		practiceAPI.GET("/question", handlers.Practice.NextQuestion)
		practiceAPI.GET("/stats", handlers.Practice.Stats)
		practiceAPI.POST("/answer", handlers.Practice.SubmitAnswer)
	}

	// ─── 3. Student Exam Group ─────────────────────────────────────────
	examAPI := router.Group("/api/exam")
	examAPI.Use(middleware.RequireStudent(services.User))
	{
		examAPI.GET("/config", handlers.Exam.Config)
		examAPI.GET("/ongoing", handlers.Exam.Ongoing)
		examAPI.POST("/start", handlers.Exam.Start)
		examAPI.GET("/history", handlers.Exam.History)
		examAPI.GET("/:examId/questions", handlers.Exam.Questions)
		examAPI.POST("/:examId/questions/:questionId/answer", handlers.Exam.SubmitAnswer)
		examAPI.GET("/:examId/detail", handlers.Exam.Detail)
	}

	// ─── 4. Student Dashboard Group ────────────────────────────────────
	userAPI := router.Group("/api/user")
	userAPI.Use(middleware.RequireStudent(services.User))
	{
		userAPI.GET("/stats", handlers.User.Stats)
	}

	// ─── 5. Admin Group (JWT + Session) ────────────────────────────────
	adminAPI := router.Group("/api/admin")
	adminAPI.Use(middleware.RequireAdminJWT(services.Auth))
	{
		adminAPI.GET("/users", handlers.Admin.ListProgress)
		adminAPI.GET("/users/export", handlers.Admin.ExportProgress)
		adminAPI.GET("/users/:studentId", handlers.Admin.GetUser)
		adminAPI.PUT("/users/:studentId/permissions/ai", handlers.Admin.SetAIPermission)
		adminAPI.PUT("/users/:studentId/permissions/exam", handlers.Admin.SetExamPermission)
		adminAPI.DELETE("/users/:studentId/binding", handlers.Admin.UnbindIP)
		adminAPI.DELETE("/users/:studentId", handlers.Admin.DeleteUser)

		adminAPI.GET("/questions", handlers.Question.List)
		adminAPI.GET("/questions/:questionId", handlers.Question.Get)
		adminAPI.PUT("/questions/:questionId", handlers.Question.Upsert)
		adminAPI.DELETE("/questions/:questionId", handlers.Question.Delete)

		adminAPI.GET("/settings", handlers.Setting.List)
		adminAPI.PUT("/settings", handlers.Setting.Update)

		adminAPI.GET("/exams/:examId", handlers.Admin.ExamDetail)
		adminAPI.POST("/exams/:examId/submit", handlers.Admin.ForceSubmitExam)
		adminAPI.POST("/exams/submit-all", handlers.Admin.ForceSubmitAllExams)
	}

	return router
}
