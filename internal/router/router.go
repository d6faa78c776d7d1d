package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vssut/academia-backend/internal/config"
	"github.com/vssut/academia-backend/internal/handler"
	"github.com/vssut/academia-backend/internal/middleware"
	"github.com/vssut/academia-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam    *handler.ExamHandler
	Attempt *handler.AttemptHandler
	Monitor *handler.MonitorHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to leave attempt transitions unthrottled.
func SetupRouter(handlers *Handlers, limiter *middleware.RateLimiter, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.GET("/health", handlers.Health.Health)

	// ─── Exams ─────────────────────────────────────────────────────────
	exams := router.Group("/api/exams")
	exams.Use(middleware.NoStore())
	{
		exams.GET("", handlers.Exam.ListExams)
		exams.POST("", handlers.Exam.CreateExam)
		exams.GET("/:examId", handlers.Exam.GetExam)
		exams.DELETE("/:examId", handlers.Exam.DeleteExam)
		exams.GET("/:examId/lock-events", handlers.Attempt.LockEvents)
		exams.GET("/results/:examId", handlers.Attempt.Results)

		// ─── Attempt ledger ────────────────────────────────────────────
		attempts := exams.Group("")
		if limiter != nil {
			attempts.Use(limiter.Middleware())
		}
		{
			attempts.POST("/status", handlers.Attempt.Status)
			attempts.POST("/start", handlers.Attempt.Start)
			attempts.POST("/submit", handlers.Attempt.Submit)
			attempts.POST("/lock", handlers.Attempt.Lock)
			attempts.POST("/reset", handlers.Attempt.Reset)
		}
	}

	// ─── WebSocket ─────────────────────────────────────────────────────
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/exams/:examId/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
