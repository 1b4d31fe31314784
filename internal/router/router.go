package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/gradebook-backend/internal/config"
	"github.com/stemsi/gradebook-backend/internal/handler"
	"github.com/stemsi/gradebook-backend/internal/middleware"
	"github.com/stemsi/gradebook-backend/internal/response"
	"github.com/stemsi/gradebook-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Course     *handler.CourseHandler
	Professor  *handler.ProfessorHandler
	Student    *handler.StudentHandler
	Discipline *handler.DisciplineHandler
	Enrollment *handler.EnrollmentHandler
	Grade      *handler.GradeHandler
	Audit      *handler.AuditHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// When cfg.AuthEnabled is set, every mutating route and the audit trail
// require an operator JWT; reads stay open.
func SetupRouter(
	authService *service.AuthService,
	loginLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID, "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the request logger and error paths see it.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	api := router.Group("/api/v1")
	api.GET("/health", handlers.System.Health)

	// ─── Auth (public, rate limited) ───────────────────────────────────
	auth := api.Group("/auth")
	{
		login := []gin.HandlerFunc{handlers.Auth.Login}
		if loginLimiter != nil {
			login = append([]gin.HandlerFunc{loginLimiter.Middleware()}, login...)
		}
		auth.POST("/login", login...)
		auth.GET("/me", middleware.RequireOperator(authService), handlers.Auth.Me)
	}

	read := api.Group("")
	write := api.Group("")
	if cfg.AuthEnabled {
		write.Use(middleware.RequireOperator(authService))
	}

	// ─── Courses ───────────────────────────────────────────────────────
	read.GET("/courses", handlers.Course.List)
	read.GET("/courses/:id", handlers.Course.Get)
	write.POST("/courses", handlers.Course.Create)
	write.PUT("/courses/:id", handlers.Course.Update)
	write.DELETE("/courses/:id", handlers.Course.Delete)

	// ─── Professors ────────────────────────────────────────────────────
	read.GET("/professors", handlers.Professor.List)
	read.GET("/professors/:id", handlers.Professor.Get)
	write.POST("/professors", handlers.Professor.Create)
	write.PUT("/professors/:id", handlers.Professor.Update)
	write.DELETE("/professors/:id", handlers.Professor.Delete)

	// ─── Students ──────────────────────────────────────────────────────
	read.GET("/students", handlers.Student.List)
	read.GET("/students/:id", handlers.Student.Get)
	write.POST("/students", handlers.Student.Create)
	write.PUT("/students/:id", handlers.Student.Update)
	write.DELETE("/students/:id", handlers.Student.Delete)

	// ─── Disciplines ───────────────────────────────────────────────────
	read.GET("/disciplines", handlers.Discipline.List)
	read.GET("/disciplines/:id", handlers.Discipline.Get)
	read.GET("/disciplines/:id/grades/export", handlers.Discipline.ExportGrades)
	write.POST("/disciplines", handlers.Discipline.Create)
	write.PUT("/disciplines/:id", handlers.Discipline.Update)
	write.DELETE("/disciplines/:id", handlers.Discipline.Delete)
	write.POST("/disciplines/:id/students/:student_id", handlers.Discipline.Enroll)
	write.DELETE("/disciplines/:id/students/:student_id", handlers.Discipline.Unenroll)

	// ─── Enrollments ───────────────────────────────────────────────────
	read.GET("/enrollments", handlers.Enrollment.List)
	write.POST("/enrollments", handlers.Enrollment.Create)
	write.DELETE("/enrollments/disciplines/:discipline_id/students/:student_id", handlers.Enrollment.Delete)

	// ─── Grades ────────────────────────────────────────────────────────
	read.GET("/grades", handlers.Grade.List)
	read.GET("/grades/:id", handlers.Grade.Get)
	write.POST("/grades", handlers.Grade.Create)
	write.PUT("/grades/:id", handlers.Grade.Update)
	write.DELETE("/grades/:id", handlers.Grade.Delete)

	// ─── Audit trail ───────────────────────────────────────────────────
	write.GET("/audit-logs", handlers.Audit.List)

	return router
}
