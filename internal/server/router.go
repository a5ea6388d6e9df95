package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-backend/internal/handlers"
	"github.com/learnhub/learnhub-backend/internal/middleware"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type RouterConfig struct {
	AuthMiddleware    *middleware.AuthMiddleware
	AuthHandler       *handlers.AuthHandler
	CourseHandler     *handlers.CourseHandler
	EnrollmentHandler *handlers.EnrollmentHandler
	ProgressHandler   *handlers.ProgressHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")

	// Public
	api.POST("/auth/register", cfg.AuthHandler.Register)
	api.POST("/auth/login", cfg.AuthHandler.Login)
	api.GET("/courses", cfg.CourseHandler.ListCourses)
	api.GET("/courses/:id", cfg.CourseHandler.GetCourse)

	// Protected
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	protected.GET("/auth/profile", cfg.AuthHandler.Profile)

	// Catalog mutation, instructor only
	instructor := protected.Group("/")
	instructor.Use(cfg.AuthMiddleware.RequireRole(types.RoleInstructor))
	instructor.POST("/courses", cfg.CourseHandler.CreateCourse)
	instructor.PATCH("/courses/:id", cfg.CourseHandler.UpdateCourse)
	instructor.DELETE("/courses/:id", cfg.CourseHandler.DeleteCourse)
	instructor.POST("/courses/:id/modules", cfg.CourseHandler.AddModule)
	instructor.PATCH("/courses/modules/:moduleId", cfg.CourseHandler.UpdateModule)
	instructor.DELETE("/courses/modules/:moduleId", cfg.CourseHandler.DeleteModule)

	// Enrollment + progress
	protected.POST("/enrollments/courses/:courseId", cfg.EnrollmentHandler.Enroll)
	protected.GET("/enrollments/my-courses", cfg.EnrollmentHandler.ListMyEnrollments)
	protected.GET("/enrollments/:id/progress", cfg.EnrollmentHandler.GetEnrollmentProgress)
	protected.PATCH("/progress/:enrollmentId/modules/:moduleId", cfg.ProgressHandler.UpdateProgress)
	protected.GET("/progress/:enrollmentId/modules/:moduleId", cfg.ProgressHandler.GetModuleProgress)

	return router
}
