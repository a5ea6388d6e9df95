package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/learnhub/learnhub-backend/internal/db"
	"github.com/learnhub/learnhub-backend/internal/envutil"
	"github.com/learnhub/learnhub-backend/internal/handlers"
	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/middleware"
	"github.com/learnhub/learnhub-backend/internal/repos"
	"github.com/learnhub/learnhub-backend/internal/server"
	"github.com/learnhub/learnhub-backend/internal/services"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTL := envutil.Int("ACCESS_TOKEN_TTL", 3600)
	httpPort := envutil.String("HTTP_PORT", "8080")
	corsOrigins := envutil.String("CORS_ALLOW_ORIGINS", "")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	userRepo := repos.NewUserRepo(thePG, log)
	courseRepo := repos.NewCourseRepo(thePG, log)
	courseModuleRepo := repos.NewCourseModuleRepo(thePG, log)
	enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
	moduleProgressRepo := repos.NewModuleProgressRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	authService := services.NewAuthService(thePG, log, userRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	courseService := services.NewCourseService(thePG, log, courseRepo)
	moduleService := services.NewModuleService(thePG, log, courseRepo, courseModuleRepo)
	enrollmentService := services.NewEnrollmentService(thePG, log, courseRepo, courseModuleRepo, enrollmentRepo, moduleProgressRepo)
	progressService := services.NewProgressService(thePG, log, enrollmentRepo, moduleProgressRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	courseHandler := handlers.NewCourseHandler(log, courseService, moduleService)
	enrollmentHandler := handlers.NewEnrollmentHandler(log, enrollmentService)
	progressHandler := handlers.NewProgressHandler(log, progressService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	var origins []string
	if corsOrigins != "" {
		origins = strings.Split(corsOrigins, ",")
	}

	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:    authMiddleware,
		AuthHandler:       authHandler,
		CourseHandler:     courseHandler,
		EnrollmentHandler: enrollmentHandler,
		ProgressHandler:   progressHandler,
		AllowOrigins:      origins,
	})

	log.Info("Starting HTTP server", "port", httpPort)
	if err := router.Run(":" + httpPort); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
