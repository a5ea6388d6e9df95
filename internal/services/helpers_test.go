package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/repos"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type testEnv struct {
	db                *gorm.DB
	userRepo          repos.UserRepo
	courseRepo        repos.CourseRepo
	moduleRepo        repos.CourseModuleRepo
	enrollmentRepo    repos.EnrollmentRepo
	progressRepo      repos.ModuleProgressRepo
	authService       AuthService
	courseService     CourseService
	moduleService     ModuleService
	enrollmentService EnrollmentService
	progressService   ProgressService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
	// Shared-cache sqlite returns lock errors under concurrent writers;
	// a single connection serializes them through the pool instead.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&types.User{},
		&types.Course{},
		&types.CourseModule{},
		&types.Enrollment{},
		&types.ModuleProgress{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	courseRepo := repos.NewCourseRepo(db, log)
	moduleRepo := repos.NewCourseModuleRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)
	progressRepo := repos.NewModuleProgressRepo(db, log)

	return &testEnv{
		db:                db,
		userRepo:          userRepo,
		courseRepo:        courseRepo,
		moduleRepo:        moduleRepo,
		enrollmentRepo:    enrollmentRepo,
		progressRepo:      progressRepo,
		authService:       NewAuthService(db, log, userRepo, "test-secret", time.Hour),
		courseService:     NewCourseService(db, log, courseRepo),
		moduleService:     NewModuleService(db, log, courseRepo, moduleRepo),
		enrollmentService: NewEnrollmentService(db, log, courseRepo, moduleRepo, enrollmentRepo, progressRepo),
		progressService:   NewProgressService(db, log, enrollmentRepo, progressRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, role string) *types.User {
	t.Helper()

	now := time.Now()
	user := &types.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("%s@example.com", uuid.New()),
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := e.userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func (e *testEnv) createCourse(t *testing.T, instructorID uuid.UUID, published bool, moduleCount int) (*types.Course, []*types.CourseModule) {
	t.Helper()

	now := time.Now()
	course := &types.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        "Intro",
		Description:  "Test course",
		IsPublished:  published,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := e.courseRepo.Create(context.Background(), nil, []*types.Course{course}); err != nil {
		t.Fatalf("create course: %v", err)
	}

	modules := make([]*types.CourseModule, 0, moduleCount)
	for i := 0; i < moduleCount; i++ {
		modules = append(modules, &types.CourseModule{
			ID:        uuid.New(),
			CourseID:  course.ID,
			Title:     fmt.Sprintf("Module %d", i+1),
			Type:      types.ModuleTypeText,
			Position:  i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	if _, err := e.moduleRepo.Create(context.Background(), nil, modules); err != nil {
		t.Fatalf("create modules: %v", err)
	}
	return course, modules
}

func (e *testEnv) countProgressRows(t *testing.T, enrollmentID uuid.UUID) int {
	t.Helper()

	rows, err := e.progressRepo.GetByEnrollmentID(context.Background(), nil, enrollmentID)
	if err != nil {
		t.Fatalf("load progress rows: %v", err)
	}
	return len(rows)
}
