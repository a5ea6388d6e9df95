package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/handlers"
	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/middleware"
	"github.com/learnhub/learnhub-backend/internal/repos"
	"github.com/learnhub/learnhub-backend/internal/services"
	"github.com/learnhub/learnhub-backend/internal/types"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql db: %v", err)
	}
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

	authService := services.NewAuthService(db, log, userRepo, "router-test-secret", time.Hour)
	userService := services.NewUserService(db, log, userRepo)
	courseService := services.NewCourseService(db, log, courseRepo)
	moduleService := services.NewModuleService(db, log, courseRepo, moduleRepo)
	enrollmentService := services.NewEnrollmentService(db, log, courseRepo, moduleRepo, enrollmentRepo, progressRepo)
	progressService := services.NewProgressService(db, log, enrollmentRepo, progressRepo)

	return NewRouter(RouterConfig{
		AuthMiddleware:    middleware.NewAuthMiddleware(log, authService),
		AuthHandler:       handlers.NewAuthHandler(authService, userService),
		CourseHandler:     handlers.NewCourseHandler(log, courseService, moduleService),
		EnrollmentHandler: handlers.NewEnrollmentHandler(log, enrollmentService),
		ProgressHandler:   handlers.NewProgressHandler(log, progressService),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndToken(t *testing.T, router *gin.Engine, email, role string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "test-pass-123",
		"role":     role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	if token == "" {
		t.Fatalf("register %s: no access token in %v", email, body)
	}
	return token
}

func TestEnrollmentFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	instructorToken := registerAndToken(t, router, "teach@example.com", "instructor")
	studentToken := registerAndToken(t, router, "learn@example.com", "student")

	// Instructor creates and publishes a course with two modules.
	rec := doJSON(t, router, http.MethodPost, "/api/courses", instructorToken, gin.H{
		"title":        "Intro",
		"description":  "Basics",
		"is_published": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course: status %d body %s", rec.Code, rec.Body.String())
	}
	courseID := decodeBody(t, rec)["course"].(map[string]any)["id"].(string)

	var moduleIDs []string
	for i := 1; i <= 2; i++ {
		rec = doJSON(t, router, http.MethodPost, "/api/courses/"+courseID+"/modules", instructorToken, gin.H{
			"title":    fmt.Sprintf("Module %d", i),
			"type":     "text",
			"position": i,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add module: status %d body %s", rec.Code, rec.Body.String())
		}
		moduleIDs = append(moduleIDs, decodeBody(t, rec)["module"].(map[string]any)["id"].(string))
	}

	// Students cannot mutate the catalog.
	rec = doJSON(t, router, http.MethodPost, "/api/courses", studentToken, gin.H{"title": "Nope"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student create course: status %d, want 403", rec.Code)
	}

	// Enroll, then enroll again.
	rec = doJSON(t, router, http.MethodPost, "/api/enrollments/courses/"+courseID, studentToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll: status %d body %s", rec.Code, rec.Body.String())
	}
	enrollmentID := decodeBody(t, rec)["enrollment"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodPost, "/api/enrollments/courses/"+courseID, studentToken, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second enroll: status %d, want 409", rec.Code)
	}

	// Complete one of two modules and check the aggregate.
	rec = doJSON(t, router, http.MethodPatch, "/api/progress/"+enrollmentID+"/modules/"+moduleIDs[0], studentToken, gin.H{
		"completionPercentage": 100,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update progress: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/enrollments/"+enrollmentID+"/progress", studentToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("aggregate: status %d body %s", rec.Code, rec.Body.String())
	}
	agg := decodeBody(t, rec)
	if got := agg["overallProgress"].(float64); got != 50 {
		t.Fatalf("overallProgress = %v, want 50", got)
	}
	if got := agg["totalModules"].(float64); got != 2 {
		t.Fatalf("totalModules = %v, want 2", got)
	}

	// A different student sees nothing of this enrollment.
	otherToken := registerAndToken(t, router, "other@example.com", "student")
	rec = doJSON(t, router, http.MethodGet, "/api/enrollments/"+enrollmentID+"/progress", otherToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("foreign aggregate: status %d, want 404", rec.Code)
	}
}

func TestUnpublishedCourseHiddenFromEnroll(t *testing.T) {
	router := newTestRouter(t)

	instructorToken := registerAndToken(t, router, "draft@example.com", "instructor")
	studentToken := registerAndToken(t, router, "curious@example.com", "student")

	rec := doJSON(t, router, http.MethodPost, "/api/courses", instructorToken, gin.H{"title": "Draft"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create draft course: status %d", rec.Code)
	}
	courseID := decodeBody(t, rec)["course"].(map[string]any)["id"].(string)

	// Enrolling in a draft and enrolling in a nonexistent course look
	// identical to the student.
	recDraft := doJSON(t, router, http.MethodPost, "/api/enrollments/courses/"+courseID, studentToken, nil)
	recMissing := doJSON(t, router, http.MethodPost, "/api/enrollments/courses/"+uuid.NewString(), studentToken, nil)
	if recDraft.Code != http.StatusNotFound || recMissing.Code != http.StatusNotFound {
		t.Fatalf("draft=%d missing=%d, want 404/404", recDraft.Code, recMissing.Code)
	}
	if recDraft.Body.String() != recMissing.Body.String() {
		t.Fatalf("draft and missing responses differ: %s vs %s", recDraft.Body.String(), recMissing.Body.String())
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/enrollments/my-courses"},
		{http.MethodPost, "/api/enrollments/courses/" + uuid.NewString()},
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPost, "/api/courses"},
	}
	for _, p := range paths {
		rec := doJSON(t, router, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestHealthcheck(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthcheck", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: status %d, want 200", rec.Code)
	}
}
