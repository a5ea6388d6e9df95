package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/internal/apierr"
	"github.com/learnhub/learnhub-backend/internal/types"
)

func TestEnrollUnpublishedCourse(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	course, _ := env.createCourse(t, instructor.ID, false, 2)

	_, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if !apierr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("enroll in unpublished course: got %v, want 404", err)
	}
}

func TestEnrollMissingCourse(t *testing.T) {
	env := newTestEnv(t)
	student := env.createUser(t, types.RoleStudent)

	_, err := env.enrollmentService.Enroll(context.Background(), student.ID, uuid.New())
	if !apierr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("enroll in missing course: got %v, want 404", err)
	}
}

func TestEnrollMaterializesProgress(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	course, modules := env.createCourse(t, instructor.ID, true, 3)

	enrollment, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if enrollment.Course == nil {
		t.Fatal("enrollment should be returned with its course")
	}
	if len(enrollment.Course.Modules) != len(modules) {
		t.Fatalf("returned course has %d modules, want %d", len(enrollment.Course.Modules), len(modules))
	}

	rows, err := env.progressRepo.GetByEnrollmentID(context.Background(), nil, enrollment.ID)
	if err != nil {
		t.Fatalf("load progress rows: %v", err)
	}
	if len(rows) != len(modules) {
		t.Fatalf("materialized %d progress rows, want %d", len(rows), len(modules))
	}
	for _, row := range rows {
		if row.IsCompleted || row.CompletionPercentage != 0 {
			t.Fatalf("progress row should start at 0%%/incomplete, got %v/%v", row.CompletionPercentage, row.IsCompleted)
		}
	}
}

func TestEnrollDuplicate(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	course, _ := env.createCourse(t, instructor.ID, true, 2)

	first, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("first enroll: %v", err)
	}

	_, err = env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if !apierr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("second enroll: got %v, want 409", err)
	}

	if got := env.countProgressRows(t, first.ID); got != 2 {
		t.Fatalf("progress row count changed after failed enroll: got %d, want 2", got)
	}
}

func TestEnrollConcurrentDuplicate(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	course, _ := env.createCourse(t, instructor.ID, true, 2)

	// Two racing enrolls for the same (student, course) pair: the
	// unique index decides the winner, the loser gets a conflict.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case apierr.IsStatus(err, http.StatusConflict):
			conflicts++
		default:
			t.Fatalf("unexpected enroll error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes=%d conflicts=%d, want exactly one of each", successes, conflicts)
	}

	enrollments, err := env.enrollmentService.ListEnrollments(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(enrollments) != 1 {
		t.Fatalf("enrollment count = %d, want 1", len(enrollments))
	}
	if got := env.countProgressRows(t, enrollments[0].ID); got != 2 {
		t.Fatalf("progress row count = %d, want 2", got)
	}
}

func TestEnrollAfterUnpublishKeepsEnrollment(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	course, _ := env.createCourse(t, instructor.ID, true, 1)

	enrollment, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	unpublished := false
	if _, err := env.courseService.UpdateCourse(context.Background(), course.ID, instructor.ID, UpdateCourseInput{IsPublished: &unpublished}); err != nil {
		t.Fatalf("unpublish course: %v", err)
	}

	result, err := env.enrollmentService.GetEnrollmentProgress(context.Background(), enrollment.ID, student.ID)
	if err != nil {
		t.Fatalf("aggregate after unpublish: %v", err)
	}
	if result.TotalModules != 1 {
		t.Fatalf("enrollment should survive unpublishing, got totalModules=%d", result.TotalModules)
	}
}

func TestListEnrollmentsNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)

	courseA, _ := env.createCourse(t, instructor.ID, true, 1)
	courseB, _ := env.createCourse(t, instructor.ID, true, 1)

	// Insert directly so the two enrollments have distinct timestamps.
	older := &types.Enrollment{
		ID:         uuid.New(),
		StudentID:  student.ID,
		CourseID:   courseA.ID,
		EnrolledAt: time.Now().Add(-time.Hour),
		UpdatedAt:  time.Now().Add(-time.Hour),
	}
	newer := &types.Enrollment{
		ID:         uuid.New(),
		StudentID:  student.ID,
		CourseID:   courseB.ID,
		EnrolledAt: time.Now(),
		UpdatedAt:  time.Now(),
	}
	for _, enr := range []*types.Enrollment{older, newer} {
		if err := env.enrollmentRepo.Create(context.Background(), nil, enr); err != nil {
			t.Fatalf("create enrollment: %v", err)
		}
	}

	enrollments, err := env.enrollmentService.ListEnrollments(context.Background(), student.ID)
	if err != nil {
		t.Fatalf("list enrollments: %v", err)
	}
	if len(enrollments) != 2 {
		t.Fatalf("got %d enrollments, want 2", len(enrollments))
	}
	if enrollments[0].ID != newer.ID {
		t.Fatal("enrollments should be ordered most recent first")
	}
	if enrollments[0].Course == nil || enrollments[0].Course.Instructor == nil {
		t.Fatal("enrollments should preload course and instructor")
	}
}

func TestEnrollmentProgressAggregate(t *testing.T) {
	cases := []struct {
		name        string
		modules     int
		completed   int
		wantOverall int
	}{
		{name: "three_of_four", modules: 4, completed: 3, wantOverall: 75},
		{name: "one_of_three_rounds_down", modules: 3, completed: 1, wantOverall: 33},
		{name: "two_of_three_rounds_up", modules: 3, completed: 2, wantOverall: 67},
		{name: "none_completed", modules: 2, completed: 0, wantOverall: 0},
		{name: "all_completed", modules: 2, completed: 2, wantOverall: 100},
		{name: "zero_modules", modules: 0, completed: 0, wantOverall: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			instructor := env.createUser(t, types.RoleInstructor)
			student := env.createUser(t, types.RoleStudent)
			course, modules := env.createCourse(t, instructor.ID, true, tc.modules)

			enrollment, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
			if err != nil {
				t.Fatalf("enroll: %v", err)
			}
			for i := 0; i < tc.completed; i++ {
				if _, err := env.progressService.UpdateProgress(context.Background(), enrollment.ID, modules[i].ID, 100, student.ID); err != nil {
					t.Fatalf("complete module %d: %v", i, err)
				}
			}

			result, err := env.enrollmentService.GetEnrollmentProgress(context.Background(), enrollment.ID, student.ID)
			if err != nil {
				t.Fatalf("aggregate: %v", err)
			}
			if result.TotalModules != tc.modules {
				t.Errorf("totalModules = %d, want %d", result.TotalModules, tc.modules)
			}
			if result.CompletedModules != tc.completed {
				t.Errorf("completedModules = %d, want %d", result.CompletedModules, tc.completed)
			}
			if result.OverallProgress != tc.wantOverall {
				t.Errorf("overallProgress = %d, want %d", result.OverallProgress, tc.wantOverall)
			}
		})
	}
}

func TestEnrollmentProgressForeignStudent(t *testing.T) {
	env := newTestEnv(t)
	instructor := env.createUser(t, types.RoleInstructor)
	student := env.createUser(t, types.RoleStudent)
	other := env.createUser(t, types.RoleStudent)
	course, _ := env.createCourse(t, instructor.ID, true, 2)

	enrollment, err := env.enrollmentService.Enroll(context.Background(), student.ID, course.ID)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}

	_, err = env.enrollmentService.GetEnrollmentProgress(context.Background(), enrollment.ID, other.ID)
	if !apierr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("foreign student aggregate: got %v, want 404", err)
	}
}
