package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/apierr"
	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/repos"
	"github.com/learnhub/learnhub-backend/internal/types"
)

// EnrollmentProgress is the aggregate completion view for one
// enrollment. TotalModules counts the course's current modules, so
// modules added after enrollment lower the percentage without any
// backfill of progress rows.
type EnrollmentProgress struct {
	Enrollment       *types.Enrollment `json:"enrollment"`
	OverallProgress  int               `json:"overallProgress"`
	CompletedModules int               `json:"completedModules"`
	TotalModules     int               `json:"totalModules"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error)
	ListEnrollments(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	GetEnrollmentProgress(ctx context.Context, enrollmentID, studentID uuid.UUID) (*EnrollmentProgress, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	moduleRepo     repos.CourseModuleRepo
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.ModuleProgressRepo
}

func NewEnrollmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	moduleRepo repos.CourseModuleRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.ModuleProgressRepo,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            baseLog.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		moduleRepo:     moduleRepo,
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
	}
}

// Enroll links the student to a published course and materializes one
// zero-percent progress row per module the course has right now. The
// enrollment insert and the progress materialization are one
// transaction. A missing course and an unpublished course produce the
// same not-found answer so drafts stay invisible; the unique
// (student_id, course_id) index decides the winner between concurrent
// enrolls.
func (es *enrollmentService) Enroll(ctx context.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error) {
	var enrollmentID uuid.UUID

	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := es.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if course == nil || !course.IsPublished {
			return apierr.NotFound("course_not_found", "Course not found")
		}

		now := time.Now()
		enrollment := &types.Enrollment{
			ID:         uuid.New(),
			StudentID:  studentID,
			CourseID:   courseID,
			EnrolledAt: now,
			UpdatedAt:  now,
		}
		if err := es.enrollmentRepo.Create(ctx, tx, enrollment); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Conflict("already_enrolled", "Already enrolled in this course")
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		enrollmentID = enrollment.ID

		modules, err := es.moduleRepo.GetByCourseID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load modules: %w", err)
		}
		progressRows := make([]*types.ModuleProgress, 0, len(modules))
		for _, module := range modules {
			progressRows = append(progressRows, &types.ModuleProgress{
				ID:                   uuid.New(),
				EnrollmentID:         enrollment.ID,
				ModuleID:             module.ID,
				IsCompleted:          false,
				CompletionPercentage: 0,
				CreatedAt:            now,
				UpdatedAt:            now,
			})
		}
		if _, err := es.progressRepo.Create(ctx, tx, progressRows); err != nil {
			return fmt.Errorf("materialize progress: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result, err := es.enrollmentRepo.GetByIDWithRelations(ctx, nil, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("reload enrollment: %w", err)
	}
	es.log.Info("Student enrolled", "student_id", studentID, "course_id", courseID, "enrollment_id", enrollmentID)
	return result, nil
}

func (es *enrollmentService) ListEnrollments(ctx context.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	enrollments, err := es.enrollmentRepo.GetByStudentID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

func (es *enrollmentService) GetEnrollmentProgress(ctx context.Context, enrollmentID, studentID uuid.UUID) (*EnrollmentProgress, error) {
	owned, err := es.enrollmentRepo.GetByIDAndStudent(ctx, nil, enrollmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if owned == nil {
		return nil, apierr.NotFound("enrollment_not_found", "Enrollment not found")
	}

	enrollment, err := es.enrollmentRepo.GetByIDWithRelations(ctx, nil, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("reload enrollment: %w", err)
	}

	totalModules, err := es.moduleRepo.CountByCourseID(ctx, nil, owned.CourseID)
	if err != nil {
		return nil, fmt.Errorf("count modules: %w", err)
	}
	completedModules, err := es.progressRepo.CountCompletedByEnrollmentID(ctx, nil, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}

	overall := 0
	if totalModules > 0 {
		overall = int(math.Round(float64(completedModules) / float64(totalModules) * 100))
	}

	return &EnrollmentProgress{
		Enrollment:       enrollment,
		OverallProgress:  overall,
		CompletedModules: int(completedModules),
		TotalModules:     int(totalModules),
	}, nil
}
