package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/apierr"
	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/repos"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type ProgressService interface {
	UpdateProgress(ctx context.Context, enrollmentID, moduleID uuid.UUID, completionPercentage float64, studentID uuid.UUID) (*types.ModuleProgress, error)
	GetModuleProgress(ctx context.Context, enrollmentID, moduleID, studentID uuid.UUID) (*types.ModuleProgress, error)
}

type progressService struct {
	db             *gorm.DB
	log            *logger.Logger
	enrollmentRepo repos.EnrollmentRepo
	progressRepo   repos.ModuleProgressRepo
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.ModuleProgressRepo,
) ProgressService {
	return &progressService{
		db:             db,
		log:            baseLog.With("service", "ProgressService"),
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
	}
}

// UpdateProgress upserts the progress row for (enrollmentID, moduleID)
// once the enrollment is proven to belong to the student. The module
// id is trusted after that check, which lets students report progress
// on modules added after they enrolled: the row is created lazily.
// The percentage is stored as given; completion flips at >= 100.
func (ps *progressService) UpdateProgress(ctx context.Context, enrollmentID, moduleID uuid.UUID, completionPercentage float64, studentID uuid.UUID) (*types.ModuleProgress, error) {
	enrollment, err := ps.enrollmentRepo.GetByIDAndStudent(ctx, nil, enrollmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment == nil {
		return nil, apierr.NotFound("enrollment_not_found", "Enrollment not found")
	}

	now := time.Now()
	row := &types.ModuleProgress{
		ID:                   uuid.New(),
		EnrollmentID:         enrollmentID,
		ModuleID:             moduleID,
		CompletionPercentage: completionPercentage,
		IsCompleted:          completionPercentage >= 100,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	result, err := ps.progressRepo.Upsert(ctx, nil, row)
	if err != nil {
		ps.log.Error("UpdateProgress failed", "error", err, "enrollment_id", enrollmentID, "module_id", moduleID)
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	return result, nil
}

func (ps *progressService) GetModuleProgress(ctx context.Context, enrollmentID, moduleID, studentID uuid.UUID) (*types.ModuleProgress, error) {
	enrollment, err := ps.enrollmentRepo.GetByIDAndStudent(ctx, nil, enrollmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if enrollment == nil {
		return nil, apierr.NotFound("enrollment_not_found", "Enrollment not found")
	}

	progress, err := ps.progressRepo.GetByEnrollmentAndModule(ctx, nil, enrollmentID, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if progress == nil {
		return nil, apierr.NotFound("progress_not_found", "Progress not found")
	}
	return progress, nil
}
