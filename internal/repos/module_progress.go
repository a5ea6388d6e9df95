package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type ModuleProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.ModuleProgress) ([]*types.ModuleProgress, error)
	GetByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error)
	GetByEnrollmentAndModule(ctx context.Context, tx *gorm.DB, enrollmentID, moduleID uuid.UUID) (*types.ModuleProgress, error)
	CountCompletedByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error)
	// Upsert writes the row atomically against the unique
	// (enrollment_id, module_id) index: a single INSERT ... ON CONFLICT
	// DO UPDATE, so concurrent calls for the same pair never produce
	// duplicates. The row is reloaded after the write so the caller
	// sees the surviving ID and timestamps.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ModuleProgress) (*types.ModuleProgress, error)
}

type moduleProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleProgressRepo(db *gorm.DB, baseLog *logger.Logger) ModuleProgressRepo {
	repoLog := baseLog.With("repo", "ModuleProgressRepo")
	return &moduleProgressRepo{db: db, log: repoLog}
}

func (r *moduleProgressRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.ModuleProgress) ([]*types.ModuleProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.ModuleProgress{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *moduleProgressRepo) GetByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*types.ModuleProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ModuleProgress
	if enrollmentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleProgressRepo) GetByEnrollmentAndModule(ctx context.Context, tx *gorm.DB, enrollmentID, moduleID uuid.UUID) (*types.ModuleProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.ModuleProgress
	err := transaction.WithContext(ctx).
		Where("enrollment_id = ? AND module_id = ?", enrollmentID, moduleID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *moduleProgressRepo) CountCompletedByEnrollmentID(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ModuleProgress{}).
		Where("enrollment_id = ? AND is_completed = ?", enrollmentID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *moduleProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ModuleProgress) (*types.ModuleProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil, nil
	}

	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"completion_percentage",
				"is_completed",
				"updated_at",
			}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	return r.GetByEnrollmentAndModule(ctx, transaction, row.EnrollmentID, row.ModuleID)
}
