package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type EnrollmentRepo interface {
	// Create inserts the enrollment and reports a duplicate
	// (student_id, course_id) pair as gorm.ErrDuplicatedKey. The unique
	// index is the only arbiter under concurrent enrolls.
	Create(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) error
	GetByIDWithRelations(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.Enrollment, error)
	GetByIDAndStudent(ctx context.Context, tx *gorm.DB, enrollmentID, studentID uuid.UUID) (*types.Enrollment, error)
	GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Enrollment, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	repoLog := baseLog.With("repo", "EnrollmentRepo")
	return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollment *types.Enrollment) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if enrollment == nil {
		return nil
	}

	return transaction.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByIDWithRelations(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Enrollment
	err := transaction.WithContext(ctx).
		Preload("Course").
		Preload("Course.Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Progress").
		Where("id = ?", enrollmentID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *enrollmentRepo) GetByIDAndStudent(ctx context.Context, tx *gorm.DB, enrollmentID, studentID uuid.UUID) (*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Enrollment
	err := transaction.WithContext(ctx).
		Where("id = ? AND student_id = ?", enrollmentID, studentID).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *enrollmentRepo) GetByStudentID(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Enrollment
	if studentID == uuid.Nil {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Preload("Course.Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Progress").
		Where("student_id = ?", studentID).
		Order("enrolled_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
