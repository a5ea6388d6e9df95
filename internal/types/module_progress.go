package types

import (
	"time"

	"github.com/google/uuid"
)

// ModuleProgress tracks one student's completion of one module within
// an enrollment. IsCompleted is derived: true iff
// CompletionPercentage >= 100.
type ModuleProgress struct {
	ID                   uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	EnrollmentID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_module" json:"enrollment_id"`
	Enrollment           *Enrollment   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"enrollment,omitempty"`
	ModuleID             uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_module" json:"module_id"`
	Module               *CourseModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	IsCompleted          bool          `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	CompletionPercentage float64       `gorm:"column:completion_percentage;not null;default:0" json:"completion_percentage"`
	CreatedAt            time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt            time.Time     `gorm:"not null" json:"updated_at"`
}

func (ModuleProgress) TableName() string { return "module_progress" }
