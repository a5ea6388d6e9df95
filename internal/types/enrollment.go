package types

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID  uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_student_course" json:"student_id"`
	Student    *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	CourseID   uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_student_course" json:"course_id"`
	Course     *Course           `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Progress   []*ModuleProgress `gorm:"foreignKey:EnrollmentID;references:ID" json:"progress,omitempty"`
	EnrolledAt time.Time         `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }
