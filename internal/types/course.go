package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Course struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InstructorID uuid.UUID       `gorm:"type:uuid;not null;index" json:"instructor_id"`
	Instructor   *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`
	Title        string          `gorm:"column:title;not null" json:"title"`
	Description  string          `gorm:"column:description" json:"description"`
	Thumbnail    string          `gorm:"column:thumbnail" json:"thumbnail,omitempty"`
	IsPublished  bool            `gorm:"column:is_published;not null;default:false" json:"is_published"`
	Metadata     datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	Modules      []*CourseModule `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
