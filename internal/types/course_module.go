package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	ModuleTypeText  = "text"
	ModuleTypeVideo = "video"
	ModuleTypePDF   = "pdf"
)

type CourseModule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course    *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content" json:"content,omitempty"`
	Type      string    `gorm:"column:type;not null;default:'text'" json:"type"`
	VideoURL  string    `gorm:"column:video_url" json:"video_url,omitempty"`
	PDFURL    string    `gorm:"column:pdf_url" json:"pdf_url,omitempty"`
	Position  int       `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseModule) TableName() string { return "course_module" }
