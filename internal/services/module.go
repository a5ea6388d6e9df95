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

type CreateModuleInput struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	VideoURL string `json:"video_url"`
	PDFURL   string `json:"pdf_url"`
	Position int    `json:"position"`
}

type UpdateModuleInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Type     *string `json:"type"`
	VideoURL *string `json:"video_url"`
	PDFURL   *string `json:"pdf_url"`
	Position *int    `json:"position"`
}

type ModuleService interface {
	AddModule(ctx context.Context, courseID, callerID uuid.UUID, input CreateModuleInput) (*types.CourseModule, error)
	UpdateModule(ctx context.Context, moduleID, callerID uuid.UUID, input UpdateModuleInput) (*types.CourseModule, error)
	DeleteModule(ctx context.Context, moduleID, callerID uuid.UUID) error
}

type moduleService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	moduleRepo repos.CourseModuleRepo
}

func NewModuleService(
	db *gorm.DB,
	baseLog *logger.Logger,
	courseRepo repos.CourseRepo,
	moduleRepo repos.CourseModuleRepo,
) ModuleService {
	return &moduleService{
		db:         db,
		log:        baseLog.With("service", "ModuleService"),
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
	}
}

func validModuleType(t string) bool {
	switch t {
	case types.ModuleTypeText, types.ModuleTypeVideo, types.ModuleTypePDF:
		return true
	}
	return false
}

func (ms *moduleService) AddModule(ctx context.Context, courseID, callerID uuid.UUID, input CreateModuleInput) (*types.CourseModule, error) {
	course, err := ms.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if err := authorizeCourseOwner(course, callerID); err != nil {
		return nil, err
	}

	moduleType := input.Type
	if moduleType == "" {
		moduleType = types.ModuleTypeText
	}
	if !validModuleType(moduleType) {
		return nil, apierr.BadRequest("invalid_module_type", "type must be text, video or pdf")
	}

	now := time.Now()
	module := &types.CourseModule{
		ID:        uuid.New(),
		CourseID:  courseID,
		Title:     input.Title,
		Content:   input.Content,
		Type:      moduleType,
		VideoURL:  input.VideoURL,
		PDFURL:    input.PDFURL,
		Position:  input.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := ms.moduleRepo.Create(ctx, nil, []*types.CourseModule{module}); err != nil {
		ms.log.Error("AddModule failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("create module: %w", err)
	}
	return module, nil
}

func (ms *moduleService) UpdateModule(ctx context.Context, moduleID, callerID uuid.UUID, input UpdateModuleInput) (*types.CourseModule, error) {
	module, course, err := ms.loadModuleWithCourse(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if err := authorizeCourseOwner(course, callerID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		module.Title = *input.Title
	}
	if input.Content != nil {
		module.Content = *input.Content
	}
	if input.Type != nil {
		if !validModuleType(*input.Type) {
			return nil, apierr.BadRequest("invalid_module_type", "type must be text, video or pdf")
		}
		module.Type = *input.Type
	}
	if input.VideoURL != nil {
		module.VideoURL = *input.VideoURL
	}
	if input.PDFURL != nil {
		module.PDFURL = *input.PDFURL
	}
	if input.Position != nil {
		module.Position = *input.Position
	}
	module.UpdatedAt = time.Now()

	if err := ms.moduleRepo.Update(ctx, nil, module); err != nil {
		ms.log.Error("UpdateModule failed", "error", err, "module_id", moduleID)
		return nil, fmt.Errorf("update module: %w", err)
	}
	return module, nil
}

func (ms *moduleService) DeleteModule(ctx context.Context, moduleID, callerID uuid.UUID) error {
	_, course, err := ms.loadModuleWithCourse(ctx, moduleID)
	if err != nil {
		return err
	}
	if err := authorizeCourseOwner(course, callerID); err != nil {
		return err
	}

	if err := ms.moduleRepo.DeleteByID(ctx, nil, moduleID); err != nil {
		ms.log.Error("DeleteModule failed", "error", err, "module_id", moduleID)
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

func (ms *moduleService) loadModuleWithCourse(ctx context.Context, moduleID uuid.UUID) (*types.CourseModule, *types.Course, error) {
	module, err := ms.moduleRepo.GetByID(ctx, nil, moduleID)
	if err != nil {
		return nil, nil, fmt.Errorf("load module: %w", err)
	}
	if module == nil {
		return nil, nil, apierr.NotFound("module_not_found", "Module not found")
	}
	course, err := ms.courseRepo.GetByID(ctx, nil, module.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("load course: %w", err)
	}
	return module, course, nil
}
