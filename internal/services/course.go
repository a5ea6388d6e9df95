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

type CreateCourseInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	IsPublished *bool  `json:"is_published"`
}

type UpdateCourseInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Thumbnail   *string `json:"thumbnail"`
	IsPublished *bool   `json:"is_published"`
}

type CourseService interface {
	CreateCourse(ctx context.Context, instructorID uuid.UUID, input CreateCourseInput) (*types.Course, error)
	ListCourses(ctx context.Context, publishedOnly bool) ([]*types.Course, error)
	GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	UpdateCourse(ctx context.Context, courseID, callerID uuid.UUID, input UpdateCourseInput) (*types.Course, error)
	DeleteCourse(ctx context.Context, courseID, callerID uuid.UUID) error
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
}

func NewCourseService(db *gorm.DB, baseLog *logger.Logger, courseRepo repos.CourseRepo) CourseService {
	return &courseService{
		db:         db,
		log:        baseLog.With("service", "CourseService"),
		courseRepo: courseRepo,
	}
}

// authorizeCourseOwner is the catalog ownership guard: every course or
// module mutation runs it before touching storage. Callers that are
// not the owning instructor are rejected; a missing course is a plain
// not-found.
func authorizeCourseOwner(course *types.Course, callerID uuid.UUID) error {
	if course == nil {
		return apierr.NotFound("course_not_found", "Course not found")
	}
	if course.InstructorID != callerID {
		return apierr.Forbidden("not_course_owner", "You can only modify your own courses")
	}
	return nil
}

func (cs *courseService) CreateCourse(ctx context.Context, instructorID uuid.UUID, input CreateCourseInput) (*types.Course, error) {
	now := time.Now()
	course := &types.Course{
		ID:           uuid.New(),
		InstructorID: instructorID,
		Title:        input.Title,
		Description:  input.Description,
		Thumbnail:    input.Thumbnail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}

	if _, err := cs.courseRepo.Create(ctx, nil, []*types.Course{course}); err != nil {
		cs.log.Error("CreateCourse failed", "error", err, "instructor_id", instructorID)
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (cs *courseService) ListCourses(ctx context.Context, publishedOnly bool) ([]*types.Course, error) {
	courses, err := cs.courseRepo.List(ctx, nil, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (cs *courseService) GetCourse(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := cs.courseRepo.GetByIDWithRelations(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("course_not_found", "Course not found")
	}
	return course, nil
}

func (cs *courseService) UpdateCourse(ctx context.Context, courseID, callerID uuid.UUID, input UpdateCourseInput) (*types.Course, error) {
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if err := authorizeCourseOwner(course, callerID); err != nil {
		return nil, err
	}

	if input.Title != nil {
		course.Title = *input.Title
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.Thumbnail != nil {
		course.Thumbnail = *input.Thumbnail
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}
	course.UpdatedAt = time.Now()

	if err := cs.courseRepo.Update(ctx, nil, course); err != nil {
		cs.log.Error("UpdateCourse failed", "error", err, "course_id", courseID)
		return nil, fmt.Errorf("update course: %w", err)
	}
	return course, nil
}

func (cs *courseService) DeleteCourse(ctx context.Context, courseID, callerID uuid.UUID) error {
	course, err := cs.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	if err := authorizeCourseOwner(course, callerID); err != nil {
		return err
	}

	// Modules, enrollments and progress rows go with the course via
	// the ON DELETE CASCADE foreign keys.
	if err := cs.courseRepo.DeleteByID(ctx, nil, courseID); err != nil {
		cs.log.Error("DeleteCourse failed", "error", err, "course_id", courseID)
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
