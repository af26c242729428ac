package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studybuddy/studybuddy-api/internal/models"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
	Delete(ctx context.Context, id string) error
}

// CreateCourseRequest represents payload for creating a course.
type CreateCourseRequest struct {
	Name             string                 `json:"name" validate:"required,max=200"`
	Code             string                 `json:"code" validate:"required,max=50"`
	Level            string                 `json:"level" validate:"required,max=20"`
	Semester         string                 `json:"semester" validate:"required,max=50"`
	Credits          int                    `json:"credits" validate:"required,min=1,max=12"`
	Description      string                 `json:"description" validate:"required"`
	Objectives       string                 `json:"objectives"`
	LearningOutcomes string                 `json:"learningOutcomes"`
	Requirements     string                 `json:"requirements"`
	AssessmentMode   string                 `json:"assessmentMode"`
	WeeklyContent    []models.WeeklyContent `json:"weeklyContent" validate:"required,min=1,dive"`
}

// CourseService orchestrates course authoring operations.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns an instructor's courses plus pagination data.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return courses, pagination, nil
}

// Get returns a course if the caller may see it.
func (s *CourseService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Course, error) {
	course, err := s.findOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// Create validates and stores a new course in draft state.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest, instructorID string) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "course payload failed validation")
	}
	if err := validateWeeklyContent(req.WeeklyContent); err != nil {
		return nil, err
	}

	course := &models.Course{
		Name:             strings.TrimSpace(req.Name),
		Code:             strings.TrimSpace(req.Code),
		Level:            req.Level,
		Semester:         req.Semester,
		Credits:          req.Credits,
		Description:      req.Description,
		Objectives:       req.Objectives,
		LearningOutcomes: req.LearningOutcomes,
		Requirements:     req.Requirements,
		AssessmentMode:   req.AssessmentMode,
		WeeklyContent:    models.WeeklyContentList(req.WeeklyContent),
		UploadedFiles:    models.UploadedFileList{},
		Status:           models.CourseStatusDraft,
		InstructorID:     instructorID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created",
		zap.String("courseId", course.ID),
		zap.String("code", course.Code),
		zap.String("instructorId", instructorID))
	return course, nil
}

// Activate publishes a draft course.
func (s *CourseService) Activate(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.findOwned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, models.CourseStatusActive); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate course")
	}
	return nil
}

// Delete removes a course and all of its generated content.
func (s *CourseService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if _, err := s.findOwned(ctx, id, actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.logger.Info("course deleted", zap.String("courseId", id))
	return nil
}

func (s *CourseService) findOwned(ctx context.Context, id string, actor *models.JWTClaims) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if actor != nil && actor.Role != models.RoleAdmin && course.InstructorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another instructor")
	}
	return course, nil
}

// validateWeeklyContent enforces the syllabus shape: positive, unique week
// numbers and non-empty topics per week. Weeks need not be contiguous.
func validateWeeklyContent(weeks []models.WeeklyContent) error {
	seen := make(map[int]struct{}, len(weeks))
	for i, w := range weeks {
		if w.Week < 1 {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weeklyContent[%d].week must be positive", i))
		}
		if _, dup := seen[w.Week]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weeklyContent[%d].week %d appears more than once", i, w.Week))
		}
		seen[w.Week] = struct{}{}
		if strings.TrimSpace(w.Topics) == "" {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weeklyContent[%d].topics must not be empty", i))
		}
	}
	return nil
}
