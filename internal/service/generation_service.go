package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studybuddy/studybuddy-api/internal/models"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/genai"
)

type generationCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type generationContentRepository interface {
	Upsert(ctx context.Context, content *models.GeneratedContent) error
}

type contentCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// GenerationService produces and stores weekly content bundles.
type GenerationService struct {
	courses  generationCourseRepository
	contents generationContentRepository
	cache    contentCacheInvalidator
	client   genai.Client
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewGenerationService constructs a GenerationService.
func NewGenerationService(courses generationCourseRepository, contents generationContentRepository, cache contentCacheInvalidator, client genai.Client, metrics *MetricsService, logger *zap.Logger) *GenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationService{
		courses:  courses,
		contents: contents,
		cache:    cache,
		client:   client,
		metrics:  metrics,
		logger:   logger,
	}
}

// GenerateWeek produces a content bundle for one course week and stores it.
// Regeneration overwrites the previous bundle for the same week and resets
// its review status to generated.
func (s *GenerationService) GenerateWeek(ctx context.Context, courseID string, week int) (*models.GeneratedContent, error) {
	start := time.Now()
	content, err := s.generateWeek(ctx, courseID, week)
	outcome := "success"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.ObserveGeneration(outcome, time.Since(start))
	return content, err
}

func (s *GenerationService) generateWeek(ctx context.Context, courseID string, week int) (*models.GeneratedContent, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	weekData, ok := course.FindWeek(week)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("week %d is not part of the course syllabus", week))
	}

	prompt := BuildPrompt(course, weekData)
	raw, err := s.client.GenerateJSON(ctx, SystemPrompt, prompt, "course_content", ContentJSONSchema())
	if err != nil {
		return nil, s.classifyGenerationError(courseID, week, err)
	}

	var bundle models.ContentBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		s.logger.Warn("generated payload is not valid JSON",
			zap.String("courseId", courseID), zap.Int("week", week), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrGenFailed.Code, appErrors.ErrGenFailed.Status, appErrors.ErrGenFailed.Message)
	}
	if err := ValidateBundle(&bundle); err != nil {
		s.logger.Warn("generated payload failed schema validation",
			zap.String("courseId", courseID), zap.Int("week", week), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrGenFailed.Code, appErrors.ErrGenFailed.Status, appErrors.ErrGenFailed.Message)
	}

	content := &models.GeneratedContent{
		CourseID:         courseID,
		Week:             week,
		MCQs:             bundle.MCQs,
		QuizQuestions:    bundle.QuizQuestions,
		EasyQuestions:    bundle.EasyQuestions,
		VideoSuggestions: bundle.VideoSuggestions,
		Presentation:     bundle.Presentation,
		Status:           models.ContentStatusGenerated,
		GeneratedAt:      time.Now().UTC(),
	}
	if err := s.contents.Upsert(ctx, content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated content")
	}

	s.invalidateContentCache(ctx, courseID)

	s.logger.Info("content generated",
		zap.String("courseId", courseID),
		zap.Int("week", week),
		zap.String("contentId", content.ID))
	return content, nil
}

// GenerateAllWeeks runs GenerateWeek for every syllabus week of a course.
// Weeks fail independently: the batch always returns one outcome per week,
// ordered by week number, and never fails wholesale because a single week
// errored. Only a missing course aborts the batch up front.
func (s *GenerationService) GenerateAllWeeks(ctx context.Context, courseID string) ([]models.WeekOutcome, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if len(course.WeeklyContent) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no weekly content to generate from")
	}

	weeks := make([]int, 0, len(course.WeeklyContent))
	for _, w := range course.WeeklyContent {
		weeks = append(weeks, w.Week)
	}
	sort.Ints(weeks)

	// Every week runs at once; weeks are independent requests and the
	// outcome slice keeps the association deterministic.
	outcomes := make([]models.WeekOutcome, len(weeks))
	g, gctx := errgroup.WithContext(ctx)
	for i, week := range weeks {
		i, week := i, week
		g.Go(func() error {
			content, err := s.GenerateWeek(gctx, courseID, week)
			if err != nil {
				appErr := appErrors.FromError(err)
				outcomes[i] = models.WeekOutcome{
					Week:  week,
					Code:  appErr.Code,
					Error: appErr.Message,
				}
				return nil
			}
			outcomes[i] = models.WeekOutcome{Week: week, Success: true, Content: content}
			return nil
		})
	}
	// Workers report failures through their outcome slot, never as an error.
	_ = g.Wait()

	return outcomes, nil
}

func (s *GenerationService) classifyGenerationError(courseID string, week int, err error) error {
	var target *appErrors.Error
	switch {
	case errors.Is(err, genai.ErrNotConfigured):
		target = appErrors.ErrGenNotConfigured
	case errors.Is(err, genai.ErrAuth):
		target = appErrors.ErrGenAuth
	case errors.Is(err, genai.ErrQuota):
		target = appErrors.ErrGenQuota
	default:
		target = appErrors.ErrGenFailed
	}
	s.logger.Warn("content generation failed",
		zap.String("courseId", courseID),
		zap.Int("week", week),
		zap.String("code", target.Code),
		zap.Error(err))
	return appErrors.Wrap(err, target.Code, target.Status, target.Message)
}

func (s *GenerationService) invalidateContentCache(ctx context.Context, courseID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, contentCachePattern(courseID)); err != nil {
		s.logger.Warn("failed to invalidate content cache", zap.String("courseId", courseID), zap.Error(err))
	}
}
