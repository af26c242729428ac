package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studybuddy/studybuddy-api/internal/models"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
)

type contentRepository interface {
	ListByCourse(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, error)
	UpdateStatus(ctx context.Context, courseID string, week int, status models.ContentStatus) (int64, error)
}

type contentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type contentCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

func contentCacheKey(courseID string, week *int) string {
	if week != nil {
		return fmt.Sprintf("content:%s:week:%d", courseID, *week)
	}
	return fmt.Sprintf("content:%s:all", courseID)
}

func contentCachePattern(courseID string) string {
	return fmt.Sprintf("content:%s:*", courseID)
}

// ContentService serves stored content bundles and their review lifecycle.
type ContentService struct {
	contents contentRepository
	courses  contentCourseRepository
	cache    contentCache
	metrics  *MetricsService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewContentService constructs a ContentService.
func NewContentService(contents contentRepository, courses contentCourseRepository, cache contentCache, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentService{
		contents: contents,
		courses:  courses,
		cache:    cache,
		metrics:  metrics,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GetCourseContent returns a course's generated content, optionally narrowed
// to one week, ordered by week. An existing course with no content is an
// empty result, not a NotFound. Reads go through the cache; a miss falls
// back to the store and repopulates the cache.
func (s *ContentService) GetCourseContent(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, bool, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	key := contentCacheKey(courseID, week)
	if s.cache != nil {
		var cached []models.GeneratedContent
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return cached, true, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("content cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	content, err := s.contents.ListByCourse(ctx, courseID, week)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, content, s.cacheTTL); err != nil {
			s.logger.Warn("content cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return content, false, nil
}

// UpdateStatus moves a week's content through the review lifecycle
// (generated -> reviewed -> approved). The transition is not enforced to be
// forward-only; reviewers may send content back to an earlier state.
func (s *ContentService) UpdateStatus(ctx context.Context, courseID string, week int, status models.ContentStatus) error {
	switch status {
	case models.ContentStatusGenerated, models.ContentStatusReviewed, models.ContentStatusApproved:
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown content status %q", status))
	}

	rows, err := s.contents.UpdateStatus(ctx, courseID, week, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update content status")
	}
	if rows == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no generated content for week %d", week))
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, contentCachePattern(courseID)); err != nil {
			s.logger.Warn("failed to invalidate content cache", zap.String("courseId", courseID), zap.Error(err))
		}
	}
	return nil
}
