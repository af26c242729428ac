package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-api/internal/models"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
)

type mockContentRepo struct {
	content      []models.GeneratedContent
	listErr      error
	statusRows   int64
	statusErr    error
	lastStatus   models.ContentStatus
	lastStatusWk int
}

func (m *mockContentRepo) ListByCourse(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	if week == nil {
		return m.content, nil
	}
	filtered := []models.GeneratedContent{}
	for _, c := range m.content {
		if c.Week == *week {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (m *mockContentRepo) UpdateStatus(ctx context.Context, courseID string, week int, status models.ContentStatus) (int64, error) {
	m.lastStatus = status
	m.lastStatusWk = week
	return m.statusRows, m.statusErr
}

type mockContentCache struct {
	values   map[string][]byte
	deleted  []string
	setCalls int
}

func (m *mockContentCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockContentCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	m.setCalls++
	return nil
}

func (m *mockContentCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func newContentServiceForTest(contents *mockContentRepo, cache *mockContentCache) *ContentService {
	courses := &mockGenCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	var c contentCache
	if cache != nil {
		c = cache
	}
	return NewContentService(contents, courses, c, nil, time.Minute, nil)
}

func TestGetCourseContentCacheMissPopulatesCache(t *testing.T) {
	contents := &mockContentRepo{content: []models.GeneratedContent{
		{ID: "c1", CourseID: "course-1", Week: 1, Status: models.ContentStatusGenerated},
		{ID: "c2", CourseID: "course-1", Week: 2, Status: models.ContentStatusReviewed},
	}}
	cache := &mockContentCache{}
	svc := newContentServiceForTest(contents, cache)

	result, cached, err := svc.GetCourseContent(context.Background(), "course-1", nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Len(t, result, 2)
	assert.Equal(t, 1, cache.setCalls)
	assert.Contains(t, cache.values, "content:course-1:all")
}

func TestGetCourseContentServedFromCache(t *testing.T) {
	contents := &mockContentRepo{listErr: sql.ErrConnDone}
	cache := &mockContentCache{}
	raw, err := json.Marshal([]models.GeneratedContent{{ID: "c1", Week: 1}})
	require.NoError(t, err)
	cache.values = map[string][]byte{"content:course-1:all": raw}

	svc := newContentServiceForTest(contents, cache)
	result, cached, err := svc.GetCourseContent(context.Background(), "course-1", nil)
	require.NoError(t, err, "cache hit must not touch the store")
	assert.True(t, cached)
	assert.Len(t, result, 1)
}

func TestGetCourseContentSingleWeekKey(t *testing.T) {
	contents := &mockContentRepo{content: []models.GeneratedContent{{ID: "c2", Week: 2}}}
	cache := &mockContentCache{}
	svc := newContentServiceForTest(contents, cache)

	week := 2
	result, _, err := svc.GetCourseContent(context.Background(), "course-1", &week)
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Contains(t, cache.values, "content:course-1:week:2")
}

func TestGetCourseContentEmptyIsNotAnError(t *testing.T) {
	svc := newContentServiceForTest(&mockContentRepo{content: []models.GeneratedContent{}}, nil)

	result, cached, err := svc.GetCourseContent(context.Background(), "course-1", nil)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, result)
}

func TestGetCourseContentUnknownCourse(t *testing.T) {
	svc := NewContentService(&mockContentRepo{}, &mockGenCourseRepo{}, nil, nil, time.Minute, nil)

	_, _, err := svc.GetCourseContent(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc := newContentServiceForTest(&mockContentRepo{statusRows: 1}, nil)

	err := svc.UpdateStatus(context.Background(), "course-1", 1, "archived")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusMissingContent(t *testing.T) {
	svc := newContentServiceForTest(&mockContentRepo{statusRows: 0}, nil)

	err := svc.UpdateStatus(context.Background(), "course-1", 7, models.ContentStatusReviewed)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusInvalidatesCache(t *testing.T) {
	contents := &mockContentRepo{statusRows: 1}
	cache := &mockContentCache{}
	svc := newContentServiceForTest(contents, cache)

	require.NoError(t, svc.UpdateStatus(context.Background(), "course-1", 2, models.ContentStatusApproved))
	assert.Equal(t, models.ContentStatusApproved, contents.lastStatus)
	assert.Equal(t, 2, contents.lastStatusWk)
	assert.Equal(t, []string{"content:course-1:*"}, cache.deleted)
}
