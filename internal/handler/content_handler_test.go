package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-api/internal/middleware"
	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/internal/service"
	"github.com/studybuddy/studybuddy-api/pkg/genai"
	"github.com/studybuddy/studybuddy-api/pkg/response"
)

type courseRepoStub struct {
	courses map[string]*models.Course
}

func (s *courseRepoStub) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	return nil, 0, nil
}

func (s *courseRepoStub) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := s.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *courseRepoStub) Create(ctx context.Context, course *models.Course) error { return nil }

func (s *courseRepoStub) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	return nil
}

func (s *courseRepoStub) Delete(ctx context.Context, id string) error { return nil }

type contentRepoStub struct {
	content []models.GeneratedContent
	stored  []*models.GeneratedContent
}

func (s *contentRepoStub) Upsert(ctx context.Context, content *models.GeneratedContent) error {
	content.ID = "content-1"
	s.stored = append(s.stored, content)
	return nil
}

func (s *contentRepoStub) ListByCourse(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, error) {
	return s.content, nil
}

func (s *contentRepoStub) UpdateStatus(ctx context.Context, courseID string, week int, status models.ContentStatus) (int64, error) {
	return 1, nil
}

type genaiStub struct {
	raw json.RawMessage
	err error
}

func (s *genaiStub) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}) (json.RawMessage, error) {
	return s.raw, s.err
}

func handlerCourse() *models.Course {
	return &models.Course{
		ID:           "course-1",
		Name:         "Distributed Systems",
		Code:         "CS-404",
		InstructorID: "instructor-1",
		Status:       models.CourseStatusDraft,
		WeeklyContent: models.WeeklyContentList{
			{Week: 1, Topics: "Introduction"},
		},
	}
}

func handlerBundleJSON(t *testing.T) json.RawMessage {
	t.Helper()
	bundle := models.ContentBundle{
		Presentation: models.Presentation{
			Title:              "Week 1",
			TotalSlides:        16,
			LearningObjectives: []string{"objective"},
		},
	}
	for i := 0; i < 5; i++ {
		bundle.MCQs = append(bundle.MCQs, models.MCQ{
			Question: "q", Options: []string{"a", "b", "c", "d"}, Correct: 0,
			Explanation: "e", Difficulty: models.DifficultyEasy,
		})
	}
	for i := 0; i < 4; i++ {
		bundle.QuizQuestions = append(bundle.QuizQuestions, models.QuizQuestion{
			Question: "q", Type: models.QuestionTypeShort, Points: 10, Rubric: "r", ExpectedAnswer: "a",
		})
	}
	for i := 0; i < 3; i++ {
		bundle.EasyQuestions = append(bundle.EasyQuestions, models.QuizQuestion{
			Question: "q", Type: models.QuestionTypeShort, Points: 5, Rubric: "r", ExpectedAnswer: "a",
		})
	}
	for i := 0; i < 4; i++ {
		bundle.VideoSuggestions = append(bundle.VideoSuggestions, models.VideoSuggestion{
			Title: "t", SearchQuery: "s", Duration: "10 minutes", Topics: []string{"x"}, Level: models.VideoLevelBeginner,
		})
	}
	for i := 0; i < 16; i++ {
		bundle.Presentation.Slides = append(bundle.Presentation.Slides, models.PresentationSlide{
			Title: "s", Content: []string{"c"}, SlideType: models.SlideTypeContent,
		})
	}
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)
	return raw
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newContentHandler(courses *courseRepoStub, contents *contentRepoStub, client genai.Client) *ContentHandler {
	courseSvc := service.NewCourseService(courses, nil, nil)
	generationSvc := service.NewGenerationService(courses, contents, nil, client, nil, nil)
	contentSvc := service.NewContentService(contents, courses, nil, nil, 0, nil)
	exportSvc := service.NewExportService(nil, courses, nil)
	return NewContentHandler(generationSvc, contentSvc, courseSvc, exportSvc)
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func ownerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "instructor-1", Role: models.RoleInstructor}
}

func TestContentHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	contents := &contentRepoStub{}
	handler := newContentHandler(courses, contents, &genaiStub{raw: handlerBundleJSON(t)})

	payload, _ := json.Marshal(GenerateContentRequest{CourseID: "course-1", Week: 1})
	c, w := newGinContext(http.MethodPost, "/generate-content", payload)
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, contents.stored, 1)
	assert.Contains(t, w.Body.String(), `"content"`)
}

func TestContentHandlerGenerateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newContentHandler(&courseRepoStub{}, &contentRepoStub{}, &genaiStub{})

	c, w := newGinContext(http.MethodPost, "/generate-content", []byte(`{"courseId":"course-1"}`))
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}

func TestContentHandlerGenerateUnknownCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newContentHandler(&courseRepoStub{}, &contentRepoStub{}, &genaiStub{})

	payload, _ := json.Marshal(GenerateContentRequest{CourseID: "missing", Week: 1})
	c, w := newGinContext(http.MethodPost, "/generate-content", payload)
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandlerGenerateQuotaExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{}, &genaiStub{err: genai.ErrQuota})

	payload, _ := json.Marshal(GenerateContentRequest{CourseID: "course-1", Week: 1})
	c, w := newGinContext(http.MethodPost, "/generate-content", payload)
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "quota_error", envelope.Error.Code)
}

func TestContentHandlerGenerateNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{}, &genaiStub{err: genai.ErrNotConfigured})

	payload, _ := json.Marshal(GenerateContentRequest{CourseID: "course-1", Week: 1})
	c, w := newGinContext(http.MethodPost, "/generate-content", payload)
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.Generate(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "configuration_error", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "OpenAI API key")
}

func TestContentHandlerGenerateForbiddenForOtherInstructor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{}, &genaiStub{})

	payload, _ := json.Marshal(GenerateContentRequest{CourseID: "course-1", Week: 1})
	c, w := newGinContext(http.MethodPost, "/generate-content", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "intruder", Role: models.RoleInstructor})

	handler.Generate(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestContentHandlerGetContentEmptyCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{content: []models.GeneratedContent{}}, &genaiStub{})

	c, w := newGinContext(http.MethodGet, "/courses/course-1/content", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.GetContent(c)
	require.Equal(t, http.StatusOK, w.Code, "a course without content is empty, not missing")
	assert.Contains(t, w.Body.String(), `"content":[]`)
}

func TestContentHandlerGetContentUnknownCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newContentHandler(&courseRepoStub{}, &contentRepoStub{}, &genaiStub{})

	c, w := newGinContext(http.MethodGet, "/courses/missing/content", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.GetContent(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentHandlerGetContentRejectsBadWeek(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{}, &genaiStub{})

	c, w := newGinContext(http.MethodGet, "/courses/course-1/content?week=zero", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.GetContent(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentHandlerUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": handlerCourse()}}
	handler := newContentHandler(courses, &contentRepoStub{}, &genaiStub{})

	payload, _ := json.Marshal(UpdateContentStatusRequest{Status: models.ContentStatusReviewed})
	c, w := newGinContext(http.MethodPatch, "/courses/course-1/content/1/status", payload)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}, {Key: "week", Value: "1"}}
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.UpdateStatus(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestContentHandlerGenerateAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	course := handlerCourse()
	course.WeeklyContent = models.WeeklyContentList{
		{Week: 1, Topics: "Introduction"},
		{Week: 2, Topics: "Models"},
	}
	courses := &courseRepoStub{courses: map[string]*models.Course{"course-1": course}}
	contents := &contentRepoStub{}
	handler := newContentHandler(courses, contents, &genaiStub{raw: handlerBundleJSON(t)})

	c, w := newGinContext(http.MethodPost, "/courses/course-1/generate-all", nil)
	c.Params = gin.Params{{Key: "id", Value: "course-1"}}
	c.Set(middleware.ContextUserKey, ownerClaims())

	handler.GenerateAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"succeeded":2`)
	assert.Contains(t, w.Body.String(), `"failed":0`)
}
