package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/pkg/config"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/storage"
)

type mockUploadCourseRepo struct {
	mu       sync.Mutex
	courses  map[string]*models.Course
	appended []models.UploadedFile
}

func (m *mockUploadCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUploadCourseRepo) AppendUploadedFile(ctx context.Context, courseID string, file models.UploadedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appended = append(m.appended, file)
	return nil
}

func uploadTestConfig() config.UploadsConfig {
	return config.UploadsConfig{
		SignedURLSecret:  "test-secret",
		SignedURLTTL:     time.Minute,
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"application/pdf", "text/plain"},
		WorkerCount:      1,
	}
}

func newUploadService(t *testing.T, repo *mockUploadCourseRepo) *UploadService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	return NewUploadService(repo, store, signer, nil, uploadTestConfig(), nil)
}

func TestUploadEnqueueRejectsOversizedFile(t *testing.T) {
	repo := &mockUploadCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	svc := newUploadService(t, repo)

	_, err := svc.Enqueue(context.Background(), UploadRequest{
		CourseID: "course-1",
		Name:     "big.pdf",
		MIMEType: "application/pdf",
		Size:     4096,
		Data:     make([]byte, 4096),
	}, instructorClaims("instructor-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadEnqueueRejectsDisallowedMIME(t *testing.T) {
	repo := &mockUploadCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	svc := newUploadService(t, repo)

	_, err := svc.Enqueue(context.Background(), UploadRequest{
		CourseID: "course-1",
		Name:     "malware.exe",
		MIMEType: "application/octet-stream",
		Size:     10,
		Data:     []byte("x"),
	}, instructorClaims("instructor-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUploadEnqueueEnforcesOwnership(t *testing.T) {
	repo := &mockUploadCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	svc := newUploadService(t, repo)

	_, err := svc.Enqueue(context.Background(), UploadRequest{
		CourseID: "course-1",
		Name:     "notes.pdf",
		MIMEType: "application/pdf",
		Size:     10,
		Data:     []byte("x"),
	}, instructorClaims("someone-else"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUploadPipelineStoresFileAndRecordsIt(t *testing.T) {
	repo := &mockUploadCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	svc := newUploadService(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	file, err := svc.Enqueue(ctx, UploadRequest{
		CourseID: "course-1",
		Name:     "notes.pdf",
		MIMEType: "application/pdf",
		Size:     5,
		Data:     []byte("hello"),
	}, instructorClaims("instructor-1"))
	require.NoError(t, err)
	require.NotEmpty(t, file.FileID)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.appended) == 1
	}, 2*time.Second, 10*time.Millisecond)

	repo.mu.Lock()
	stored := repo.appended[0]
	repo.mu.Unlock()
	assert.Equal(t, file.FileID, stored.FileID)
	assert.Equal(t, "notes.pdf", stored.Name)

	f, err := svc.store.Open(stored.Path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestUploadSignAndResolveRoundTrip(t *testing.T) {
	repo := &mockUploadCourseRepo{courses: map[string]*models.Course{"course-1": genTestCourse()}}
	svc := newUploadService(t, repo)

	files := []models.UploadedFile{{
		FileID: "file-1",
		Name:   "notes.pdf",
		Path:   "courses/course-1/file-1_notes.pdf",
	}}
	signed, err := svc.Sign(files)
	require.NoError(t, err)
	require.Len(t, signed, 1)
	assert.Contains(t, signed[0].URL, "/api/v1/files/")

	token := signed[0].URL[len("/api/v1/files/"):]
	path, err := svc.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, files[0].Path, path)

	_, err = svc.Resolve("tampered-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
