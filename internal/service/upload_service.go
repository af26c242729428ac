package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/pkg/config"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/jobs"
	"github.com/studybuddy/studybuddy-api/pkg/storage"
)

type uploadCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	AppendUploadedFile(ctx context.Context, courseID string, file models.UploadedFile) error
}

// UploadRequest carries one reference material through the upload pipeline.
type UploadRequest struct {
	CourseID string
	Name     string
	MIMEType string
	Size     int64
	Data     []byte
}

// SignedFile is an uploaded file decorated with a time-limited download URL.
type SignedFile struct {
	models.UploadedFile
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadService validates course materials and persists them off the request
// path through a worker queue. Accepted uploads are acknowledged immediately;
// the file lands on disk and on the course record when a worker picks it up.
type UploadService struct {
	courses uploadCourseRepository
	store   *storage.LocalStorage
	signer  *storage.SignedURLSigner
	queue   *jobs.Queue
	metrics *MetricsService
	cfg     config.UploadsConfig
	logger  *zap.Logger
}

// NewUploadService constructs an UploadService. Call Start before enqueuing.
func NewUploadService(courses uploadCourseRepository, store *storage.LocalStorage, signer *storage.SignedURLSigner, metrics *MetricsService, cfg config.UploadsConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &UploadService{
		courses: courses,
		store:   store,
		signer:  signer,
		metrics: metrics,
		cfg:     cfg,
		logger:  logger,
	}
	s.queue = jobs.NewQueue("uploads", s.handleUploadJob, jobs.QueueConfig{
		Workers: cfg.WorkerCount,
		Logger:  logger,
	})
	return s
}

// Start launches the upload workers.
func (s *UploadService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the upload workers.
func (s *UploadService) Stop() {
	s.queue.Stop()
}

// Enqueue validates an upload and schedules it for persistence. The returned
// UploadedFile carries the identity the file will have once stored.
func (s *UploadService) Enqueue(ctx context.Context, req UploadRequest, actor *models.JWTClaims) (*models.UploadedFile, error) {
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	if actor != nil && actor.Role != models.RoleAdmin && course.InstructorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another instructor")
	}

	if req.Size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(req.MIMEType) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file type %q is not accepted", req.MIMEType))
	}

	file := models.UploadedFile{
		FileID:     uuid.NewString(),
		Name:       req.Name,
		MIMEType:   req.MIMEType,
		Size:       req.Size,
		UploadedAt: time.Now().UTC(),
	}
	file.Path = filepath.Join("courses", req.CourseID, file.FileID+"_"+filepath.Base(req.Name))

	job := jobs.Job{
		ID:      file.FileID,
		Type:    "course_upload",
		Payload: uploadJobPayload{CourseID: req.CourseID, File: file, Data: req.Data},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue upload")
	}
	return &file, nil
}

// Sign decorates a course's uploaded files with time-limited download URLs.
func (s *UploadService) Sign(files []models.UploadedFile) ([]SignedFile, error) {
	signed := make([]SignedFile, 0, len(files))
	for _, f := range files {
		token, expiresAt, err := s.signer.Generate(f.FileID, f.Path)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		signed = append(signed, SignedFile{
			UploadedFile: f,
			URL:          "/api/v1/files/" + token,
			ExpiresAt:    expiresAt,
		})
	}
	return signed, nil
}

// Resolve validates a signed download token and returns the stored file path.
func (s *UploadService) Resolve(token string) (string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "download link is invalid or expired")
	}
	return relPath, nil
}

type uploadJobPayload struct {
	CourseID string
	File     models.UploadedFile
	Data     []byte
}

func (s *UploadService) handleUploadJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(uploadJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for job %s", job.Payload, job.ID)
	}

	if _, err := s.store.Save(payload.File.Path, payload.Data); err != nil {
		return fmt.Errorf("store upload %s: %w", payload.File.FileID, err)
	}
	if err := s.courses.AppendUploadedFile(ctx, payload.CourseID, payload.File); err != nil {
		return fmt.Errorf("record upload %s: %w", payload.File.FileID, err)
	}

	s.logger.Info("upload stored",
		zap.String("courseId", payload.CourseID),
		zap.String("fileId", payload.File.FileID),
		zap.String("name", payload.File.Name))
	return nil
}

func (s *UploadService) mimeAllowed(mime string) bool {
	for _, allowed := range s.cfg.AllowedMIMEs {
		if allowed == mime {
			return true
		}
	}
	return false
}
