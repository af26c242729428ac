package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/internal/service"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/response"
)

// CourseHandler wires course authoring to HTTP routes.
type CourseHandler struct {
	courses *service.CourseService
	uploads *service.UploadService
}

// NewCourseHandler constructs a new CourseHandler.
func NewCourseHandler(courses *service.CourseService, uploads *service.UploadService) *CourseHandler {
	return &CourseHandler{courses: courses, uploads: uploads}
}

// List godoc
// @Summary List the caller's courses
// @Tags Courses
// @Produce json
// @Param status query string false "Filter by status (draft/active)"
// @Param search query string false "Search by name or code"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.CourseFilter{
		InstructorID: claims.UserID,
		Search:       strings.TrimSpace(c.Query("search")),
	}
	if status := c.Query("status"); status != "" {
		s := models.CourseStatus(status)
		filter.Status = &s
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	courses, pagination, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get course detail
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"), currentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create a course
// @Description Accepts either a JSON body or a multipart form with a courseData
// @Description field plus optional reference material files.
// @Tags Courses
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateCourseRequest
	contentType := c.ContentType()
	isMultipart := strings.HasPrefix(contentType, "multipart/form-data")
	if isMultipart {
		raw := c.PostForm("courseData")
		if raw == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "courseData form field is required"))
			return
		}
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid courseData payload"))
			return
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
			return
		}
	}

	course, err := h.courses.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var queued []models.UploadedFile
	if isMultipart {
		queued, err = h.enqueueFormFiles(c, course.ID, claims)
		if err != nil {
			// The course exists; report the upload problem without rolling it back.
			response.JSON(c, http.StatusCreated, gin.H{
				"course":      course,
				"uploadError": appErrors.FromError(err).Message,
			}, nil)
			return
		}
	}

	if len(queued) > 0 {
		response.JSON(c, http.StatusCreated, gin.H{"course": course, "queuedFiles": queued}, nil)
		return
	}
	response.Created(c, course)
}

// UploadFiles godoc
// @Summary Attach reference materials to a course
// @Tags Courses
// @Accept mpfd
// @Produce json
// @Param id path string true "Course ID"
// @Param files formData file true "Files to upload"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/files [post]
func (h *CourseHandler) UploadFiles(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	queued, err := h.enqueueFormFiles(c, c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(queued) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no files were provided"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queuedFiles": queued}, nil)
}

// ListFiles godoc
// @Summary List a course's uploaded materials with signed download URLs
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/files [get]
func (h *CourseHandler) ListFiles(c *gin.Context) {
	course, err := h.courses.Get(c.Request.Context(), c.Param("id"), currentClaims(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	signed, err := h.uploads.Sign(course.UploadedFiles)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, signed, nil)
}

// Activate godoc
// @Summary Publish a draft course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /courses/{id}/activate [post]
func (h *CourseHandler) Activate(c *gin.Context) {
	if err := h.courses.Activate(c.Request.Context(), c.Param("id"), currentClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete a course and its generated content
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courses.Delete(c.Request.Context(), c.Param("id"), currentClaims(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CourseHandler) enqueueFormFiles(c *gin.Context, courseID string, claims *models.JWTClaims) ([]models.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form")
	}

	var queued []models.UploadedFile
	for _, header := range form.File["files"] {
		src, err := header.Open()
		if err != nil {
			return queued, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file")
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return queued, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read uploaded file")
		}

		file, err := h.uploads.Enqueue(c.Request.Context(), service.UploadRequest{
			CourseID: courseID,
			Name:     header.Filename,
			MIMEType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Data:     data,
		}, claims)
		if err != nil {
			return queued, err
		}
		queued = append(queued, *file)
	}
	return queued, nil
}
