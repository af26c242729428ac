package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/studybuddy/studybuddy-api/internal/middleware"
	"github.com/studybuddy/studybuddy-api/internal/models"
	"github.com/studybuddy/studybuddy-api/internal/service"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/response"
)

// GenerateContentRequest asks for one week's content to be generated.
type GenerateContentRequest struct {
	CourseID string `json:"courseId" binding:"required"`
	Week     int    `json:"week" binding:"required,min=1"`
}

// UpdateContentStatusRequest moves a week's bundle through review.
type UpdateContentStatusRequest struct {
	Status models.ContentStatus `json:"status" binding:"required"`
}

// ContentHandler wires content generation and retrieval to HTTP routes.
type ContentHandler struct {
	generation *service.GenerationService
	contents   *service.ContentService
	courses    *service.CourseService
	exports    *service.ExportService
}

// NewContentHandler constructs a new ContentHandler.
func NewContentHandler(generation *service.GenerationService, contents *service.ContentService, courses *service.CourseService, exports *service.ExportService) *ContentHandler {
	return &ContentHandler{
		generation: generation,
		contents:   contents,
		courses:    courses,
		exports:    exports,
	}
}

// Generate godoc
// @Summary Generate content for one course week
// @Description Produces the five-part content bundle for the requested week
// @Description and stores it, replacing any previous bundle for that week.
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body GenerateContentRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /generate-content [post]
func (h *ContentHandler) Generate(c *gin.Context) {
	var req GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "courseId and a positive week are required"))
		return
	}
	if err := h.authorizeCourse(c, req.CourseID); err != nil {
		response.Error(c, err)
		return
	}

	content, err := h.generation.GenerateWeek(c.Request.Context(), req.CourseID, req.Week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"content": content}, nil)
}

// GenerateAll godoc
// @Summary Generate content for every week of a course
// @Description Fans out one generation per syllabus week. Weeks fail
// @Description independently; the response always carries one outcome per week.
// @Tags Content
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/generate-all [post]
func (h *ContentHandler) GenerateAll(c *gin.Context) {
	courseID := c.Param("id")
	if err := h.authorizeCourse(c, courseID); err != nil {
		response.Error(c, err)
		return
	}

	outcomes, err := h.generation.GenerateAllWeeks(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
		}
	}
	response.JSON(c, http.StatusOK, gin.H{
		"results":   outcomes,
		"succeeded": succeeded,
		"failed":    len(outcomes) - succeeded,
	}, nil)
}

// GetContent godoc
// @Summary Fetch stored content for a course
// @Description Returns all generated weeks ordered by week number, or a single
// @Description week when the week query parameter is provided. A course without
// @Description content yields an empty list.
// @Tags Content
// @Produce json
// @Param id path string true "Course ID"
// @Param week query int false "Limit to one week"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/content [get]
func (h *ContentHandler) GetContent(c *gin.Context) {
	courseID := c.Param("id")
	if err := h.authorizeCourse(c, courseID); err != nil {
		response.Error(c, err)
		return
	}

	var week *int
	if raw := c.Query("week"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a positive integer"))
			return
		}
		week = &parsed
	}

	content, cached, err := h.contents.GetCourseContent(c.Request.Context(), courseID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, gin.H{"content": content}, nil, middleware.ExtractMeta(c))
}

// UpdateStatus godoc
// @Summary Update the review status of a week's content
// @Tags Content
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param week path int true "Week number"
// @Param payload body UpdateContentStatusRequest true "New status"
// @Success 204 "No Content"
// @Security BearerAuth
// @Router /courses/{id}/content/{week}/status [patch]
func (h *ContentHandler) UpdateStatus(c *gin.Context) {
	courseID := c.Param("id")
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a positive integer"))
		return
	}
	if err := h.authorizeCourse(c, courseID); err != nil {
		response.Error(c, err)
		return
	}

	var req UpdateContentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "status is required"))
		return
	}
	if err := h.contents.UpdateStatus(c.Request.Context(), courseID, week, req.Status); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Export a course's question bank as CSV
// @Tags Content
// @Produce text/csv
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /courses/{id}/export/csv [get]
func (h *ContentHandler) ExportCSV(c *gin.Context) {
	courseID := c.Param("id")
	if err := h.authorizeCourse(c, courseID); err != nil {
		response.Error(c, err)
		return
	}

	payload, filename, err := h.exports.QuestionBankCSV(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportQuizPDF godoc
// @Summary Export one week's quiz paper as PDF
// @Tags Content
// @Produce application/pdf
// @Param id path string true "Course ID"
// @Param week path int true "Week number"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /courses/{id}/export/quiz/{week} [get]
func (h *ContentHandler) ExportQuizPDF(c *gin.Context) {
	courseID := c.Param("id")
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week must be a positive integer"))
		return
	}
	if err := h.authorizeCourse(c, courseID); err != nil {
		response.Error(c, err)
		return
	}

	payload, filename, err := h.exports.QuizPaperPDF(c.Request.Context(), courseID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// authorizeCourse verifies that the caller owns the course (or is an admin)
// before any content operation touches it.
func (h *ContentHandler) authorizeCourse(c *gin.Context, courseID string) error {
	_, err := h.courses.Get(c.Request.Context(), courseID, currentClaims(c))
	return err
}
