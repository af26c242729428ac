package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/studybuddy/studybuddy-api/internal/models"
	appErrors "github.com/studybuddy/studybuddy-api/pkg/errors"
	"github.com/studybuddy/studybuddy-api/pkg/export"
)

type exportContentRepository interface {
	ListByCourse(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, error)
	FindByCourseWeek(ctx context.Context, courseID string, week int) (*models.GeneratedContent, error)
}

type exportCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ExportService renders stored content into downloadable documents.
type ExportService struct {
	contents exportContentRepository
	courses  exportCourseRepository
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(contents exportContentRepository, courses exportCourseRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		contents: contents,
		courses:  courses,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// QuestionBankCSV exports every stored question for a course as CSV, one row
// per question across all generated weeks.
func (s *ExportService) QuestionBankCSV(ctx context.Context, courseID string) ([]byte, string, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	content, err := s.contents.ListByCourse(ctx, courseID, nil)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}
	if len(content) == 0 {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course has no generated content to export")
	}

	dataset := export.Dataset{
		Headers: []string{"week", "kind", "question", "type", "difficulty", "points", "answer"},
	}
	for _, c := range content {
		week := strconv.Itoa(c.Week)
		for _, q := range c.MCQs {
			answer := ""
			if q.Correct >= 0 && q.Correct < len(q.Options) {
				answer = q.Options[q.Correct]
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"week":       week,
				"kind":       "mcq",
				"question":   q.Question,
				"difficulty": string(q.Difficulty),
				"answer":     answer,
			})
		}
		for _, q := range c.QuizQuestions {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"week":     week,
				"kind":     "quiz",
				"question": q.Question,
				"type":     string(q.Type),
				"points":   strconv.Itoa(q.Points),
				"answer":   q.ExpectedAnswer,
			})
		}
		for _, q := range c.EasyQuestions {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"week":     week,
				"kind":     "easy",
				"question": q.Question,
				"type":     string(q.Type),
				"points":   strconv.Itoa(q.Points),
				"answer":   q.ExpectedAnswer,
			})
		}
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	filename := fmt.Sprintf("%s_question_bank.csv", sanitizeFilename(course.Code))
	return payload, filename, nil
}

// QuizPaperPDF renders one week's assessment as a printable PDF. Correct
// answers are left off the paper.
func (s *ExportService) QuizPaperPDF(ctx context.Context, courseID string, week int) ([]byte, string, error) {
	course, err := s.findCourse(ctx, courseID)
	if err != nil {
		return nil, "", err
	}

	content, err := s.contents.FindByCourseWeek(ctx, courseID, week)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no generated content for week %d", week))
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load content")
	}

	paper := export.QuizPaper{
		CourseName: course.Name,
		CourseCode: course.Code,
		Week:       week,
	}
	for _, q := range content.MCQs {
		paper.MCQs = append(paper.MCQs, export.PaperMCQ{Question: q.Question, Options: q.Options})
	}
	for _, q := range content.QuizQuestions {
		paper.Questions = append(paper.Questions, export.PaperQuestion{Question: q.Question, Type: string(q.Type), Points: q.Points})
	}
	for _, q := range content.EasyQuestions {
		paper.Questions = append(paper.Questions, export.PaperQuestion{Question: q.Question, Type: string(q.Type), Points: q.Points})
	}

	payload, err := s.pdf.RenderQuizPaper(paper)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	filename := fmt.Sprintf("%s_week%d_quiz.pdf", sanitizeFilename(course.Code), week)
	return payload, filename, nil
}

func (s *ExportService) findCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func sanitizeFilename(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-")
	cleaned := replacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return "course"
	}
	return cleaned
}
