package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-api/internal/models"
)

func newContentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestContentRepositoryUpsertInsertsConflictClause(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	createdAt := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO generated_content")).
		WithArgs(sqlmock.AnyArg(), "course-1", 3, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "generated", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("content-1", createdAt))

	content := &models.GeneratedContent{
		CourseID: "course-1",
		Week:     3,
		MCQs: models.MCQList{{
			Question:    "What is a goroutine?",
			Options:     []string{"a thread", "a lightweight routine", "a process", "a channel"},
			Correct:     1,
			Difficulty:  models.DifficultyEasy,
			Explanation: "Goroutines are lightweight routines managed by the runtime.",
		}},
		Status: models.ContentStatusGenerated,
	}
	require.NoError(t, repo.Upsert(context.Background(), content))
	require.Equal(t, "content-1", content.ID)
	require.Equal(t, createdAt, content.CreatedAt)
	require.False(t, content.GeneratedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryUpsertRegenerationKeepsStoredIdentity(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	originalCreatedAt := time.Now().UTC().Add(-time.Hour)
	// First write inserts a new row.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO generated_content")).
		WithArgs(sqlmock.AnyArg(), "course-1", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "generated", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("content-original", originalCreatedAt))
	// Second write hits the conflict path: the database keeps the original
	// row's id and created_at and reports them through RETURNING.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO generated_content")).
		WithArgs(sqlmock.AnyArg(), "course-1", 1, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "generated", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("content-original", originalCreatedAt))

	first := &models.GeneratedContent{CourseID: "course-1", Week: 1, Status: models.ContentStatusGenerated}
	require.NoError(t, repo.Upsert(context.Background(), first))
	require.Equal(t, "content-original", first.ID)

	second := &models.GeneratedContent{CourseID: "course-1", Week: 1, Status: models.ContentStatusGenerated}
	require.NoError(t, repo.Upsert(context.Background(), second))
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, originalCreatedAt, second.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "week", "mcqs", "quiz_questions", "easy_questions", "video_suggestions", "presentation", "status", "generated_at", "created_at", "updated_at"}).
		AddRow("content-1", "course-1", 1, `[]`, `[]`, `[]`, `[]`, `{"title":"Week 1","slides":[],"totalSlides":15}`, "generated", time.Now(), time.Now(), time.Now()).
		AddRow("content-2", "course-1", 2, `[]`, `[]`, `[]`, `[]`, `{"title":"Week 2","slides":[],"totalSlides":15}`, "reviewed", time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, week, mcqs, quiz_questions, easy_questions, video_suggestions, presentation, status, generated_at, created_at, updated_at FROM generated_content WHERE course_id = $1 ORDER BY week ASC")).
		WithArgs("course-1").
		WillReturnRows(rows)

	content, err := repo.ListByCourse(context.Background(), "course-1", nil)
	require.NoError(t, err)
	require.Len(t, content, 2)
	require.Equal(t, 1, content[0].Week)
	require.Equal(t, 2, content[1].Week)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryListByCourseSingleWeek(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "week", "mcqs", "quiz_questions", "easy_questions", "video_suggestions", "presentation", "status", "generated_at", "created_at", "updated_at"}).
		AddRow("content-2", "course-1", 2, `[]`, `[]`, `[]`, `[]`, `{"title":"Week 2","slides":[],"totalSlides":15}`, "generated", time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, week, mcqs, quiz_questions, easy_questions, video_suggestions, presentation, status, generated_at, created_at, updated_at FROM generated_content WHERE course_id = $1 AND week = $2 ORDER BY week ASC")).
		WithArgs("course-1", 2).
		WillReturnRows(rows)

	week := 2
	content, err := repo.ListByCourse(context.Background(), "course-1", &week)
	require.NoError(t, err)
	require.Len(t, content, 1)
	require.Equal(t, 2, content[0].Week)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryListByCourseEmpty(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "course_id", "week", "mcqs", "quiz_questions", "easy_questions", "video_suggestions", "presentation", "status", "generated_at", "created_at", "updated_at"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, course_id, week, mcqs, quiz_questions, easy_questions, video_suggestions, presentation, status, generated_at, created_at, updated_at FROM generated_content WHERE course_id = $1 ORDER BY week ASC")).
		WithArgs("course-empty").
		WillReturnRows(rows)

	content, err := repo.ListByCourse(context.Background(), "course-empty", nil)
	require.NoError(t, err)
	require.NotNil(t, content)
	require.Empty(t, content)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE generated_content SET status = $3, updated_at = $4 WHERE course_id = $1 AND week = $2")).
		WithArgs("course-1", 2, models.ContentStatusReviewed, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := repo.UpdateStatus(context.Background(), "course-1", 2, models.ContentStatusReviewed)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContentRepositoryUpdateStatusMissingRecord(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewContentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE generated_content SET status = $3, updated_at = $4 WHERE course_id = $1 AND week = $2")).
		WithArgs("course-1", 9, models.ContentStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := repo.UpdateStatus(context.Background(), "course-1", 9, models.ContentStatusApproved)
	require.NoError(t, err)
	require.EqualValues(t, 0, rows)
	require.NoError(t, mock.ExpectationsWereMet())
}
