package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/studybuddy/studybuddy-api/internal/models"
)

func TestCourseRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO courses")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	course := &models.Course{
		Name:         "Distributed Systems",
		Code:         "CS-404",
		Level:        "400",
		Semester:     "First",
		Credits:      3,
		Description:  "Consensus, replication and fault tolerance.",
		Status:       models.CourseStatusDraft,
		InstructorID: "instructor-1",
		WeeklyContent: models.WeeklyContentList{
			{Week: 1, Topics: "Introduction; system models"},
		},
	}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "level", "semester", "credits", "description", "objectives", "learning_outcomes", "requirements", "assessment_mode", "weekly_content", "uploaded_files", "students", "status", "instructor_id", "created_at", "updated_at"}).
		AddRow(course.ID, course.Name, course.Code, course.Level, course.Semester, course.Credits, course.Description, "", "", "", "", `[{"week":1,"topics":"Introduction; system models"}]`, `[]`, 0, "draft", "instructor-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE id = $1")).
		WithArgs(course.ID).
		WillReturnRows(rows)

	fetched, err := repo.FindByID(context.Background(), course.ID)
	require.NoError(t, err)
	require.Equal(t, "CS-404", fetched.Code)
	require.Len(t, fetched.WeeklyContent, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListFiltersByInstructor(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "level", "semester", "credits", "description", "objectives", "learning_outcomes", "requirements", "assessment_mode", "weekly_content", "uploaded_files", "students", "status", "instructor_id", "created_at", "updated_at"}).
		AddRow("course-1", "Distributed Systems", "CS-404", "400", "First", 3, "", "", "", "", "", `[]`, `[]`, 0, "active", "instructor-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC")).
		WithArgs("instructor-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE instructor_id = $1")).
		WithArgs("instructor-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	courses, total, err := repo.List(context.Background(), models.CourseFilter{InstructorID: "instructor-1", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, courses, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryAppendUploadedFile(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE courses SET uploaded_files = COALESCE(uploaded_files, '[]'::jsonb) || $2::jsonb, updated_at = $3 WHERE id = $1")).
		WithArgs("course-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AppendUploadedFile(context.Background(), "course-1", models.UploadedFile{
		FileID:   "file-1",
		Name:     "syllabus.pdf",
		Path:     "courses/course-1/syllabus.pdf",
		MIMEType: "application/pdf",
		Size:     2048,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteCascadesContent(t *testing.T) {
	db, mock, cleanup := newContentRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM generated_content WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM courses WHERE id = $1")).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "course-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
