package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/studybuddy/studybuddy-api/internal/models"
)

const contentColumns = `id, course_id, week, mcqs, quiz_questions, easy_questions, video_suggestions, presentation, status, generated_at, created_at, updated_at`

// ContentRepository manages persistence for generated weekly content.
// There is at most one record per (course_id, week); regeneration replaces
// the payload in place.
type ContentRepository struct {
	db *sqlx.DB
}

// NewContentRepository constructs a ContentRepository.
func NewContentRepository(db *sqlx.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

// Upsert stores content for a course week. If a record already exists for the
// same (course_id, week) the payload is replaced atomically and the original
// record ID is preserved; the unique index backs the conflict target, so two
// concurrent writers cannot create duplicates. The stored id and created_at
// are read back into content so regeneration reports the surviving identity
// rather than the candidate one.
func (r *ContentRepository) Upsert(ctx context.Context, content *models.GeneratedContent) error {
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if content.GeneratedAt.IsZero() {
		content.GeneratedAt = now
	}
	content.CreatedAt = now
	content.UpdatedAt = now

	const query = `INSERT INTO generated_content (id, course_id, week, mcqs, quiz_questions, easy_questions, video_suggestions, presentation, status, generated_at, created_at, updated_at)
		VALUES (:id, :course_id, :week, :mcqs, :quiz_questions, :easy_questions, :video_suggestions, :presentation, :status, :generated_at, :created_at, :updated_at)
		ON CONFLICT (course_id, week) DO UPDATE SET
			mcqs = EXCLUDED.mcqs,
			quiz_questions = EXCLUDED.quiz_questions,
			easy_questions = EXCLUDED.easy_questions,
			video_suggestions = EXCLUDED.video_suggestions,
			presentation = EXCLUDED.presentation,
			status = EXCLUDED.status,
			generated_at = EXCLUDED.generated_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	rows, err := r.db.NamedQueryContext(ctx, query, content)
	if err != nil {
		return fmt.Errorf("upsert generated content: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("upsert generated content: %w", err)
		}
		return fmt.Errorf("upsert generated content: no row returned")
	}
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := rows.StructScan(&stored); err != nil {
		return fmt.Errorf("scan upserted content: %w", err)
	}
	content.ID = stored.ID
	content.CreatedAt = stored.CreatedAt
	return nil
}

// ListByCourse returns a course's generated content ordered by week. When
// week is non-nil only that week is returned. A course with no content yields
// an empty slice, not an error.
func (r *ContentRepository) ListByCourse(ctx context.Context, courseID string, week *int) ([]models.GeneratedContent, error) {
	query := fmt.Sprintf("SELECT %s FROM generated_content WHERE course_id = $1", contentColumns)
	args := []interface{}{courseID}
	if week != nil {
		query += " AND week = $2"
		args = append(args, *week)
	}
	query += " ORDER BY week ASC"

	content := []models.GeneratedContent{}
	if err := r.db.SelectContext(ctx, &content, query, args...); err != nil {
		return nil, fmt.Errorf("list generated content: %w", err)
	}
	return content, nil
}

// FindByCourseWeek fetches the single content record for a course week.
func (r *ContentRepository) FindByCourseWeek(ctx context.Context, courseID string, week int) (*models.GeneratedContent, error) {
	query := fmt.Sprintf("SELECT %s FROM generated_content WHERE course_id = $1 AND week = $2", contentColumns)
	var content models.GeneratedContent
	if err := r.db.GetContext(ctx, &content, query, courseID, week); err != nil {
		return nil, err
	}
	return &content, nil
}

// UpdateStatus moves a week's content through the review lifecycle. Returns
// the number of rows affected so callers can distinguish a missing record.
func (r *ContentRepository) UpdateStatus(ctx context.Context, courseID string, week int, status models.ContentStatus) (int64, error) {
	const query = `UPDATE generated_content SET status = $3, updated_at = $4 WHERE course_id = $1 AND week = $2`
	res, err := r.db.ExecContext(ctx, query, courseID, week, status, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("update content status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update content status rows: %w", err)
	}
	return rows, nil
}

// DeleteByCourse removes all generated content for a course.
func (r *ContentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM generated_content WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("delete generated content: %w", err)
	}
	return nil
}
