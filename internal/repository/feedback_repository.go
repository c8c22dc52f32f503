package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

const feedbackDetailColumns = `f.id, f.activity_id, f.created_by, f.rating, f.comment, f.created_at, f.updated_at,
        COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.phone_number) AS author_name,
        a.name AS activity_name`

const feedbackDetailJoins = `FROM feedbacks f
JOIN users u ON u.id = f.created_by
JOIN activities a ON a.id = f.activity_id`

// FeedbackRepository owns persistence for activity feedback.
type FeedbackRepository struct {
	db *sqlx.DB
}

// NewFeedbackRepository constructs the repository.
func NewFeedbackRepository(db *sqlx.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create inserts a new feedback entry, assigning an id when none is set.
func (r *FeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	feedback.CreatedAt = now
	feedback.UpdatedAt = now

	const query = `INSERT INTO feedbacks (id, activity_id, created_by, rating, comment, created_at, updated_at)
        VALUES (:id, :activity_id, :created_by, :rating, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// FindByID returns a feedback entry by identifier.
func (r *FeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	const query = `SELECT id, activity_id, created_by, rating, comment, created_at, updated_at
        FROM feedbacks WHERE id = $1`
	var feedback models.Feedback
	if err := r.db.GetContext(ctx, &feedback, query, id); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// FindDetailByID returns a feedback entry with author and activity context.
func (r *FeedbackRepository) FindDetailByID(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE f.id = $1`, feedbackDetailColumns, feedbackDetailJoins)
	var detail models.FeedbackDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsByAuthorAndActivity reports whether the author already left feedback
// for the activity.
func (r *FeedbackRepository) ExistsByAuthorAndActivity(ctx context.Context, authorID, activityID string) (bool, error) {
	const query = `SELECT 1 FROM feedbacks WHERE created_by = $1 AND activity_id = $2 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, authorID, activityID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check existing feedback: %w", err)
	}
	return true, nil
}

// ListByActivity returns every feedback entry for one activity, newest first.
func (r *FeedbackRepository) ListByActivity(ctx context.Context, activityID string) ([]models.FeedbackDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE f.activity_id = $1 ORDER BY f.created_at DESC`,
		feedbackDetailColumns, feedbackDetailJoins)
	var details []models.FeedbackDetail
	if err := r.db.SelectContext(ctx, &details, query, activityID); err != nil {
		return nil, fmt.Errorf("list feedback by activity: %w", err)
	}
	return details, nil
}

// ListByAuthor returns every feedback entry written by one user, newest first.
func (r *FeedbackRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.FeedbackDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE f.created_by = $1 ORDER BY f.created_at DESC`,
		feedbackDetailColumns, feedbackDetailJoins)
	var details []models.FeedbackDetail
	if err := r.db.SelectContext(ctx, &details, query, authorID); err != nil {
		return nil, fmt.Errorf("list feedback by author: %w", err)
	}
	return details, nil
}

// List returns every feedback entry, newest first.
func (r *FeedbackRepository) List(ctx context.Context) ([]models.FeedbackDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s ORDER BY f.created_at DESC`,
		feedbackDetailColumns, feedbackDetailJoins)
	var details []models.FeedbackDetail
	if err := r.db.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return details, nil
}

// Update persists the rating and comment of a feedback entry.
func (r *FeedbackRepository) Update(ctx context.Context, feedback *models.Feedback) error {
	feedback.UpdatedAt = time.Now().UTC()
	const query = `UPDATE feedbacks SET rating = :rating, comment = :comment, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, feedback); err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return nil
}

// Delete removes a feedback entry permanently.
func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feedbacks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}
