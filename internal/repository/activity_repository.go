package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

const activityDetailColumns = `a.id, a.name, a.title, a.location, a.start_time, a.end_time, a.description,
        a.required_participants, a.created_by, a.created_at, a.updated_at, a.record_status,
        COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.phone_number) AS creator_name,
        (SELECT COUNT(*) FROM activity_participants p
          WHERE p.activity_id = a.id AND p.participation_status = 'registered' AND p.record_status = 'ACTIVE') AS current_participants`

const activityDetailJoins = `FROM activities a
JOIN users u ON u.id = a.created_by`

// ActivityRepository owns persistence for the activity directory.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity, assigning an id when none is set.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now
	if activity.RecordStatus == "" {
		activity.RecordStatus = models.RecordActive
	}

	const query = `INSERT INTO activities (id, name, title, location, start_time, end_time, description,
        required_participants, created_by, created_at, updated_at, record_status)
        VALUES (:id, :name, :title, :location, :start_time, :end_time, :description,
        :required_participants, :created_by, :created_at, :updated_at, :record_status)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// FindByID returns an activity without participation context.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT id, name, title, location, start_time, end_time, description,
        required_participants, created_by, created_at, updated_at, record_status
        FROM activities WHERE id = $1 AND record_status = $2`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &activity, nil
}

// FindDetailByID returns an activity with its creator name and the derived
// count of active registered participants.
func (r *ActivityRepository) FindDetailByID(ctx context.Context, id string) (*models.ActivityDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE a.id = $1 AND a.record_status = $2`,
		activityDetailColumns, activityDetailJoins)
	var detail models.ActivityDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns activity details matching the filter, newest start first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, error) {
	where := []string{"a.record_status = $1"}
	args := []interface{}{models.RecordActive}

	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("a.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.UpcomingOnly {
		where = append(where, fmt.Sprintf("a.start_time > $%d", len(args)+1))
		args = append(args, time.Now().UTC())
	}
	if filter.Search != "" {
		idx := len(args) + 1
		where = append(where, fmt.Sprintf("(LOWER(a.name) LIKE $%d OR LOWER(a.location) LIKE $%d)", idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY a.start_time DESC`,
		activityDetailColumns, activityDetailJoins, strings.Join(where, " AND "))

	var details []models.ActivityDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return details, nil
}

// FindOverlapping returns active activities whose time range intersects
// [start, end), excluding the given activity id when updating.
func (r *ActivityRepository) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]models.Activity, error) {
	where := []string{
		"record_status = $1",
		"start_time < $2",
		"end_time > $3",
	}
	args := []interface{}{models.RecordActive, end, start}
	if excludeID != "" {
		where = append(where, fmt.Sprintf("id <> $%d", len(args)+1))
		args = append(args, excludeID)
	}

	query := fmt.Sprintf(`SELECT id, name, title, location, start_time, end_time, description,
        required_participants, created_by, created_at, updated_at, record_status
        FROM activities WHERE %s`, strings.Join(where, " AND "))

	var overlapping []models.Activity
	if err := r.db.SelectContext(ctx, &overlapping, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping activities: %w", err)
	}
	return overlapping, nil
}

// Update persists editable fields of an activity.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities
        SET name = :name, title = :title, location = :location, start_time = :start_time,
            end_time = :end_time, description = :description,
            required_participants = :required_participants, updated_at = :updated_at
        WHERE id = :id AND record_status = 'ACTIVE'`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// Retire soft-deletes an activity and its active participation records.
func (r *ActivityRepository) Retire(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity retire: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE activities SET record_status = $2, updated_at = $3 WHERE id = $1`,
		id, models.RecordRetired, now); err != nil {
		return fmt.Errorf("retire activity: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE activity_participants SET record_status = $2, updated_at = $3 WHERE activity_id = $1 AND record_status = $4`,
		id, models.RecordRetired, now, models.RecordActive); err != nil {
		return fmt.Errorf("retire activity participants: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity retire: %w", err)
	}
	committed = true
	return nil
}

// Schedule returns activities starting within the next daysAhead days.
func (r *ActivityRepository) Schedule(ctx context.Context, daysAhead int) ([]models.ActivityDetail, error) {
	now := time.Now().UTC()
	until := now.AddDate(0, 0, daysAhead)
	query := fmt.Sprintf(`SELECT %s %s
        WHERE a.record_status = $1 AND a.start_time >= $2 AND a.start_time < $3
        ORDER BY a.start_time ASC`, activityDetailColumns, activityDetailJoins)

	var details []models.ActivityDetail
	if err := r.db.SelectContext(ctx, &details, query, models.RecordActive, now, until); err != nil {
		return nil, fmt.Errorf("activity schedule: %w", err)
	}
	return details, nil
}
