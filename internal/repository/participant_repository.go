package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

const participantDetailColumns = `p.id, p.activity_id, p.user_id, p.participation_status, p.registered_at, p.notes,
        p.created_at, p.updated_at, p.record_status,
        COALESCE(NULLIF(TRIM(u.first_name || ' ' || u.last_name), ''), u.phone_number) AS participant_name,
        u.role AS participant_role,
        a.name AS activity_name, a.start_time AS activity_start, a.end_time AS activity_end,
        a.created_by AS activity_owner`

const participantDetailJoins = `FROM activity_participants p
JOIN users u ON u.id = p.user_id
JOIN activities a ON a.id = p.activity_id`

// ParticipantRepository owns persistence for the participation ledger.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs the repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// Register performs the capacity-checked registration inside one transaction.
// The activity row is locked first so concurrent registrations for the last
// open slot serialize: the loser observes the updated count and fails with
// ErrCapacityExceeded. A cancelled or no_show record for the same pair is
// reused instead of inserting a duplicate row.
func (r *ParticipantRepository) Register(ctx context.Context, activityID, userID string, notes *string) (*models.Participant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var capacity int
	if err := tx.GetContext(ctx, &capacity,
		`SELECT required_participants FROM activities WHERE id = $1 AND record_status = $2 FOR UPDATE`,
		activityID, models.RecordActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, fmt.Errorf("lock activity: %w", err)
	}

	// Capacity is judged before the duplicate check, so a full activity
	// reports CapacityExceeded even to a user who already holds a slot.
	var registered int
	if err := tx.GetContext(ctx, &registered,
		`SELECT COUNT(*) FROM activity_participants
         WHERE activity_id = $1 AND participation_status = $2 AND record_status = $3`,
		activityID, models.ParticipationRegistered, models.RecordActive); err != nil {
		return nil, fmt.Errorf("count registered participants: %w", err)
	}
	if registered >= capacity {
		return nil, appErrors.ErrCapacityExceeded
	}

	var existing models.Participant
	err = tx.GetContext(ctx, &existing,
		`SELECT id, activity_id, user_id, participation_status, registered_at, notes, created_at, updated_at, record_status
         FROM activity_participants
         WHERE activity_id = $1 AND user_id = $2 AND record_status = $3
         ORDER BY created_at DESC LIMIT 1`,
		activityID, userID, models.RecordActive)
	hasExisting := err == nil
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("find existing participation: %w", err)
	}

	if hasExisting && existing.Status.Engaged() {
		if existing.Status == models.ParticipationAttended {
			return nil, appErrors.Clone(appErrors.ErrDuplicateRegistration, "user has already attended this activity")
		}
		return nil, appErrors.Clone(appErrors.ErrDuplicateRegistration, "user is already registered for this activity")
	}

	now := time.Now().UTC()
	var stored models.Participant

	if hasExisting {
		// Re-registration path: reuse the cancelled/no_show row.
		if err := tx.GetContext(ctx, &stored,
			`UPDATE activity_participants
             SET participation_status = $2, registered_at = $3, notes = $4, updated_at = $3
             WHERE id = $1
             RETURNING id, activity_id, user_id, participation_status, registered_at, notes, created_at, updated_at, record_status`,
			existing.ID, models.ParticipationRegistered, now, notes); err != nil {
			return nil, fmt.Errorf("reuse participation record: %w", err)
		}
	} else {
		if err := tx.GetContext(ctx, &stored,
			`INSERT INTO activity_participants (id, activity_id, user_id, participation_status, registered_at, notes, created_at, updated_at, record_status)
             VALUES ($1, $2, $3, $4, $5, $6, $5, $5, $7)
             RETURNING id, activity_id, user_id, participation_status, registered_at, notes, created_at, updated_at, record_status`,
			uuid.NewString(), activityID, userID, models.ParticipationRegistered, now, notes, models.RecordActive); err != nil {
			return nil, fmt.Errorf("insert participation record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	committed = true
	return &stored, nil
}

// FindByID returns a participation record by its identifier.
func (r *ParticipantRepository) FindByID(ctx context.Context, id string) (*models.Participant, error) {
	const query = `SELECT id, activity_id, user_id, participation_status, registered_at, notes, created_at, updated_at, record_status
        FROM activity_participants WHERE id = $1 AND record_status = $2`
	var participant models.Participant
	if err := r.db.GetContext(ctx, &participant, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &participant, nil
}

// FindDetailByID returns a participation record with activity and user context.
func (r *ParticipantRepository) FindDetailByID(ctx context.Context, id string) (*models.ParticipantDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.id = $1 AND p.record_status = $2`,
		participantDetailColumns, participantDetailJoins)
	var detail models.ParticipantDetail
	if err := r.db.GetContext(ctx, &detail, query, id, models.RecordActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// FindByActivityAndUser returns the latest active-record participation for a pair.
func (r *ParticipantRepository) FindByActivityAndUser(ctx context.Context, activityID, userID string) (*models.ParticipantDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE p.activity_id = $1 AND p.user_id = $2 AND p.record_status = $3
        ORDER BY p.created_at DESC LIMIT 1`, participantDetailColumns, participantDetailJoins)
	var detail models.ParticipantDetail
	if err := r.db.GetContext(ctx, &detail, query, activityID, userID, models.RecordActive); err != nil {
		return nil, err
	}
	return &detail, nil
}

// HasAttended reports whether the user holds an attended record for the activity.
func (r *ParticipantRepository) HasAttended(ctx context.Context, activityID, userID string) (bool, error) {
	const query = `SELECT 1 FROM activity_participants
        WHERE activity_id = $1 AND user_id = $2 AND participation_status = $3 AND record_status = $4 LIMIT 1`
	var one int
	if err := r.db.GetContext(ctx, &one, query, activityID, userID, models.ParticipationAttended, models.RecordActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attended participation: %w", err)
	}
	return true, nil
}

// List returns participation records matching the filter.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error) {
	where := []string{"p.record_status = $1"}
	args := []interface{}{models.RecordActive}

	if filter.ActivityID != "" {
		where = append(where, fmt.Sprintf("p.activity_id = $%d", len(args)+1))
		args = append(args, filter.ActivityID)
	}
	if filter.UserID != "" {
		where = append(where, fmt.Sprintf("p.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("p.participation_status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.UpcomingOnly {
		where = append(where, fmt.Sprintf("a.start_time > $%d", len(args)+1))
		args = append(args, time.Now().UTC())
	}
	if filter.Search != "" {
		idx := len(args) + 1
		where = append(where, fmt.Sprintf(
			"(LOWER(u.first_name) LIKE $%d OR LOWER(u.last_name) LIKE $%d OR LOWER(a.name) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY p.created_at DESC`,
		participantDetailColumns, participantDetailJoins, strings.Join(where, " AND "))

	var details []models.ParticipantDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return details, nil
}

// UpdateStatus applies a validated status change; callers enforce the
// transition table and temporal guards beforehand.
func (r *ParticipantRepository) UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, notes *string) error {
	const query = `UPDATE activity_participants
        SET participation_status = $2, notes = COALESCE($3, notes), updated_at = $4
        WHERE id = $1 AND record_status = $5`
	if _, err := r.db.ExecContext(ctx, query, id, status, notes, time.Now().UTC(), models.RecordActive); err != nil {
		return fmt.Errorf("update participation status: %w", err)
	}
	return nil
}

// BulkStatusItem pairs a record with its target status.
type BulkStatusItem struct {
	ID     string
	Status models.ParticipationStatus
}

// BulkUpdateStatus applies every item in one transaction. Any error rolls the
// whole batch back so partial updates never persist.
func (r *ParticipantRepository) BulkUpdateStatus(ctx context.Context, items []BulkStatusItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk status update: %w", err)
	}
	now := time.Now().UTC()
	for _, item := range items {
		if _, err := tx.ExecContext(ctx,
			`UPDATE activity_participants SET participation_status = $2, updated_at = $3 WHERE id = $1 AND record_status = $4`,
			item.ID, item.Status, now, models.RecordActive); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bulk update participant %s: %w", item.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk status update: %w", err)
	}
	return nil
}

// StatsByActivity partitions the activity's ledger by participation status.
func (r *ParticipantRepository) StatsByActivity(ctx context.Context, activityID string) (*models.ParticipationStats, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE participation_status = 'registered') AS total_registered,
        COUNT(*) FILTER (WHERE participation_status = 'attended') AS total_attended,
        COUNT(*) FILTER (WHERE participation_status = 'cancelled') AS total_cancelled,
        COUNT(*) FILTER (WHERE participation_status = 'no_show') AS total_no_show,
        COUNT(*) AS total_participants
        FROM activity_participants WHERE activity_id = $1 AND record_status = $2`
	var stats models.ParticipationStats
	if err := r.db.GetContext(ctx, &stats, query, activityID, models.RecordActive); err != nil {
		return nil, fmt.Errorf("participation stats: %w", err)
	}
	return &stats, nil
}

// Retire soft-deletes a participation record.
func (r *ParticipantRepository) Retire(ctx context.Context, id string) error {
	const query = `UPDATE activity_participants SET record_status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.RecordRetired, time.Now().UTC()); err != nil {
		return fmt.Errorf("retire participation record: %w", err)
	}
	return nil
}
