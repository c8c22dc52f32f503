package models

import "time"

// ParticipationStatus represents the lifecycle of a participation record.
type ParticipationStatus string

const (
	ParticipationRegistered ParticipationStatus = "registered"
	ParticipationAttended   ParticipationStatus = "attended"
	ParticipationCancelled  ParticipationStatus = "cancelled"
	ParticipationNoShow     ParticipationStatus = "no_show"
)

// Valid returns true when the status is a supported value.
func (s ParticipationStatus) Valid() bool {
	switch s {
	case ParticipationRegistered, ParticipationAttended, ParticipationCancelled, ParticipationNoShow:
		return true
	default:
		return false
	}
}

// Engaged reports whether the status holds a seat against the activity
// capacity. A user may have at most one engaged record per activity.
func (s ParticipationStatus) Engaged() bool {
	return s == ParticipationRegistered || s == ParticipationAttended
}

// CanTransitionTo enforces the participation state machine:
// registered -> attended | cancelled | no_show, cancelled/no_show ->
// registered, attended is terminal.
func (s ParticipationStatus) CanTransitionTo(next ParticipationStatus) bool {
	switch s {
	case ParticipationRegistered:
		return next == ParticipationAttended || next == ParticipationCancelled || next == ParticipationNoShow
	case ParticipationCancelled, ParticipationNoShow:
		return next == ParticipationRegistered
	default:
		return false
	}
}

// Participant captures a user's registration state for one activity.
type Participant struct {
	ID           string              `db:"id" json:"id"`
	ActivityID   string              `db:"activity_id" json:"activity"`
	UserID       string              `db:"user_id" json:"user"`
	Status       ParticipationStatus `db:"participation_status" json:"participation_status"`
	RegisteredAt time.Time           `db:"registered_at" json:"registration_date"`
	Notes        *string             `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at" json:"updated_at"`
	RecordStatus RecordStatus        `db:"record_status" json:"record_status"`
}

// ParticipantDetail enriches Participant with activity and user context.
type ParticipantDetail struct {
	Participant
	ParticipantName string    `db:"participant_name" json:"participant_name"`
	ParticipantRole UserRole  `db:"participant_role" json:"participant_role"`
	ActivityName    string    `db:"activity_name" json:"activity_name"`
	ActivityStart   time.Time `db:"activity_start" json:"activity_start"`
	ActivityEnd     time.Time `db:"activity_end" json:"activity_end"`
	ActivityOwner   string    `db:"activity_owner" json:"-"`
	CanCancel       bool      `db:"-" json:"can_cancel"`
	CanAttend       bool      `db:"-" json:"can_attend"`
}

// Derive fills the computed permissions relative to now.
func (d *ParticipantDetail) Derive(now time.Time) {
	d.CanCancel = d.Status == ParticipationRegistered && d.ActivityStart.After(now)
	d.CanAttend = d.Status == ParticipationRegistered &&
		!d.ActivityStart.After(now) && !d.ActivityEnd.Before(now)
}

// ParticipantFilter provides filters for listing participation records.
type ParticipantFilter struct {
	ActivityID   string
	UserID       string
	Status       ParticipationStatus
	UpcomingOnly bool
	Search       string
}

// ParticipationStats partitions the ledger of one activity by status.
type ParticipationStats struct {
	TotalRegistered   int     `db:"total_registered" json:"total_registered"`
	TotalAttended     int     `db:"total_attended" json:"total_attended"`
	TotalCancelled    int     `db:"total_cancelled" json:"total_cancelled"`
	TotalNoShow       int     `db:"total_no_show" json:"total_no_show"`
	TotalParticipants int     `db:"total_participants" json:"total_participants"`
	AttendanceRate    float64 `db:"-" json:"attendance_rate"`
}
