package models

import "time"

// Activity represents a scheduled event with a capacity and time window.
type Activity struct {
	ID                   string       `db:"id" json:"id"`
	Name                 string       `db:"name" json:"name"`
	Title                *string      `db:"title" json:"title,omitempty"`
	Location             string       `db:"location" json:"location"`
	StartTime            time.Time    `db:"start_time" json:"start_datetime"`
	EndTime              time.Time    `db:"end_time" json:"end_datetime"`
	Description          string       `db:"description" json:"description"`
	RequiredParticipants int          `db:"required_participants" json:"required_participants"`
	CreatedBy            string       `db:"created_by" json:"created_by"`
	CreatedAt            time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time    `db:"updated_at" json:"updated_at"`
	RecordStatus         RecordStatus `db:"record_status" json:"record_status"`
}

// Overlaps reports whether two half-open time windows share any instant.
func (a Activity) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && a.EndTime.After(start)
}

// IsUpcoming reports whether the activity has not started at the given time.
func (a Activity) IsUpcoming(now time.Time) bool {
	return a.StartTime.After(now)
}

// IsOngoing reports whether now falls within the activity window.
func (a Activity) IsOngoing(now time.Time) bool {
	return !a.StartTime.After(now) && !a.EndTime.Before(now)
}

// ActivityDetail enriches Activity with creator info and the participant
// count derived from the ledger. CurrentParticipants is always computed on
// read; it is never stored.
type ActivityDetail struct {
	Activity
	CreatorName         string `db:"creator_name" json:"creator_name"`
	CurrentParticipants int    `db:"current_participants" json:"current_participants"`
}

// AvailableSpots returns the remaining registration capacity.
func (d ActivityDetail) AvailableSpots() int {
	spots := d.RequiredParticipants - d.CurrentParticipants
	if spots < 0 {
		return 0
	}
	return spots
}

// ActivityFilter provides filters for listing activities.
type ActivityFilter struct {
	CreatedBy    string
	UpcomingOnly bool
	Search       string
}
