package models

import "time"

// Feedback is a rating and comment left by an attendee of an activity.
// At most one feedback exists per (author, activity) pair.
type Feedback struct {
	ID         string    `db:"id" json:"id"`
	ActivityID string    `db:"activity_id" json:"activity"`
	CreatedBy  string    `db:"created_by" json:"created_by"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// FeedbackDetail enriches Feedback with author and activity context.
type FeedbackDetail struct {
	Feedback
	AuthorName   string `db:"author_name" json:"author_name"`
	ActivityName string `db:"activity_name" json:"activity_name"`
}
