package models

import "time"

// Resource is a material attached to an activity.
type Resource struct {
	ID           string       `db:"id" json:"id"`
	Name         string       `db:"name" json:"name"`
	Description  *string      `db:"description" json:"description,omitempty"`
	ActivityID   string       `db:"activity_id" json:"activity"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	RecordStatus RecordStatus `db:"record_status" json:"record_status"`
}

// ResourceDetail enriches Resource with activity and creator context.
type ResourceDetail struct {
	Resource
	ActivityName string `db:"activity_name" json:"activity_name"`
	CreatorName  string `db:"creator_name" json:"creator_name"`
}

// ResourceFilter provides filters for listing resources.
type ResourceFilter struct {
	ActivityID string
	CreatedBy  string
	Search     string
}
