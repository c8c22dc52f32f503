package models

import "time"

// ExportJobStatus tracks the lifecycle of an async roster export.
type ExportJobStatus string

const (
	ExportJobPending   ExportJobStatus = "pending"
	ExportJobRunning   ExportJobStatus = "running"
	ExportJobCompleted ExportJobStatus = "completed"
	ExportJobFailed    ExportJobStatus = "failed"
)

// ExportJob describes a queued roster export and, once completed, the signed
// link participants' organizers use to download the rendered file.
type ExportJob struct {
	ID          string          `json:"id"`
	ActivityID  string          `json:"activity"`
	Format      string          `json:"format"`
	Status      ExportJobStatus `json:"status"`
	FileName    string          `json:"-"`
	DownloadURL string          `json:"download_url,omitempty"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	RequestedBy string          `json:"requested_by"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}
