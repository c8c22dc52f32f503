package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/jobs"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/storage"
)

type rosterExporter interface {
	ExportRoster(ctx context.Context, actor *models.JWTClaims, activityID, format string) ([]byte, string, error)
}

// ExportConfig tunes the async export pipeline.
type ExportConfig struct {
	Workers   int
	RetainFor time.Duration
}

// ExportService renders participant rosters in the background and hands out
// signed download links for the stored files.
type ExportService struct {
	roster    rosterExporter
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	queue     *jobs.Queue
	retainFor time.Duration
	logger    *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

type exportPayload struct {
	actor      models.JWTClaims
	activityID string
	format     string
}

// NewExportService builds the service and its worker queue. Call Start before
// enqueueing jobs.
func NewExportService(roster rosterExporter, store *storage.LocalStorage, signer *storage.SignedURLSigner, config ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.RetainFor <= 0 {
		config.RetainFor = 72 * time.Hour
	}

	s := &ExportService{
		roster:    roster,
		store:     store,
		signer:    signer,
		retainFor: config.RetainFor,
		logger:    logger,
		jobs:      make(map[string]*models.ExportJob),
	}
	s.queue = jobs.NewQueue("roster-exports", s.process, jobs.QueueConfig{
		Workers: config.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers and the retention janitor.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
	go s.janitor(ctx)
}

// Stop drains the worker pool.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue registers a roster export job for the given activity. Authorization
// is re-checked when the job runs, using the requester's claims.
func (s *ExportService) Enqueue(ctx context.Context, actor *models.JWTClaims, activityID, format string) (*models.ExportJob, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Field("format", "format must be csv or pdf")
	}
	if strings.TrimSpace(activityID) == "" {
		return nil, appErrors.Field("activity", "activity is required")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		ActivityID:  activityID,
		Format:      format,
		Status:      models.ExportJobPending,
		RequestedBy: actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:   job.ID,
		Type: "roster_export",
		Payload: exportPayload{
			actor:      *actor,
			activityID: activityID,
			format:     format,
		},
	})
	if err != nil {
		s.fail(job.ID, "export queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue roster export")
	}

	s.logger.Sugar().Infow("roster export queued", "job_id", job.ID, "activity_id", activityID, "format", format)
	return s.snapshot(job.ID), nil
}

// Get returns the job state. Only the requester or an imam may inspect a job.
func (s *ExportService) Get(actor *models.JWTClaims, jobID string) (*models.ExportJob, error) {
	job := s.snapshot(jobID)
	if job == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.RequestedBy != actor.UserID && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	return job, nil
}

// Open validates a signed download token and returns a reader over the stored
// file. The token itself is the authorization.
func (s *ExportService) Open(token string) (io.ReadCloser, string, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}

	job := s.snapshot(jobID)
	if job == nil || job.Status != models.ExportJobCompleted {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, "export file not found")
	}
	return file, contentTypeForFormat(job.Format), path.Base(relPath), nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportPayload)
	if !ok {
		s.fail(job.ID, "malformed export payload")
		return nil
	}

	s.transition(job.ID, models.ExportJobRunning)

	data, _, err := s.roster.ExportRoster(ctx, &payload.actor, payload.activityID, payload.format)
	if err != nil {
		s.fail(job.ID, appErrors.FromError(err).Message)
		return nil
	}

	filename := fmt.Sprintf("rosters/%s/%s.%s", payload.activityID, job.ID, payload.format)
	if _, err := s.store.Save(filename, data); err != nil {
		s.fail(job.ID, "failed to store export file")
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, filename)
	if err != nil {
		s.fail(job.ID, "failed to sign download link")
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	if j, ok := s.jobs[job.ID]; ok {
		j.Status = models.ExportJobCompleted
		j.FileName = filename
		j.DownloadURL = "/activity-participants/export-jobs/download/?token=" + token
		j.ExpiresAt = &expiresAt
		j.CompletedAt = &now
	}
	s.mu.Unlock()

	s.logger.Sugar().Infow("roster export completed", "job_id", job.ID, "file", filename)
	return nil
}

func (s *ExportService) janitor(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.store.CleanupOlderThan(s.retainFor)
			if err != nil {
				s.logger.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			cutoff := time.Now().UTC().Add(-s.retainFor)
			s.mu.Lock()
			for id, job := range s.jobs {
				if job.CreatedAt.Before(cutoff) {
					delete(s.jobs, id)
				}
			}
			s.mu.Unlock()
			if len(deleted) > 0 {
				s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
			}
		}
	}
}

func (s *ExportService) transition(jobID string, status models.ExportJobStatus) {
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = status
	}
	s.mu.Unlock()
}

func (s *ExportService) fail(jobID, message string) {
	now := time.Now().UTC()
	s.mu.Lock()
	if job, ok := s.jobs[jobID]; ok {
		job.Status = models.ExportJobFailed
		job.Error = message
		job.CompletedAt = &now
	}
	s.mu.Unlock()
}

func (s *ExportService) snapshot(jobID string) *models.ExportJob {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	if job.ExpiresAt != nil {
		expires := *job.ExpiresAt
		copied.ExpiresAt = &expires
	}
	if job.CompletedAt != nil {
		completed := *job.CompletedAt
		copied.CompletedAt = &completed
	}
	return &copied
}

func contentTypeForFormat(format string) string {
	if format == "pdf" {
		return "application/pdf"
	}
	return "text/csv"
}
