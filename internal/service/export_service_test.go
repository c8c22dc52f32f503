package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/jobs"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/storage"
)

type mockRosterExporter struct {
	payload []byte
	err     error
	calls   int
}

func (m *mockRosterExporter) ExportRoster(ctx context.Context, actor *models.JWTClaims, activityID, format string) ([]byte, string, error) {
	m.calls++
	if m.err != nil {
		return nil, "", m.err
	}
	return m.payload, "text/csv", nil
}

func exportFixture(t *testing.T, roster *mockRosterExporter) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(roster, store, signer, ExportConfig{Workers: 1}, nil)
}

func TestExportServiceEnqueueValidation(t *testing.T) {
	svc := exportFixture(t, &mockRosterExporter{})

	_, err := svc.Enqueue(context.Background(), imamClaims("imam-1"), "act-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, "format must be csv or pdf", appErrors.FromError(err).Fields["format"])

	_, err = svc.Enqueue(context.Background(), imamClaims("imam-1"), "  ", "csv")
	require.Error(t, err)
}

func TestExportServiceEnqueueBeforeStart(t *testing.T) {
	svc := exportFixture(t, &mockRosterExporter{})

	_, err := svc.Enqueue(context.Background(), imamClaims("imam-1"), "act-1", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExportServiceProcessAndDownload(t *testing.T) {
	roster := &mockRosterExporter{payload: []byte("Participant,Status\nAli,registered\n")}
	svc := exportFixture(t, roster)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	job, err := svc.Enqueue(ctx, imamClaims("imam-1"), "act-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, models.ExportJobPending, job.Status)

	require.Eventually(t, func() bool {
		current, err := svc.Get(imamClaims("imam-1"), job.ID)
		return err == nil && current.Status == models.ExportJobCompleted
	}, 2*time.Second, 10*time.Millisecond)

	completed, err := svc.Get(imamClaims("imam-1"), job.ID)
	require.NoError(t, err)
	require.NotEmpty(t, completed.DownloadURL)
	require.NotNil(t, completed.ExpiresAt)

	token := completed.DownloadURL[len("/activity-participants/export-jobs/download/?token="):]
	file, contentType, filename, err := svc.Open(token)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, job.ID+".csv", filename)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, roster.payload, data)
}

func TestExportServiceProcessFailureMarksJob(t *testing.T) {
	roster := &mockRosterExporter{err: appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer may export the roster")}
	svc := exportFixture(t, roster)

	svc.mu.Lock()
	svc.jobs["job-1"] = &models.ExportJob{ID: "job-1", ActivityID: "act-1", Format: "csv", Status: models.ExportJobPending, RequestedBy: "member-1"}
	svc.mu.Unlock()

	err := svc.process(context.Background(), jobs.Job{ID: "job-1", Type: "roster_export", Payload: exportPayload{
		actor:      models.JWTClaims{UserID: "member-1", Role: models.RoleParticipant},
		activityID: "act-1",
		format:     "csv",
	}})
	require.NoError(t, err)

	job, getErr := svc.Get(memberClaims("member-1"), "job-1")
	require.NoError(t, getErr)
	assert.Equal(t, models.ExportJobFailed, job.Status)
	assert.Equal(t, "only the activity organizer may export the roster", job.Error)
}

func TestExportServiceGetReturnsIsolatedCopy(t *testing.T) {
	svc := exportFixture(t, &mockRosterExporter{})
	expires := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	completed := expires.Add(-24 * time.Hour)
	svc.mu.Lock()
	svc.jobs["job-1"] = &models.ExportJob{
		ID:          "job-1",
		RequestedBy: "member-1",
		Status:      models.ExportJobCompleted,
		ExpiresAt:   &expires,
		CompletedAt: &completed,
	}
	svc.mu.Unlock()

	job, err := svc.Get(memberClaims("member-1"), "job-1")
	require.NoError(t, err)
	*job.ExpiresAt = job.ExpiresAt.Add(time.Hour)
	*job.CompletedAt = job.CompletedAt.Add(time.Hour)

	again, err := svc.Get(memberClaims("member-1"), "job-1")
	require.NoError(t, err)
	assert.True(t, again.ExpiresAt.Equal(expires))
	assert.True(t, again.CompletedAt.Equal(completed))
}

func TestExportServiceGetAuthorization(t *testing.T) {
	svc := exportFixture(t, &mockRosterExporter{})
	svc.mu.Lock()
	svc.jobs["job-1"] = &models.ExportJob{ID: "job-1", RequestedBy: "member-1", Status: models.ExportJobPending}
	svc.mu.Unlock()

	_, err := svc.Get(memberClaims("member-2"), "job-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(imamClaims("imam-1"), "job-1")
	require.NoError(t, err)
}

func TestExportServiceOpenRejectsBadToken(t *testing.T) {
	svc := exportFixture(t, &mockRosterExporter{})

	_, _, _, err := svc.Open("garbage")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
