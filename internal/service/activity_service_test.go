package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type mockActivityRepo struct {
	activities  map[string]models.Activity
	overlapping []models.Activity
	created     *models.Activity
	updated     *models.Activity
	retired     []string
	overlapArgs []string
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = "act-new"
	}
	if m.activities == nil {
		m.activities = make(map[string]models.Activity)
	}
	m.activities[activity.ID] = *activity
	m.created = activity
	return nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	if a, ok := m.activities[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockActivityRepo) FindDetailByID(ctx context.Context, id string) (*models.ActivityDetail, error) {
	if a, ok := m.activities[id]; ok {
		return &models.ActivityDetail{Activity: a}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockActivityRepo) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, error) {
	var list []models.ActivityDetail
	for _, a := range m.activities {
		if filter.CreatedBy != "" && a.CreatedBy != filter.CreatedBy {
			continue
		}
		list = append(list, models.ActivityDetail{Activity: a})
	}
	return list, nil
}

func (m *mockActivityRepo) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]models.Activity, error) {
	m.overlapArgs = append(m.overlapArgs, excludeID)
	return m.overlapping, nil
}

func (m *mockActivityRepo) Update(ctx context.Context, activity *models.Activity) error {
	m.activities[activity.ID] = *activity
	m.updated = activity
	return nil
}

func (m *mockActivityRepo) Retire(ctx context.Context, id string) error {
	m.retired = append(m.retired, id)
	return nil
}

func (m *mockActivityRepo) Schedule(ctx context.Context, daysAhead int) ([]models.ActivityDetail, error) {
	return m.List(ctx, models.ActivityFilter{})
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func validCreateRequest() CreateActivityRequest {
	start := time.Now().UTC().Add(24 * time.Hour)
	return CreateActivityRequest{
		Name:                 "Quran Recitation",
		Location:             "Main Hall",
		StartTime:            start,
		EndTime:              start.Add(2 * time.Hour),
		RequiredParticipants: 20,
	}
}

func TestActivityServiceCreate(t *testing.T) {
	repo := &mockActivityRepo{}
	audits := &mockAuditWriter{}
	svc := NewActivityService(repo, audits, 30, nil, nil)

	detail, err := svc.Create(context.Background(), imamClaims("imam-1"), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, "imam-1", detail.CreatedBy)
	assert.Equal(t, models.RecordActive, detail.RecordStatus)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionActivityCreate, audits.entries[0].Action)
}

func TestActivityServiceCreateRequiresImam(t *testing.T) {
	svc := NewActivityService(&mockActivityRepo{}, nil, 30, nil, nil)

	_, err := svc.Create(context.Background(), memberClaims("member-1"), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceCreateShortName(t *testing.T) {
	svc := NewActivityService(&mockActivityRepo{}, nil, 30, nil, nil)

	req := validCreateRequest()
	req.Name = "  ab "
	_, err := svc.Create(context.Background(), imamClaims("imam-1"), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "name must be at least 3 characters", appErr.Fields["name"])
}

func TestActivityServiceCreateInvertedWindow(t *testing.T) {
	svc := NewActivityService(&mockActivityRepo{}, nil, 30, nil, nil)

	req := validCreateRequest()
	req.EndTime = req.StartTime.Add(-time.Hour)
	_, err := svc.Create(context.Background(), imamClaims("imam-1"), req)
	require.Error(t, err)
	assert.Equal(t, "end time must be after start time", appErrors.FromError(err).Fields["end_datetime"])
}

func TestActivityServiceCreateOverlapRejected(t *testing.T) {
	repo := &mockActivityRepo{overlapping: []models.Activity{{ID: "existing"}}}
	svc := NewActivityService(repo, nil, 30, nil, nil)

	_, err := svc.Create(context.Background(), imamClaims("imam-1"), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleOverlap.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceUpdateExcludesSelfFromOverlap(t *testing.T) {
	activity := upcomingActivity("act-1", "imam-1")
	repo := &mockActivityRepo{activities: map[string]models.Activity{"act-1": activity}}
	svc := NewActivityService(repo, nil, 30, nil, nil)

	name := "Evening Lecture"
	_, err := svc.Update(context.Background(), imamClaims("imam-1"), "act-1", UpdateActivityRequest{Name: &name})
	require.NoError(t, err)
	require.Len(t, repo.overlapArgs, 1)
	assert.Equal(t, "act-1", repo.overlapArgs[0])
	assert.Equal(t, "Evening Lecture", repo.updated.Name)
}

func TestActivityServiceUpdateForbiddenForOtherUser(t *testing.T) {
	activity := upcomingActivity("act-1", "imam-1")
	repo := &mockActivityRepo{activities: map[string]models.Activity{"act-1": activity}}
	svc := NewActivityService(repo, nil, 30, nil, nil)

	name := "Hijacked"
	_, err := svc.Update(context.Background(), memberClaims("member-1"), "act-1", UpdateActivityRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceRetire(t *testing.T) {
	activity := upcomingActivity("act-1", "imam-1")
	repo := &mockActivityRepo{activities: map[string]models.Activity{"act-1": activity}}
	audits := &mockAuditWriter{}
	svc := NewActivityService(repo, audits, 30, nil, nil)

	require.NoError(t, svc.Retire(context.Background(), imamClaims("imam-1"), "act-1"))
	assert.Equal(t, []string{"act-1"}, repo.retired)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionActivityRetire, audits.entries[0].Action)
}

func TestActivityServiceGetNotFound(t *testing.T) {
	svc := NewActivityService(&mockActivityRepo{}, nil, 30, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
