package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

func newActivityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func activityRow(id string, start, end time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "title", "location", "start_time", "end_time", "description",
		"required_participants", "created_by", "created_at", "updated_at", "record_status",
	}).AddRow(id, "Night Qiyam", nil, "Main hall", start, end, "Communal night prayer",
		20, "imam-1", now, now, models.RecordActive)
}

func TestActivityRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	activity := &models.Activity{
		Name:                 "Night Qiyam",
		Location:             "Main hall",
		StartTime:            time.Now().UTC().Add(24 * time.Hour),
		EndTime:              time.Now().UTC().Add(26 * time.Hour),
		Description:          "Communal night prayer",
		RequiredParticipants: 20,
		CreatedBy:            "imam-1",
	}
	err := repo.Create(context.Background(), activity)
	require.NoError(t, err)
	assert.NotEmpty(t, activity.ID)
	assert.Equal(t, models.RecordActive, activity.RecordStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryFindOverlapping(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	start := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("record_status = $1 AND start_time < $2 AND end_time > $3")).
		WithArgs(models.RecordActive, end, start).
		WillReturnRows(activityRow("act-1", start.Add(-time.Hour), start.Add(time.Hour)))

	overlapping, err := repo.FindOverlapping(context.Background(), start, end, "")
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, "act-1", overlapping[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryFindOverlappingExcludesSelf(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	start := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("end_time > $3 AND id <> $4")).
		WithArgs(models.RecordActive, end, start, "act-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "title", "location", "start_time", "end_time", "description",
			"required_participants", "created_by", "created_at", "updated_at", "record_status",
		}))

	overlapping, err := repo.FindOverlapping(context.Background(), start, end, "act-1")
	require.NoError(t, err)
	assert.Empty(t, overlapping)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryRetireCascades(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE activities SET record_status = $2")).
		WithArgs("act-1", models.RecordRetired, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE activity_participants SET record_status = $2")).
		WithArgs("act-1", models.RecordRetired, sqlmock.AnyArg(), models.RecordActive).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	err := repo.Retire(context.Background(), "act-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryRetireRollsBackOnParticipantFailure(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE activities SET record_status = $2")).
		WithArgs("act-1", models.RecordRetired, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE activity_participants SET record_status = $2")).
		WithArgs("act-1", models.RecordRetired, sqlmock.AnyArg(), models.RecordActive).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Retire(context.Background(), "act-1")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositorySchedule(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "name", "title", "location", "start_time", "end_time", "description",
		"required_participants", "created_by", "created_at", "updated_at", "record_status",
		"creator_name", "current_participants",
	}).AddRow("act-1", "Tafsir circle", nil, "Library", now.Add(2*time.Hour), now.Add(4*time.Hour),
		"Evening tafsir", 15, "imam-1", now, now, models.RecordActive, "Imam Yusuf", 7)

	mock.ExpectQuery(regexp.QuoteMeta("a.start_time >= $2 AND a.start_time < $3")).
		WithArgs(models.RecordActive, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	schedule, err := repo.Schedule(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.Equal(t, "Tafsir circle", schedule[0].Name)
	assert.Equal(t, 7, schedule[0].CurrentParticipants)
	require.NoError(t, mock.ExpectationsWereMet())
}
