package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

func newFeedbackRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func TestFeedbackRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO feedbacks")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	comment := "Beautiful recitation"
	feedback := &models.Feedback{ActivityID: "act-1", CreatedBy: "user-1", Rating: 5, Comment: &comment}
	err := repo.Create(context.Background(), feedback)
	require.NoError(t, err)
	assert.NotEmpty(t, feedback.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryExistsByAuthorAndActivity(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM feedbacks WHERE created_by = $1 AND activity_id = $2")).
		WithArgs("user-1", "act-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByAuthorAndActivity(context.Background(), "user-1", "act-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM feedbacks WHERE created_by = $1 AND activity_id = $2")).
		WithArgs("user-2", "act-1").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsByAuthorAndActivity(context.Background(), "user-2", "act-1")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeedbackRepositoryListByActivity(t *testing.T) {
	db, mock, cleanup := newFeedbackRepoMock(t)
	defer cleanup()
	repo := NewFeedbackRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "activity_id", "created_by", "rating", "comment", "created_at", "updated_at",
		"author_name", "activity_name",
	}).AddRow("fb-1", "act-1", "user-1", 4, nil, now, now, "Ali Hassan", "Night Qiyam")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE f.activity_id = $1 ORDER BY f.created_at DESC")).
		WithArgs("act-1").
		WillReturnRows(rows)

	details, err := repo.ListByActivity(context.Background(), "act-1")
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Ali Hassan", details[0].AuthorName)
	assert.Equal(t, 4, details[0].Rating)
	require.NoError(t, mock.ExpectationsWereMet())
}
