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

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
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

func userRow(id, phone string, role models.UserRole, active bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "phone_number", "email", "password_hash", "first_name", "middle_name", "last_name",
		"role", "active", "last_login", "created_at", "updated_at",
	}).AddRow(id, phone, nil, "$2a$10$hash", "Ali", "", "Hassan", role, active, nil, now, now)
}

func TestUserRepositoryFindByPhone(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE phone_number = $1")).
		WithArgs("+250788000001").
		WillReturnRows(userRow("user-1", "+250788000001", models.RoleParticipant, true))

	user, err := repo.FindByPhone(context.Background(), "+250788000001")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleParticipant, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	role := models.RoleImam
	active := true
	mock.ExpectQuery(regexp.QuoteMeta("role = $1 AND active = $2")).
		WithArgs(role, active).
		WillReturnRows(userRow("user-2", "+250788000002", models.RoleImam, true))

	users, err := repo.List(context.Background(), models.UserFilter{Role: &role, Active: &active})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleImam, users[0].Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetActive(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = $2")).
		WithArgs("user-1", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetActive(context.Background(), "user-1", false)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRefreshTokenRoundTrip(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	token := &models.RefreshToken{
		UserID:    "user-1",
		Token:     "refresh-abc",
		ExpiresAt: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, repo.StoreRefreshToken(context.Background(), token))
	assert.NotEmpty(t, token.ID)

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "token", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent",
	}).AddRow(token.ID, "user-1", "refresh-abc", token.ExpiresAt, token.CreatedAt, false, nil, "", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token = $1 AND revoked = FALSE")).
		WithArgs("refresh-abc").
		WillReturnRows(rows)

	stored, err := repo.FindRefreshToken(context.Background(), "refresh-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", stored.UserID)
	assert.False(t, stored.Revoked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindRefreshTokenRevoked(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM refresh_tokens WHERE token = $1 AND revoked = FALSE")).
		WithArgs("refresh-gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindRefreshToken(context.Background(), "refresh-gone")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRevokeUserTokens(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE")).
		WithArgs("user-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := repo.RevokeUserTokens(context.Background(), "user-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
