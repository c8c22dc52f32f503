package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type mockUserRepo struct {
	users        map[string]models.User
	activeFlags  map[string]bool
	deleted      []string
	revokedUsers []string
	audits       []models.AuditLog
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-new"
	}
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		copied := u
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error) {
	for _, u := range m.users {
		if u.PhoneNumber == phoneNumber {
			copied := u
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var list []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		list = append(list, u)
	}
	return list, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id string, active bool) error {
	if m.activeFlags == nil {
		m.activeFlags = make(map[string]bool)
	}
	m.activeFlags[id] = active
	if u, ok := m.users[id]; ok {
		u.Active = active
		m.users[id] = u
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) RevokeUserTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.audits = append(m.audits, *entry)
	return nil
}

func validUserRequest() CreateUserRequest {
	return CreateUserRequest{
		PhoneNumber: "+250788000001",
		Password:    "secret-pass",
		FirstName:   "Omar",
		LastName:    "Khalid",
		Role:        models.RoleParticipant,
	}
}

func TestUserServiceRegister(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{}}
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Register(context.Background(), validUserRequest())
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.NotEqual(t, "secret-pass", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pass")))
}

func TestUserServiceRegisterDuplicatePhone(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", PhoneNumber: "+250788000001"},
	}}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Register(context.Background(), validUserRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "phone number already registered", appErr.Message)
}

func TestUserServiceRegisterShortPassword(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	req := validUserRequest()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceRegisterInvalidRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	req := validUserRequest()
	req.Role = "janitor"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Fields["role"], "unsupported role")
}

func TestUserServiceUpdateSelf(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", PhoneNumber: "+250788000001", Role: models.RoleParticipant},
	}}
	svc := NewUserService(repo, nil, nil)

	first := "Bilal"
	user, err := svc.Update(context.Background(), memberClaims("u-1"), "u-1", UpdateUserRequest{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Bilal", user.FirstName)
}

func TestUserServiceUpdateOtherForbidden(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", Role: models.RoleParticipant},
	}}
	svc := NewUserService(repo, nil, nil)

	first := "Intruder"
	_, err := svc.Update(context.Background(), memberClaims("u-2"), "u-1", UpdateUserRequest{FirstName: &first})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceRoleChangeImamOnly(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", Role: models.RoleParticipant},
	}}
	svc := NewUserService(repo, nil, nil)

	role := models.RoleImam
	_, err := svc.Update(context.Background(), memberClaims("u-1"), "u-1", UpdateUserRequest{Role: &role})
	require.Error(t, err)
	assert.Equal(t, "only imams may change roles", appErrors.FromError(err).Message)

	user, err := svc.Update(context.Background(), imamClaims("imam-1"), "u-1", UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleImam, user.Role)
}

func TestUserServiceDeactivateRevokesSessions(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", Role: models.RoleParticipant, Active: true},
	}}
	svc := NewUserService(repo, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), imamClaims("imam-1"), "u-1", false))
	assert.False(t, repo.activeFlags["u-1"])
	assert.Equal(t, []string{"u-1"}, repo.revokedUsers)
	require.Len(t, repo.audits, 1)
	assert.Equal(t, models.AuditActionUserStatusChange, repo.audits[0].Action)
}

func TestUserServiceActivateKeepsSessions(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1", Role: models.RoleParticipant},
	}}
	svc := NewUserService(repo, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), imamClaims("imam-1"), "u-1", true))
	assert.True(t, repo.activeFlags["u-1"])
	assert.Empty(t, repo.revokedUsers)
}

func TestUserServiceSetActiveImamOnly(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, nil, nil)

	err := svc.SetActive(context.Background(), memberClaims("u-2"), "u-1", false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteImamOnly(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u-1": {ID: "u-1"},
	}}
	svc := NewUserService(repo, nil, nil)

	err := svc.Delete(context.Background(), memberClaims("u-1"), "u-1")
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), imamClaims("imam-1"), "u-1"))
	assert.Equal(t, []string{"u-1"}, repo.deleted)
}
