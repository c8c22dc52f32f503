package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	RevokeUserTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// CreateUserRequest describes an account registration payload.
type CreateUserRequest struct {
	PhoneNumber string          `json:"phone_number" validate:"required,min=10"`
	Email       *string         `json:"email" validate:"omitempty,email"`
	Password    string          `json:"password" validate:"required,min=8"`
	FirstName   string          `json:"first_name" validate:"required"`
	MiddleName  string          `json:"middle_name"`
	LastName    string          `json:"last_name" validate:"required"`
	Role        models.UserRole `json:"role" validate:"required"`
}

// UpdateUserRequest describes a partial profile update.
type UpdateUserRequest struct {
	PhoneNumber *string          `json:"phone_number" validate:"omitempty,min=10"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	FirstName   *string          `json:"first_name"`
	MiddleName  *string          `json:"middle_name"`
	LastName    *string          `json:"last_name"`
	Role        *models.UserRole `json:"role"`
}

// UserService orchestrates the user directory.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// Register creates a new account with a hashed password.
func (s *UserService) Register(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !req.Role.Valid() {
		return nil, appErrors.Field("role", fmt.Sprintf("unsupported role %q", req.Role))
	}

	if _, err := s.repo.FindByPhone(ctx, req.PhoneNumber); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
	} else if err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone number")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		PhoneNumber:  req.PhoneNumber,
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		MiddleName:   req.MiddleName,
		LastName:     req.LastName,
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// List returns users matching the filter.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.load(ctx, id)
}

// Update applies a partial profile update. Only imams or the user themself may
// edit a profile, and only imams may change roles.
func (s *UserService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if actor.UserID != id && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot edit another user's profile")
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PhoneNumber != nil && *req.PhoneNumber != user.PhoneNumber {
		if _, err := s.repo.FindByPhone(ctx, *req.PhoneNumber); err == nil {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone number already registered")
		} else if err != sql.ErrNoRows {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone number")
		}
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		user.MiddleName = *req.MiddleName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Role != nil {
		if actor.Role != models.RoleImam {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only imams may change roles")
		}
		if !req.Role.Valid() {
			return nil, appErrors.Field("role", fmt.Sprintf("unsupported role %q", *req.Role))
		}
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// SetActive toggles account activation and revokes sessions on deactivation.
func (s *UserService) SetActive(ctx context.Context, actor *models.JWTClaims, id string, active bool) error {
	if actor.Role != models.RoleImam {
		return appErrors.Clone(appErrors.ErrForbidden, "only imams may change account status")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to change account status")
	}
	if !active {
		if err := s.repo.RevokeUserTokens(ctx, id); err != nil {
			s.logger.Warn("failed to revoke tokens for deactivated user", zap.String("user_id", id), zap.Error(err))
		}
	}
	s.audit(ctx, actor, models.AuditActionUserStatusChange, id, active)
	return nil
}

// Delete removes an account permanently. Imam only.
func (s *UserService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if actor.Role != models.RoleImam {
		return appErrors.Clone(appErrors.ErrForbidden, "only imams may delete accounts")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *UserService) audit(ctx context.Context, actor *models.JWTClaims, action, targetID string, active bool) {
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "user",
		ResourceID: &targetID,
		NewValues:  []byte(fmt.Sprintf(`{"active":%t}`, active)),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
