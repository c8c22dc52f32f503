package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type resourceRepository interface {
	Create(ctx context.Context, resource *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	FindDetailByID(ctx context.Context, id string) (*models.ResourceDetail, error)
	List(ctx context.Context, filter models.ResourceFilter) ([]models.ResourceDetail, error)
	Update(ctx context.Context, resource *models.Resource) error
	Retire(ctx context.Context, id string) error
}

// CreateResourceRequest describes a resource creation payload.
type CreateResourceRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	ActivityID  string  `json:"activity" validate:"required"`
}

// UpdateResourceRequest describes a partial resource update.
type UpdateResourceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ResourceService orchestrates the resource catalog.
type ResourceService struct {
	repo       resourceRepository
	activities activityReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewResourceService constructs ResourceService.
func NewResourceService(repo resourceRepository, activities activityReader, validate *validator.Validate, logger *zap.Logger) *ResourceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, activities: activities, validator: validate, logger: logger}
}

// Create attaches a resource to an active activity.
func (s *ResourceService) Create(ctx context.Context, actor *models.JWTClaims, req CreateResourceRequest) (*models.ResourceDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid resource payload")
	}

	activity, err := s.activities.FindByID(ctx, req.ActivityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if actor.UserID != activity.CreatedBy && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer may attach resources")
	}

	resource := &models.Resource{
		Name:        req.Name,
		Description: req.Description,
		ActivityID:  req.ActivityID,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Create(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create resource")
	}
	return s.detail(ctx, resource.ID)
}

// List returns resources matching the filter.
func (s *ResourceService) List(ctx context.Context, filter models.ResourceFilter) ([]models.ResourceDetail, error) {
	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list resources")
	}
	return details, nil
}

// Get returns one resource.
func (s *ResourceService) Get(ctx context.Context, id string) (*models.ResourceDetail, error) {
	return s.detail(ctx, id)
}

// Update edits a resource. Creator or imam only.
func (s *ResourceService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateResourceRequest) (*models.ResourceDetail, error) {
	resource, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != resource.CreatedBy && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the resource creator may edit it")
	}

	if req.Name != nil {
		resource.Name = *req.Name
	}
	if req.Description != nil {
		resource.Description = req.Description
	}
	if resource.Name == "" {
		return nil, appErrors.Field("name", "name is required")
	}

	if err := s.repo.Update(ctx, resource); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update resource")
	}
	return s.detail(ctx, id)
}

// Retire soft-deletes a resource. Creator or imam only.
func (s *ResourceService) Retire(ctx context.Context, actor *models.JWTClaims, id string) error {
	resource, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserID != resource.CreatedBy && actor.Role != models.RoleImam {
		return appErrors.Clone(appErrors.ErrForbidden, "only the resource creator may delete it")
	}
	if err := s.repo.Retire(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete resource")
	}
	return nil
}

func (s *ResourceService) load(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return resource, nil
}

func (s *ResourceService) detail(ctx context.Context, id string) (*models.ResourceDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return detail, nil
}
