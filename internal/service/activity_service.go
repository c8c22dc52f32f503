package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	FindDetailByID(ctx context.Context, id string) (*models.ActivityDetail, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, error)
	FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	Retire(ctx context.Context, id string) error
	Schedule(ctx context.Context, daysAhead int) ([]models.ActivityDetail, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// CreateActivityRequest describes the activity creation payload.
type CreateActivityRequest struct {
	Name                 string    `json:"name" validate:"required"`
	Title                *string   `json:"title"`
	Location             string    `json:"location" validate:"required"`
	StartTime            time.Time `json:"start_datetime" validate:"required"`
	EndTime              time.Time `json:"end_datetime" validate:"required"`
	Description          string    `json:"description"`
	RequiredParticipants int       `json:"required_participants" validate:"required"`
}

// UpdateActivityRequest describes a partial activity update.
type UpdateActivityRequest struct {
	Name                 *string    `json:"name"`
	Title                *string    `json:"title"`
	Location             *string    `json:"location"`
	StartTime            *time.Time `json:"start_datetime"`
	EndTime              *time.Time `json:"end_datetime"`
	Description          *string    `json:"description"`
	RequiredParticipants *int       `json:"required_participants"`
}

// ActivityService orchestrates the activity directory.
type ActivityService struct {
	repo      activityRepository
	audits    auditWriter
	daysAhead int
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs ActivityService.
func NewActivityService(repo activityRepository, audits auditWriter, scheduleDaysAhead int, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scheduleDaysAhead <= 0 {
		scheduleDaysAhead = 30
	}
	return &ActivityService{repo: repo, audits: audits, daysAhead: scheduleDaysAhead, validator: validate, logger: logger}
}

// Create validates and stores a new activity.
func (s *ActivityService) Create(ctx context.Context, actor *models.JWTClaims, req CreateActivityRequest) (*models.ActivityDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	if actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only imams may create activities")
	}

	activity := &models.Activity{
		Name:                 strings.TrimSpace(req.Name),
		Title:                req.Title,
		Location:             strings.TrimSpace(req.Location),
		StartTime:            req.StartTime.UTC(),
		EndTime:              req.EndTime.UTC(),
		Description:          req.Description,
		RequiredParticipants: req.RequiredParticipants,
		CreatedBy:            actor.UserID,
		RecordStatus:         models.RecordActive,
	}
	if err := s.validateActivity(ctx, activity, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}

	s.audit(ctx, actor, models.AuditActionActivityCreate, activity.ID)
	s.logger.Info("activity created", zap.String("activity_id", activity.ID), zap.String("created_by", actor.UserID))
	return s.detail(ctx, activity.ID)
}

// List returns activities matching the filter.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityDetail, error) {
	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return details, nil
}

// ListMine returns activities created by the acting user.
func (s *ActivityService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.ActivityDetail, error) {
	return s.List(ctx, models.ActivityFilter{CreatedBy: actor.UserID})
}

// Get returns one activity with participation context.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.ActivityDetail, error) {
	return s.detail(ctx, id)
}

// Update applies a partial update after re-running the validation pipeline.
func (s *ActivityService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateActivityRequest) (*models.ActivityDetail, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != activity.CreatedBy && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the activity creator may update it")
	}

	if req.Name != nil {
		activity.Name = strings.TrimSpace(*req.Name)
	}
	if req.Title != nil {
		activity.Title = req.Title
	}
	if req.Location != nil {
		activity.Location = strings.TrimSpace(*req.Location)
	}
	if req.StartTime != nil {
		activity.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		activity.EndTime = req.EndTime.UTC()
	}
	if req.Description != nil {
		activity.Description = *req.Description
	}
	if req.RequiredParticipants != nil {
		activity.RequiredParticipants = *req.RequiredParticipants
	}

	if err := s.validateActivity(ctx, activity, activity.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}

	s.audit(ctx, actor, models.AuditActionActivityUpdate, activity.ID)
	return s.detail(ctx, id)
}

// Retire soft-deletes an activity together with its open registrations.
func (s *ActivityService) Retire(ctx context.Context, actor *models.JWTClaims, id string) error {
	activity, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserID != activity.CreatedBy && actor.Role != models.RoleImam {
		return appErrors.Clone(appErrors.ErrForbidden, "only the activity creator may delete it")
	}
	if err := s.repo.Retire(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	s.audit(ctx, actor, models.AuditActionActivityRetire, id)
	return nil
}

// Schedule returns the upcoming activity window.
func (s *ActivityService) Schedule(ctx context.Context) ([]models.ActivityDetail, error) {
	details, err := s.repo.Schedule(ctx, s.daysAhead)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return details, nil
}

// validateActivity runs the ordered rule pipeline before any persistence.
// The first failing rule wins and is reported as a field error.
func (s *ActivityService) validateActivity(ctx context.Context, activity *models.Activity, excludeID string) error {
	if len(strings.TrimSpace(activity.Name)) < 3 {
		return appErrors.Field("name", "name must be at least 3 characters")
	}
	if !activity.StartTime.Before(activity.EndTime) {
		return appErrors.Field("end_datetime", "end time must be after start time")
	}
	if activity.RequiredParticipants < 1 {
		return appErrors.Field("required_participants", "required participants must be at least 1")
	}

	overlapping, err := s.repo.FindOverlapping(ctx, activity.StartTime, activity.EndTime, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule overlap")
	}
	if len(overlapping) > 0 {
		return appErrors.ErrScheduleOverlap
	}
	return nil
}

func (s *ActivityService) load(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *ActivityService) detail(ctx context.Context, id string) (*models.ActivityDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return detail, nil
}

func (s *ActivityService) audit(ctx context.Context, actor *models.JWTClaims, action, resourceID string) {
	if s.audits == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "activity",
		ResourceID: &resourceID,
	}
	if err := s.audits.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
