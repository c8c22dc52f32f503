package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/repository"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/export"
)

const participationStatsKeyPrefix = "participation:stats:"

type participantRepository interface {
	Register(ctx context.Context, activityID, userID string, notes *string) (*models.Participant, error)
	FindByID(ctx context.Context, id string) (*models.Participant, error)
	FindDetailByID(ctx context.Context, id string) (*models.ParticipantDetail, error)
	FindByActivityAndUser(ctx context.Context, activityID, userID string) (*models.ParticipantDetail, error)
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.ParticipationStatus, notes *string) error
	BulkUpdateStatus(ctx context.Context, items []repository.BulkStatusItem) error
	StatsByActivity(ctx context.Context, activityID string) (*models.ParticipationStats, error)
	Retire(ctx context.Context, id string) error
}

type activityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	FindDetailByID(ctx context.Context, id string) (*models.ActivityDetail, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RegisterParticipantRequest describes a registration payload. User defaults
// to the acting user; registering someone else requires organizer rights.
type RegisterParticipantRequest struct {
	ActivityID string  `json:"activity" validate:"required"`
	UserID     string  `json:"user"`
	Notes      *string `json:"notes"`
}

// UpdateParticipantStatusRequest describes a status change payload.
type UpdateParticipantStatusRequest struct {
	Status models.ParticipationStatus `json:"participation_status" validate:"required"`
	Notes  *string                    `json:"notes"`
}

// BulkStatusUpdateItem is one entry of a bulk status update.
type BulkStatusUpdateItem struct {
	ParticipantID string                     `json:"participant_id" validate:"required"`
	Status        models.ParticipationStatus `json:"participation_status" validate:"required"`
}

// BulkStatusUpdateRequest carries the whole batch.
type BulkStatusUpdateRequest struct {
	Items []BulkStatusUpdateItem `json:"items" validate:"required,min=1,dive"`
}

// BulkItemError reports why one batch entry failed.
type BulkItemError struct {
	Index         int    `json:"index"`
	ParticipantID string `json:"participant_id"`
	Message       string `json:"message"`
}

// CheckParticipationResult answers whether the user holds a registration.
type CheckParticipationResult struct {
	IsRegistered         bool                      `json:"is_registered"`
	ParticipationDetails *models.ParticipantDetail `json:"participation_details"`
}

// ParticipantService orchestrates the participation ledger.
type ParticipantService struct {
	repo       participantRepository
	activities activityReader
	users      userReader
	cache      *CacheService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	statsTTL   time.Duration
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewParticipantService constructs ParticipantService.
func NewParticipantService(repo participantRepository, activities activityReader, users userReader, cache *CacheService, statsTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ParticipantService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}
	return &ParticipantService{
		repo:       repo,
		activities: activities,
		users:      users,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		statsTTL:   statsTTL,
		validator:  validate,
		logger:     logger,
	}
}

// Register creates or revives a participation record after the full
// validation sequence. Capacity and duplicates are arbitrated atomically in
// the repository so concurrent requests for the last slot cannot both win.
func (s *ParticipantService) Register(ctx context.Context, actor *models.JWTClaims, req RegisterParticipantRequest) (*models.ParticipantDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	activity, err := s.activities.FindByID(ctx, req.ActivityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if !activity.IsUpcoming(time.Now().UTC()) {
		return nil, appErrors.ErrRegistrationClosed
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && actor.UserID != activity.CreatedBy && actor.Role != models.RoleImam {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer may register other users")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "inactive users cannot register for activities")
	}
	if !user.Role.CanParticipate() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user role may not register for activities")
	}

	record, err := s.repo.Register(ctx, req.ActivityID, userID, req.Notes)
	if err != nil {
		if appErr := asAppError(err); appErr != nil {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register participant")
	}

	s.invalidateStats(ctx, req.ActivityID)
	s.logger.Info("participant registered",
		zap.String("participant_id", record.ID),
		zap.String("activity_id", req.ActivityID),
		zap.String("user_id", userID))

	return s.detail(ctx, record.ID)
}

// UpdateStatus applies an organizer-initiated status change.
func (s *ParticipantService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req UpdateParticipantStatusRequest) (*models.ParticipantDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Field("participation_status", fmt.Sprintf("unsupported status %q", req.Status))
	}

	detail, err := s.detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != detail.ActivityOwner {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer may update participation status")
	}
	if err := s.guardTransition(detail, req.Status, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.Notes); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update participation status")
	}

	s.invalidateStats(ctx, detail.ActivityID)
	return s.detail(ctx, id)
}

// MarkAttended flips a registered record to attended. Either the activity
// organizer or the participant themself may do this, and only while the
// activity is running.
func (s *ParticipantService) MarkAttended(ctx context.Context, actor *models.JWTClaims, id string) (*models.ParticipantDetail, error) {
	detail, err := s.detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != detail.ActivityOwner && actor.UserID != detail.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer or the participant may mark attendance")
	}
	if err := s.guardTransition(detail, models.ParticipationAttended, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, id, models.ParticipationAttended, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}

	s.invalidateStats(ctx, detail.ActivityID)
	return s.detail(ctx, id)
}

// BulkUpdateStatus validates every item before touching the database. Any
// invalid item aborts the whole batch with per-index errors; valid batches are
// written in a single transaction.
func (s *ParticipantService) BulkUpdateStatus(ctx context.Context, actor *models.JWTClaims, req BulkStatusUpdateRequest) ([]models.ParticipantDetail, []BulkItemError, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk update payload")
	}

	now := time.Now().UTC()
	var itemErrors []BulkItemError
	items := make([]repository.BulkStatusItem, 0, len(req.Items))
	activityIDs := map[string]struct{}{}

	for i, item := range req.Items {
		detail, err := s.detail(ctx, item.ParticipantID)
		if err != nil {
			itemErrors = append(itemErrors, BulkItemError{Index: i, ParticipantID: item.ParticipantID, Message: appErrors.FromError(err).Message})
			continue
		}
		if actor.UserID != detail.ActivityOwner {
			itemErrors = append(itemErrors, BulkItemError{Index: i, ParticipantID: item.ParticipantID, Message: "only the activity organizer may update participation status"})
			continue
		}
		if !item.Status.Valid() {
			itemErrors = append(itemErrors, BulkItemError{Index: i, ParticipantID: item.ParticipantID, Message: fmt.Sprintf("unsupported status %q", item.Status)})
			continue
		}
		if err := s.guardTransition(detail, item.Status, now); err != nil {
			itemErrors = append(itemErrors, BulkItemError{Index: i, ParticipantID: item.ParticipantID, Message: appErrors.FromError(err).Message})
			continue
		}
		items = append(items, repository.BulkStatusItem{ID: item.ParticipantID, Status: item.Status})
		activityIDs[detail.ActivityID] = struct{}{}
	}

	if len(itemErrors) > 0 {
		return nil, itemErrors, nil
	}

	if err := s.repo.BulkUpdateStatus(ctx, items); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply bulk status update")
	}

	for activityID := range activityIDs {
		s.invalidateStats(ctx, activityID)
	}

	updated := make([]models.ParticipantDetail, 0, len(items))
	for _, item := range items {
		detail, err := s.detail(ctx, item.ID)
		if err != nil {
			return nil, nil, err
		}
		updated = append(updated, *detail)
	}
	return updated, nil, nil
}

// Stats returns status counts plus the derived attendance rate for one
// activity, served from cache when fresh.
func (s *ParticipantService) Stats(ctx context.Context, activityID string) (*models.ParticipationStats, error) {
	key := participationStatsKeyPrefix + activityID
	var cached models.ParticipationStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	stats, err := s.repo.StatsByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute participation stats")
	}
	stats.AttendanceRate = attendanceRate(stats)

	if err := s.cache.Set(ctx, key, stats, s.statsTTL); err != nil {
		s.logger.Warn("failed to cache participation stats", zap.String("activity_id", activityID), zap.Error(err))
	}
	return stats, nil
}

// CheckParticipation answers whether the acting user holds any active
// participation record for the activity, including cancelled and no_show
// ones; the record's status tells the two apart.
func (s *ParticipantService) CheckParticipation(ctx context.Context, actor *models.JWTClaims, activityID string) (*CheckParticipationResult, error) {
	detail, err := s.repo.FindByActivityAndUser(ctx, activityID, actor.UserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return &CheckParticipationResult{IsRegistered: false}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	detail.Derive(time.Now().UTC())
	return &CheckParticipationResult{
		IsRegistered:         true,
		ParticipationDetails: detail,
	}, nil
}

// List returns ledger entries matching the filter.
func (s *ParticipantService) List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error) {
	details, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	now := time.Now().UTC()
	for i := range details {
		details[i].Derive(now)
	}
	return details, nil
}

// ListByActivity returns the roster of one activity.
func (s *ParticipantService) ListByActivity(ctx context.Context, activityID string) ([]models.ParticipantDetail, error) {
	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return s.List(ctx, models.ParticipantFilter{ActivityID: activityID})
}

// ListMine returns the acting user's participation history.
func (s *ParticipantService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipantDetail, error) {
	return s.List(ctx, models.ParticipantFilter{UserID: actor.UserID})
}

// Get returns a single ledger entry.
func (s *ParticipantService) Get(ctx context.Context, id string) (*models.ParticipantDetail, error) {
	return s.detail(ctx, id)
}

// Retire soft-deletes a participation record. Attended records stay on the
// ledger permanently.
func (s *ParticipantService) Retire(ctx context.Context, actor *models.JWTClaims, id string) error {
	detail, err := s.detail(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserID != detail.ActivityOwner && actor.UserID != detail.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer or the participant may remove a registration")
	}
	if detail.Status == models.ParticipationAttended {
		return appErrors.Clone(appErrors.ErrConflict, "attended records cannot be removed")
	}
	if err := s.repo.Retire(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove registration")
	}
	s.invalidateStats(ctx, detail.ActivityID)
	return nil
}

// ExportRoster renders the roster of one activity as CSV or PDF bytes.
func (s *ParticipantService) ExportRoster(ctx context.Context, actor *models.JWTClaims, activityID, format string) ([]byte, string, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if actor.UserID != activity.CreatedBy && actor.Role != models.RoleImam {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "only the activity organizer may export the roster")
	}

	roster, err := s.List(ctx, models.ParticipantFilter{ActivityID: activityID})
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Participant", "Role", "Status", "Registered At", "Notes"},
	}
	for _, entry := range roster {
		notes := ""
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Participant":   entry.ParticipantName,
			"Role":          string(entry.ParticipantRole),
			"Status":        string(entry.Status),
			"Registered At": entry.RegisteredAt.Format(time.RFC3339),
			"Notes":         notes,
		})
	}

	switch strings.ToLower(format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, activity.Name+" roster")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Field("format", fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ParticipantService) detail(ctx context.Context, id string) (*models.ParticipantDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participation record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation record")
	}
	detail.Derive(time.Now().UTC())
	return detail, nil
}

// guardTransition enforces the state machine and the temporal rules for
// attended and cancelled.
func (s *ParticipantService) guardTransition(detail *models.ParticipantDetail, next models.ParticipationStatus, now time.Time) error {
	if !detail.Status.CanTransitionTo(next) {
		return appErrors.InvalidTransition(string(detail.Status), string(next))
	}
	switch next {
	case models.ParticipationAttended:
		if now.Before(detail.ActivityStart) || now.After(detail.ActivityEnd) {
			return appErrors.ErrOutsideActivityWindow
		}
	case models.ParticipationCancelled:
		if !now.Before(detail.ActivityStart) {
			return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot cancel a registration after the activity has started")
		}
	}
	return nil
}

func (s *ParticipantService) invalidateStats(ctx context.Context, activityID string) {
	if err := s.cache.Invalidate(ctx, participationStatsKeyPrefix+activityID); err != nil {
		s.logger.Warn("failed to invalidate participation stats cache",
			zap.String("activity_id", activityID), zap.Error(err))
	}
}

// attendanceRate derives attended over currently-registered records as a
// percentage rounded to two decimals, zero when nothing is registered.
func attendanceRate(stats *models.ParticipationStats) float64 {
	if stats.TotalRegistered == 0 {
		return 0
	}
	rate := float64(stats.TotalAttended) / float64(stats.TotalRegistered) * 100
	return math.Round(rate*100) / 100
}

func asAppError(err error) *appErrors.Error {
	if err == nil {
		return nil
	}
	appErr := appErrors.FromError(err)
	if appErr.Code == appErrors.ErrInternal.Code && appErr.Err != nil {
		return nil
	}
	return appErr
}
