package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

type feedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	FindByID(ctx context.Context, id string) (*models.Feedback, error)
	FindDetailByID(ctx context.Context, id string) (*models.FeedbackDetail, error)
	ExistsByAuthorAndActivity(ctx context.Context, authorID, activityID string) (bool, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.FeedbackDetail, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.FeedbackDetail, error)
	List(ctx context.Context) ([]models.FeedbackDetail, error)
	Update(ctx context.Context, feedback *models.Feedback) error
	Delete(ctx context.Context, id string) error
}

type attendanceReader interface {
	HasAttended(ctx context.Context, activityID, userID string) (bool, error)
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.ParticipantDetail, error)
}

// CreateFeedbackRequest describes a feedback creation payload.
type CreateFeedbackRequest struct {
	ActivityID string  `json:"activity" validate:"required"`
	Rating     int     `json:"rating" validate:"required,min=1,max=5"`
	Comment    *string `json:"comment"`
}

// UpdateFeedbackRequest describes a partial feedback update.
type UpdateFeedbackRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

// FeedbackService orchestrates the feedback ledger. Writing feedback requires
// an attended participation record for the activity.
type FeedbackService struct {
	repo       feedbackRepository
	activities activityReader
	attendance attendanceReader
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFeedbackService constructs FeedbackService.
func NewFeedbackService(repo feedbackRepository, activities activityReader, attendance attendanceReader, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{repo: repo, activities: activities, attendance: attendance, validator: validate, logger: logger}
}

// Create stores one feedback entry per (author, activity) pair.
func (s *FeedbackService) Create(ctx context.Context, actor *models.JWTClaims, req CreateFeedbackRequest) (*models.FeedbackDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	if _, err := s.activities.FindByID(ctx, req.ActivityID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	attended, err := s.attendance.HasAttended(ctx, req.ActivityID, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if !attended {
		return nil, appErrors.ErrFeedbackWithoutAttend
	}

	exists, err := s.repo.ExistsByAuthorAndActivity(ctx, actor.UserID, req.ActivityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing feedback")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "feedback already submitted for this activity")
	}

	feedback := &models.Feedback{
		ActivityID: req.ActivityID,
		CreatedBy:  actor.UserID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	if err := s.repo.Create(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create feedback")
	}
	return s.detail(ctx, feedback.ID)
}

// ListByActivity returns an activity's feedback. Reads are restricted to the
// activity creator, attendees of the activity, and imams.
func (s *FeedbackService) ListByActivity(ctx context.Context, actor *models.JWTClaims, activityID string) ([]models.FeedbackDetail, error) {
	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	allowed := actor.Role == models.RoleImam || actor.UserID == activity.CreatedBy
	if !allowed {
		attended, err := s.attendance.HasAttended(ctx, activityID, actor.UserID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
		}
		allowed = attended
	}
	if !allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "feedback is visible to the organizer and attendees only")
	}

	details, err := s.repo.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	return details, nil
}

// ListMine returns the acting user's feedback history.
func (s *FeedbackService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.FeedbackDetail, error) {
	details, err := s.repo.ListByAuthor(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	return details, nil
}

// List returns every feedback entry. Imam only, enforced at the route.
func (s *FeedbackService) List(ctx context.Context) ([]models.FeedbackDetail, error) {
	details, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	return details, nil
}

// MyAttendedActivities returns activities the acting user attended, the set
// eligible for feedback.
func (s *FeedbackService) MyAttendedActivities(ctx context.Context, actor *models.JWTClaims) ([]models.ParticipantDetail, error) {
	details, err := s.attendance.List(ctx, models.ParticipantFilter{
		UserID: actor.UserID,
		Status: models.ParticipationAttended,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attended activities")
	}
	return details, nil
}

// Get returns one feedback entry.
func (s *FeedbackService) Get(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	return s.detail(ctx, id)
}

// Update edits a feedback entry. Author only.
func (s *FeedbackService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateFeedbackRequest) (*models.FeedbackDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != feedback.CreatedBy {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the feedback author may edit it")
	}

	if req.Rating != nil {
		feedback.Rating = *req.Rating
	}
	if req.Comment != nil {
		feedback.Comment = req.Comment
	}

	if err := s.repo.Update(ctx, feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update feedback")
	}
	return s.detail(ctx, id)
}

// Delete removes a feedback entry. Author or imam only.
func (s *FeedbackService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	feedback, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserID != feedback.CreatedBy && actor.Role != models.RoleImam {
		return appErrors.Clone(appErrors.ErrForbidden, "only the feedback author may delete it")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete feedback")
	}
	return nil
}

func (s *FeedbackService) load(ctx context.Context, id string) (*models.Feedback, error) {
	feedback, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	return feedback, nil
}

func (s *FeedbackService) detail(ctx context.Context, id string) (*models.FeedbackDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "feedback not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	return detail, nil
}
