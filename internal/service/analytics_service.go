package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
	appErrors "github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/pkg/errors"
)

const analyticsKeyPrefix = "analytics:"

type analyticsRepository interface {
	UserAnalytics(ctx context.Context, now time.Time) (*models.UserAnalytics, error)
	ActivityAnalytics(ctx context.Context, now time.Time) (*models.ActivityAnalytics, error)
	ParticipationAnalytics(ctx context.Context, now time.Time) (*models.ParticipationAnalytics, error)
	FeedbackAnalytics(ctx context.Context, now time.Time) (*models.FeedbackAnalytics, error)
	ResourceAnalytics(ctx context.Context, now time.Time) (*models.ResourceAnalytics, error)
}

// AnalyticsService serves read-only aggregates with Redis caching.
type AnalyticsService struct {
	repo    analyticsRepository
	cache   *CacheService
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewAnalyticsService constructs AnalyticsService.
func NewAnalyticsService(repo analyticsRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &AnalyticsService{repo: repo, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Users returns the user directory roll-up.
func (s *AnalyticsService) Users(ctx context.Context) (*models.UserAnalytics, error) {
	var cached models.UserAnalytics
	if hit, _ := s.cache.Get(ctx, analyticsKeyPrefix+"users", &cached); hit {
		return &cached, nil
	}
	start := time.Now()
	result, err := s.repo.UserAnalytics(ctx, time.Now().UTC())
	s.metrics.ObserveDBQuery("user_analytics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute user analytics")
	}
	s.store(ctx, "users", result)
	return result, nil
}

// Activities returns the activity directory roll-up.
func (s *AnalyticsService) Activities(ctx context.Context) (*models.ActivityAnalytics, error) {
	var cached models.ActivityAnalytics
	if hit, _ := s.cache.Get(ctx, analyticsKeyPrefix+"activities", &cached); hit {
		return &cached, nil
	}
	start := time.Now()
	result, err := s.repo.ActivityAnalytics(ctx, time.Now().UTC())
	s.metrics.ObserveDBQuery("activity_analytics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute activity analytics")
	}
	s.store(ctx, "activities", result)
	return result, nil
}

// Participations returns the participation ledger roll-up including the
// global attendance rate.
func (s *AnalyticsService) Participations(ctx context.Context) (*models.ParticipationAnalytics, error) {
	var cached models.ParticipationAnalytics
	if hit, _ := s.cache.Get(ctx, analyticsKeyPrefix+"participations", &cached); hit {
		return &cached, nil
	}
	start := time.Now()
	result, err := s.repo.ParticipationAnalytics(ctx, time.Now().UTC())
	s.metrics.ObserveDBQuery("participation_analytics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute participation analytics")
	}

	// The platform-wide rate divides by every ledger record, cancelled
	// included, unlike the per-activity stats endpoint.
	attended := result.ByStatus[string(models.ParticipationAttended)]
	total := 0
	for _, count := range result.ByStatus {
		total += count
	}
	if total > 0 {
		result.AttendanceRate = math.Round(float64(attended)/float64(total)*1000) / 10
	}

	s.store(ctx, "participations", result)
	return result, nil
}

// Feedbacks returns the feedback ledger roll-up.
func (s *AnalyticsService) Feedbacks(ctx context.Context) (*models.FeedbackAnalytics, error) {
	var cached models.FeedbackAnalytics
	if hit, _ := s.cache.Get(ctx, analyticsKeyPrefix+"feedbacks", &cached); hit {
		return &cached, nil
	}
	start := time.Now()
	result, err := s.repo.FeedbackAnalytics(ctx, time.Now().UTC())
	s.metrics.ObserveDBQuery("feedback_analytics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute feedback analytics")
	}
	s.store(ctx, "feedbacks", result)
	return result, nil
}

// Resources returns the resource catalog roll-up.
func (s *AnalyticsService) Resources(ctx context.Context) (*models.ResourceAnalytics, error) {
	var cached models.ResourceAnalytics
	if hit, _ := s.cache.Get(ctx, analyticsKeyPrefix+"resources", &cached); hit {
		return &cached, nil
	}
	start := time.Now()
	result, err := s.repo.ResourceAnalytics(ctx, time.Now().UTC())
	s.metrics.ObserveDBQuery("resource_analytics", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute resource analytics")
	}
	s.store(ctx, "resources", result)
	return result, nil
}

// Overview bundles every aggregate into one response.
func (s *AnalyticsService) Overview(ctx context.Context) (*models.SystemOverview, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.Activities(ctx)
	if err != nil {
		return nil, err
	}
	participations, err := s.Participations(ctx)
	if err != nil {
		return nil, err
	}
	feedbacks, err := s.Feedbacks(ctx)
	if err != nil {
		return nil, err
	}
	resources, err := s.Resources(ctx)
	if err != nil {
		return nil, err
	}
	return &models.SystemOverview{
		Users:          *users,
		Activities:     *activities,
		Participations: *participations,
		Feedbacks:      *feedbacks,
		Resources:      *resources,
	}, nil
}

// SystemMetrics exposes the runtime metrics snapshot.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

// Invalidate drops every cached aggregate.
func (s *AnalyticsService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, analyticsKeyPrefix+"*")
}

func (s *AnalyticsService) store(ctx context.Context, scope string, value interface{}) {
	if err := s.cache.Set(ctx, analyticsKeyPrefix+scope, value, s.ttl); err != nil {
		s.logger.Warn("failed to cache analytics", zap.String("scope", scope), zap.Error(err))
	}
}
