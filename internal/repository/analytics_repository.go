package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/PrinceMUGABE/I-Tikaf-Management-System-Backend/internal/models"
)

// AnalyticsRepository computes aggregate roll-ups straight from SQL so the
// numbers always reflect the live ledger.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

type labelCount struct {
	Label string `db:"label"`
	Count int    `db:"count"`
}

func periodBounds(now time.Time) (dayStart, weekStart, monthStart time.Time) {
	dayStart = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(dayStart.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart = dayStart.AddDate(0, 0, -(weekday - 1))
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return dayStart, weekStart, monthStart
}

func (r *AnalyticsRepository) periodCounts(ctx context.Context, table, extraWhere string, now time.Time) (models.PeriodCounts, error) {
	dayStart, weekStart, monthStart := periodBounds(now)
	query := fmt.Sprintf(`SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE created_at >= $1) AS today,
        COUNT(*) FILTER (WHERE created_at >= $2) AS this_week,
        COUNT(*) FILTER (WHERE created_at >= $3) AS this_month
        FROM %s WHERE %s`, table, extraWhere)

	var counts models.PeriodCounts
	if err := r.db.GetContext(ctx, &counts, query, dayStart, weekStart, monthStart); err != nil {
		return counts, fmt.Errorf("period counts for %s: %w", table, err)
	}
	return counts, nil
}

// UserAnalytics returns roll-ups over the user directory.
func (r *AnalyticsRepository) UserAnalytics(ctx context.Context, now time.Time) (*models.UserAnalytics, error) {
	counts, err := r.periodCounts(ctx, "users", "1=1", now)
	if err != nil {
		return nil, err
	}
	result := &models.UserAnalytics{PeriodCounts: counts, ByRole: map[string]int{}}

	var byRole []labelCount
	if err := r.db.SelectContext(ctx, &byRole,
		`SELECT role AS label, COUNT(*) AS count FROM users GROUP BY role`); err != nil {
		return nil, fmt.Errorf("users by role: %w", err)
	}
	for _, row := range byRole {
		result.ByRole[row.Label] = row.Count
	}

	if err := r.db.GetContext(ctx, &result.ActiveUsers,
		`SELECT COUNT(*) FROM users WHERE active = TRUE`); err != nil {
		return nil, fmt.Errorf("active user count: %w", err)
	}
	result.InactiveUsers = result.Total - result.ActiveUsers
	return result, nil
}

// ActivityAnalytics returns roll-ups over the activity directory.
func (r *AnalyticsRepository) ActivityAnalytics(ctx context.Context, now time.Time) (*models.ActivityAnalytics, error) {
	counts, err := r.periodCounts(ctx, "activities", "record_status = 'ACTIVE'", now)
	if err != nil {
		return nil, err
	}
	result := &models.ActivityAnalytics{PeriodCounts: counts}

	const phaseQuery = `SELECT
        COUNT(*) FILTER (WHERE start_time > $1) AS upcoming,
        COUNT(*) FILTER (WHERE start_time <= $1 AND end_time >= $1) AS ongoing,
        COUNT(*) FILTER (WHERE end_time < $1) AS completed
        FROM activities WHERE record_status = 'ACTIVE'`
	var phases struct {
		Upcoming  int `db:"upcoming"`
		Ongoing   int `db:"ongoing"`
		Completed int `db:"completed"`
	}
	if err := r.db.GetContext(ctx, &phases, phaseQuery, now); err != nil {
		return nil, fmt.Errorf("activity phases: %w", err)
	}
	result.Upcoming = phases.Upcoming
	result.Ongoing = phases.Ongoing
	result.Completed = phases.Completed

	const avgQuery = `SELECT
        COALESCE(AVG(p.cnt), 0) AS avg_participants,
        COALESCE(AVG(res.cnt), 0) AS avg_resources
        FROM activities a
        LEFT JOIN (SELECT activity_id, COUNT(*) AS cnt FROM activity_participants
                   WHERE record_status = 'ACTIVE' GROUP BY activity_id) p ON p.activity_id = a.id
        LEFT JOIN (SELECT activity_id, COUNT(*) AS cnt FROM resources
                   WHERE record_status = 'ACTIVE' GROUP BY activity_id) res ON res.activity_id = a.id
        WHERE a.record_status = 'ACTIVE'`
	var avgs struct {
		AvgParticipants float64 `db:"avg_participants"`
		AvgResources    float64 `db:"avg_resources"`
	}
	if err := r.db.GetContext(ctx, &avgs, avgQuery); err != nil {
		return nil, fmt.Errorf("activity averages: %w", err)
	}
	result.AvgParticipants = avgs.AvgParticipants
	result.AvgResources = avgs.AvgResources
	return result, nil
}

// ParticipationAnalytics returns roll-ups over the participation ledger.
func (r *AnalyticsRepository) ParticipationAnalytics(ctx context.Context, now time.Time) (*models.ParticipationAnalytics, error) {
	counts, err := r.periodCounts(ctx, "activity_participants", "record_status = 'ACTIVE'", now)
	if err != nil {
		return nil, err
	}
	result := &models.ParticipationAnalytics{PeriodCounts: counts, ByStatus: map[string]int{}}

	var byStatus []labelCount
	if err := r.db.SelectContext(ctx, &byStatus,
		`SELECT participation_status AS label, COUNT(*) AS count FROM activity_participants
         WHERE record_status = 'ACTIVE' GROUP BY participation_status`); err != nil {
		return nil, fmt.Errorf("participation by status: %w", err)
	}
	for _, row := range byStatus {
		result.ByStatus[row.Label] = row.Count
	}
	return result, nil
}

// FeedbackAnalytics returns roll-ups over the feedback ledger.
func (r *AnalyticsRepository) FeedbackAnalytics(ctx context.Context, now time.Time) (*models.FeedbackAnalytics, error) {
	counts, err := r.periodCounts(ctx, "feedbacks", "1=1", now)
	if err != nil {
		return nil, err
	}
	result := &models.FeedbackAnalytics{PeriodCounts: counts, ByRating: map[string]int{}}

	if err := r.db.GetContext(ctx, &result.AvgRating,
		`SELECT COALESCE(AVG(rating), 0) FROM feedbacks`); err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}

	var byRating []labelCount
	if err := r.db.SelectContext(ctx, &byRating,
		`SELECT rating::text AS label, COUNT(*) AS count FROM feedbacks GROUP BY rating`); err != nil {
		return nil, fmt.Errorf("feedback by rating: %w", err)
	}
	for _, row := range byRating {
		result.ByRating[row.Label] = row.Count
	}
	return result, nil
}

// ResourceAnalytics returns roll-ups over the resource catalog.
func (r *AnalyticsRepository) ResourceAnalytics(ctx context.Context, now time.Time) (*models.ResourceAnalytics, error) {
	counts, err := r.periodCounts(ctx, "resources", "record_status = 'ACTIVE'", now)
	if err != nil {
		return nil, err
	}
	return &models.ResourceAnalytics{PeriodCounts: counts}, nil
}
