package models

import "time"

// PeriodCounts holds created-at roll-ups shared by every aggregate.
type PeriodCounts struct {
	Total     int `db:"total" json:"total"`
	Today     int `db:"today" json:"today"`
	ThisWeek  int `db:"this_week" json:"this_week"`
	ThisMonth int `db:"this_month" json:"this_month"`
}

// UserAnalytics summarises the user directory.
type UserAnalytics struct {
	PeriodCounts
	ByRole        map[string]int `json:"by_role"`
	ActiveUsers   int            `json:"active_users"`
	InactiveUsers int            `json:"inactive_users"`
}

// ActivityAnalytics summarises the activity directory.
type ActivityAnalytics struct {
	PeriodCounts
	Upcoming        int     `json:"upcoming"`
	Ongoing         int     `json:"ongoing"`
	Completed       int     `json:"completed"`
	AvgParticipants float64 `json:"avg_participants"`
	AvgResources    float64 `json:"avg_resources"`
}

// ParticipationAnalytics summarises the participation ledger.
type ParticipationAnalytics struct {
	PeriodCounts
	ByStatus       map[string]int `json:"by_status"`
	AttendanceRate float64        `json:"attendance_rate"`
}

// FeedbackAnalytics summarises the feedback ledger.
type FeedbackAnalytics struct {
	PeriodCounts
	AvgRating float64        `json:"avg_rating"`
	ByRating  map[string]int `json:"by_rating"`
}

// ResourceAnalytics summarises the resource catalog.
type ResourceAnalytics struct {
	PeriodCounts
}

// SystemMetrics is a lightweight runtime snapshot for the analytics surface.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// SystemOverview bundles every aggregate into one response.
type SystemOverview struct {
	Users          UserAnalytics          `json:"users"`
	Activities     ActivityAnalytics      `json:"activities"`
	Participations ParticipationAnalytics `json:"participations"`
	Feedbacks      FeedbackAnalytics      `json:"feedbacks"`
	Resources      ResourceAnalytics      `json:"resources"`
}
