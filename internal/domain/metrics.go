package domain

import "time"

// Trends holds period-over-period percentages per bucket, e.g. "+20.0%".
type Trends struct {
	New        string `json:"new"`
	Pending    string `json:"pending"`
	InProgress string `json:"in_progress"`
	Resolved   string `json:"resolved"`
}

// AppliedFilters echoes the filters a dashboard payload was computed with.
type AppliedFilters struct {
	StartDate    string       `json:"start_date,omitempty"`
	EndDate      string       `json:"end_date,omitempty"`
	Level        ServiceLevel `json:"level,omitempty"`
	Status       string       `json:"status,omitempty"`
	TechnicianID int          `json:"technician_id,omitempty"`
	DateField    DateField    `json:"date_field,omitempty"`
}

// DashboardMetrics is the aggregated dashboard payload.
type DashboardMetrics struct {
	Totals      StatusCounts                  `json:"totals"`
	Levels      map[ServiceLevel]StatusCounts `json:"levels"`
	Trends      Trends                        `json:"trends"`
	Filters     AppliedFilters                `json:"filters"`
	GeneratedAt time.Time                     `json:"generated_at"`
	// Partial is set when at least one remote count failed and was read as zero.
	Partial bool `json:"partial"`
}

// Breakdown is a technician's ticket count per derived bucket.
type Breakdown struct {
	New        int `json:"new"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// RankingEntry is one technician's row in the leaderboard.
type RankingEntry struct {
	TechnicianID int                  `json:"technician_id"`
	Name         string               `json:"name"`
	Total        int                  `json:"total"`
	Breakdown    Breakdown            `json:"breakdown"`
	Level        ServiceLevel         `json:"level"`
	LevelSource  ClassificationSource `json:"level_source"`
	Score        float64              `json:"score"`
	Rank         int                  `json:"rank"`
}

// FieldMappingStatus describes how the remote schema was resolved.
type FieldMappingStatus struct {
	Fields    map[string]string `json:"fields"`
	Fallbacks []string          `json:"fallbacks"`
}

// CacheStatus is a point-in-time view of the memoization layer.
type CacheStatus struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// SystemStatus reports remote connectivity and local health.
type SystemStatus struct {
	Status         string             `json:"status"` // online|offline
	Authenticated  bool               `json:"authenticated"`
	SessionState   string             `json:"session_state"`
	LastAuthAt     *time.Time         `json:"last_auth_at,omitempty"`
	ResponseTimeMS int64              `json:"response_time_ms"`
	FieldMapping   FieldMappingStatus `json:"field_mapping"`
	Cache          CacheStatus        `json:"cache"`
	CheckedAt      time.Time          `json:"checked_at"`
}
