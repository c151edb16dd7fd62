package domain

import "time"

// MetricsSnapshot is a persisted copy of an unfiltered dashboard computation,
// written by the cache warmer so that history survives cache expiry.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - TakenAt: when the metrics were computed (indexed for newest-first listing).
//   - New/Pending/InProgress/Resolved/Total: whole-system bucket counts.
//   - TopTechnicianID: leader of the ranking at that time (0 when unknown).
//   - Payload: the full DashboardMetrics JSON.
type MetricsSnapshot struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	TakenAt         time.Time `json:"taken_at"          gorm:"not null;index:idx_snapshots_taken"`
	New             int       `json:"new"               gorm:"not null;default:0"`
	Pending         int       `json:"pending"           gorm:"not null;default:0"`
	InProgress      int       `json:"in_progress"       gorm:"not null;default:0"`
	Resolved        int       `json:"resolved"          gorm:"not null;default:0"`
	Total           int       `json:"total"             gorm:"not null;default:0"`
	TopTechnicianID int       `json:"top_technician_id" gorm:"not null;default:0"`
	Payload         string    `json:"-"                 gorm:"type:text;not null"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for MetricsSnapshot.
func (MetricsSnapshot) TableName() string { return "metrics_snapshots" }
