// Package repo implements the persistence layer for dashboard snapshots.
// This file provides the snapshot repository functions.
//
// Functions are context-aware and accept a *gorm.DB handle. They carry no
// business logic; the warmer decides when to write and the history handler
// when to read.
//
//   - SaveSnapshot(ctx, db, m, topTechnicianID) -> *domain.MetricsSnapshot, error
//     Serializes the dashboard payload and inserts a row with a UUID key.
//
//   - ListSnapshots(ctx, db, limit) -> []domain.MetricsSnapshot, error
//     Returns the newest snapshots first.
//
//   - PruneSnapshots(ctx, db, keep) -> (int64, error)
//     Deletes all but the newest keep rows.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
)

// MaxSnapshotPage caps a single history listing.
const MaxSnapshotPage = 500

// SaveSnapshot persists the totals of m plus its JSON form.
func SaveSnapshot(ctx context.Context, db *gorm.DB, m domain.DashboardMetrics, topTechnicianID int) (*domain.MetricsSnapshot, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	takenAt := m.GeneratedAt
	if takenAt.IsZero() {
		takenAt = time.Now()
	}
	s := &domain.MetricsSnapshot{
		ID:              uuid.NewString(),
		TakenAt:         takenAt.UTC(),
		New:             m.Totals.New,
		Pending:         m.Totals.Pending,
		InProgress:      m.Totals.InProgress,
		Resolved:        m.Totals.Resolved,
		Total:           m.Totals.Total,
		TopTechnicianID: topTechnicianID,
		Payload:         string(payload),
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ListSnapshots returns up to limit snapshots, newest first. A non-positive
// limit or one above MaxSnapshotPage is clamped.
func ListSnapshots(ctx context.Context, db *gorm.DB, limit int) ([]domain.MetricsSnapshot, error) {
	if limit <= 0 || limit > MaxSnapshotPage {
		limit = MaxSnapshotPage
	}
	var out []domain.MetricsSnapshot
	err := db.WithContext(ctx).
		Order("taken_at DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// PruneSnapshots keeps the newest keep snapshots and deletes the rest.
func PruneSnapshots(ctx context.Context, db *gorm.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	sub := db.Model(&domain.MetricsSnapshot{}).
		Select("id").
		Order("taken_at DESC").
		Order("created_at DESC").
		Limit(keep)
	res := db.WithContext(ctx).
		Where("id NOT IN (?)", sub).
		Delete(&domain.MetricsSnapshot{})
	return res.RowsAffected, res.Error
}
