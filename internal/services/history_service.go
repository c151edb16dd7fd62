package services

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/repo"
)

// HistoryService persists and lists dashboard snapshots. A nil DB disables
// history.
type HistoryService struct {
	DB *gorm.DB
	// Keep bounds the stored snapshots; 0 keeps everything.
	Keep int
}

// Enabled reports whether snapshots are persisted.
func (s *HistoryService) Enabled() bool { return s != nil && s.DB != nil }

// Record stores m together with the current ranking leader.
func (s *HistoryService) Record(ctx context.Context, m domain.DashboardMetrics, ranking []domain.RankingEntry) error {
	if !s.Enabled() {
		return ErrHistoryDisabled
	}
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "Record")
	defer span.End()

	top := 0
	if len(ranking) > 0 {
		top = ranking[0].TechnicianID
	}
	snap, err := repo.SaveSnapshot(ctx, s.DB, m, top)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("snapshot.id", snap.ID))

	if s.Keep > 0 {
		if n, err := repo.PruneSnapshots(ctx, s.DB, s.Keep); err != nil {
			log.Warn().Err(err).Msg("snapshot prune failed")
		} else if n > 0 {
			log.Debug().Int64("deleted", n).Msg("old snapshots pruned")
		}
	}
	return nil
}

// List returns up to limit snapshots, newest first.
func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.MetricsSnapshot, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	ctx, span := otel.Tracer("services/HistoryService").Start(ctx, "List",
		trace.WithAttributes(attribute.Int("history.limit", limit)),
	)
	defer span.End()
	return repo.ListSnapshots(ctx, s.DB, limit)
}
