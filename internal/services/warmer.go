// Package services – Warmer
//
// Warmer keeps the unfiltered dashboard and ranking hot. On every cron tick
// it recomputes both, replacing the cached copies, and records a snapshot
// when history is enabled. Overlapping ticks are skipped.

package services

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Warmer refreshes cached payloads on a schedule.
type Warmer struct {
	Dashboard *DashboardService
	Ranking   *RankingService
	History   *HistoryService

	// Timeout bounds one warm run.
	Timeout time.Duration

	cron *cron.Cron
}

// NewWarmer returns a warmer; history may be nil.
func NewWarmer(d *DashboardService, r *RankingService, h *HistoryService) *Warmer {
	return &Warmer{Dashboard: d, Ranking: r, History: h, Timeout: 2 * time.Minute}
}

// Start schedules WarmNow with a standard 5-field cron expression (descriptors
// such as "@every 5m" are accepted).
func (w *Warmer) Start(schedule string) error {
	if w.cron != nil {
		return errors.New("warmer already started")
	}
	logger := cronLogger{log.Logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(schedule, func() { w.WarmNow(context.Background()) }); err != nil {
		return err
	}
	w.cron = c
	c.Start()
	log.Info().Str("schedule", schedule).Msg("cache warmer started")
	return nil
}

// Stop halts scheduling and waits for a running warm to finish or ctx to end.
func (w *Warmer) Stop(ctx context.Context) {
	if w.cron == nil {
		return
	}
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	w.cron = nil
}

// WarmNow refreshes the dashboard and ranking and records a snapshot.
func (w *Warmer) WarmNow(ctx context.Context) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	start := time.Now()

	m := w.Dashboard.Refresh(ctx)
	ranking := w.Ranking.Refresh(ctx)

	ev := log.Info()
	if m.Partial {
		ev = log.Warn()
	}
	ev.Dur("took", time.Since(start)).
		Int("tickets", m.Totals.Total).
		Int("technicians", len(ranking)).
		Bool("partial", m.Partial).
		Msg("cache warmed")

	if !w.History.Enabled() {
		return
	}
	if m.Partial {
		log.Info().Msg("partial dashboard; snapshot skipped")
		return
	}
	if err := w.History.Record(ctx, m, ranking); err != nil {
		log.Error().Err(err).Msg("snapshot write failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...interface{}) {
	c.l.Debug().Fields(kv).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, kv ...interface{}) {
	c.l.Error().Err(err).Fields(kv).Msg("cron: " + msg)
}
