// Package services – DashboardService
//
// DashboardService assembles the dashboard payload: the four derived status
// buckets for the whole system and for each service level, plus trend
// percentages against the previous window. Individual counts fan out over a
// bounded worker group; a failed count reads as zero and marks the payload
// Partial, and partial payloads are never cached.
//
// Observability: public methods are OpenTelemetry-instrumented with the
// applied filters as span attributes.

package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
)

const (
	dashboardCacheKey         = "dashboard"
	dashboardFilteredCacheKey = "dashboard_filtered"
)

// DashboardFilter narrows a dashboard computation. The zero value is the
// unfiltered dashboard.
type DashboardFilter struct {
	Range        *domain.DateRange
	Level        domain.ServiceLevel
	Status       domain.Bucket
	TechnicianID int
	DateField    domain.DateField
}

// Validate checks every set field.
func (f DashboardFilter) Validate() error {
	if f.Range != nil && f.Range.Start.After(f.Range.End) {
		return ErrInvalidDateRange
	}
	if f.Level != "" && !f.Level.Valid() {
		return ErrInvalidLevel
	}
	if f.Status != "" && f.Status.Statuses() == nil {
		return ErrInvalidStatus
	}
	if f.TechnicianID < 0 {
		return ErrInvalidTechnician
	}
	switch f.DateField {
	case "", domain.DateCreation, domain.DateModification:
	default:
		return ErrInvalidDateField
	}
	return nil
}

func (f DashboardFilter) dateField() domain.DateField {
	if f.DateField == "" {
		return domain.DateCreation
	}
	return f.DateField
}

// cacheKey is stable for equal filters.
func (f DashboardFilter) cacheKey() string {
	rng := ""
	if f.Range != nil {
		rng = f.Range.Key()
	}
	return strings.Join([]string{
		rng, string(f.Level), string(f.Status), strconv.Itoa(f.TechnicianID), string(f.dateField()),
	}, "|")
}

func (f DashboardFilter) applied() domain.AppliedFilters {
	a := domain.AppliedFilters{
		Level:        f.Level,
		Status:       string(f.Status),
		TechnicianID: f.TechnicianID,
		DateField:    f.dateField(),
	}
	if f.Range != nil {
		a.StartDate = f.Range.Start.Format(domain.DateLayout)
		a.EndDate = f.Range.End.Format(domain.DateLayout)
	}
	return a
}

// DashboardService computes and caches dashboard metrics.
type DashboardService struct {
	Counter *TicketCounter
	Cache   *cache.TTLCache

	// Workers bounds concurrent remote counts.
	Workers int
	// Timeout bounds one full computation.
	Timeout time.Duration

	TTL         time.Duration // unfiltered, no range
	RangeTTL    time.Duration // unfiltered with a date range
	FilteredTTL time.Duration // any other filter combination

	Now func() time.Time
}

// NewDashboardService returns a service with default TTLs (180s/300s/120s).
func NewDashboardService(counter *TicketCounter, c *cache.TTLCache) *DashboardService {
	return &DashboardService{
		Counter:     counter,
		Cache:       c,
		Workers:     8,
		Timeout:     60 * time.Second,
		TTL:         180 * time.Second,
		RangeTTL:    300 * time.Second,
		FilteredTTL: 120 * time.Second,
		Now:         time.Now,
	}
}

// GetDashboardMetrics returns whole-system and per-level metrics, optionally
// restricted to rng (ticket creation date).
func (s *DashboardService) GetDashboardMetrics(ctx context.Context, rng *domain.DateRange) domain.DashboardMetrics {
	ctx, span := otel.Tracer("services/DashboardService").Start(ctx, "GetDashboardMetrics",
		trace.WithAttributes(attribute.Bool("dashboard.range", rng != nil)),
	)
	defer span.End()

	f := DashboardFilter{Range: rng}
	ttl := s.TTL
	if rng != nil {
		ttl = s.RangeTTL
	}
	return cache.Remember(ctx, s.Cache, dashboardCacheKey, f.cacheKey(), ttl, func(ctx context.Context) (domain.DashboardMetrics, bool) {
		m := s.compute(ctx, f)
		return m, !m.Partial
	})
}

// GetDashboardMetricsWithFilters validates f and returns the filtered metrics.
func (s *DashboardService) GetDashboardMetricsWithFilters(ctx context.Context, f DashboardFilter) (domain.DashboardMetrics, error) {
	if err := f.Validate(); err != nil {
		return domain.DashboardMetrics{}, err
	}
	if f.Level == "" && f.Status == "" && f.TechnicianID == 0 && f.dateField() == domain.DateCreation {
		return s.GetDashboardMetrics(ctx, f.Range), nil
	}

	ctx, span := otel.Tracer("services/DashboardService").Start(ctx, "GetDashboardMetricsWithFilters",
		trace.WithAttributes(
			attribute.String("filter.level", string(f.Level)),
			attribute.String("filter.status", string(f.Status)),
			attribute.Int("filter.technician_id", f.TechnicianID),
			attribute.String("filter.date_field", string(f.dateField())),
		),
	)
	defer span.End()

	m := cache.Remember(ctx, s.Cache, dashboardFilteredCacheKey, f.cacheKey(), s.FilteredTTL, func(ctx context.Context) (domain.DashboardMetrics, bool) {
		m := s.compute(ctx, f)
		return m, !m.Partial
	})
	return m, nil
}

// Refresh recomputes the unfiltered dashboard and replaces the cached copy.
func (s *DashboardService) Refresh(ctx context.Context) domain.DashboardMetrics {
	s.Cache.Invalidate(dashboardCacheKey, DashboardFilter{}.cacheKey())
	return s.GetDashboardMetrics(ctx, nil)
}

type countJob struct {
	scope  int
	bucket domain.Bucket
	status domain.TicketStatus
	sel    Selector
	win    Window
}

// compute runs every count of f concurrently and assembles the payload.
func (s *DashboardService) compute(ctx context.Context, f DashboardFilter) domain.DashboardMetrics {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	now := s.now()
	field := f.dateField()
	base := Selector{Level: f.Level, TechnicianID: f.TechnicianID}

	// Scopes: 0 totals, then one per reported level, then trend windows.
	type scope struct {
		sel   Selector
		win   Window
		level domain.ServiceLevel
	}
	scopes := []scope{{sel: base, win: Window{Range: f.Range, Field: field}}}
	levels := domain.Levels
	if f.Level != "" {
		levels = []domain.ServiceLevel{f.Level}
	}
	for _, l := range levels {
		if l == f.Level {
			continue // same as totals
		}
		scopes = append(scopes, scope{sel: Selector{Level: l, TechnicianID: f.TechnicianID}, win: Window{Range: f.Range, Field: field}, level: l})
	}

	curWin, prevWin := trendWindows(f.Range, now)
	curScope := 0
	if f.Range == nil {
		curScope = len(scopes)
		scopes = append(scopes, scope{sel: base, win: Window{Range: &curWin, Field: field}})
	}
	prevScope := len(scopes)
	scopes = append(scopes, scope{sel: base, win: Window{Range: &prevWin, Field: field}})

	var jobs []countJob
	for i, sc := range scopes {
		for _, b := range domain.Buckets {
			if f.Status != "" && b != f.Status {
				continue
			}
			for _, st := range b.Statuses() {
				jobs = append(jobs, countJob{scope: i, bucket: b, status: st, sel: sc.sel, win: sc.win})
			}
		}
	}

	results := make([]int, len(jobs))
	oks := make([]bool, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(max(s.Workers, 1))
	for i, j := range jobs {
		g.Go(func() error {
			results[i], oks[i] = s.Counter.countOrZero(ctx, j.sel, j.status, j.win)
			return nil
		})
	}
	_ = g.Wait()

	counts := make([]domain.StatusCounts, len(scopes))
	partial := false
	for i, j := range jobs {
		counts[j.scope].Add(j.bucket, results[i])
		if !oks[i] {
			partial = true
		}
	}

	out := domain.DashboardMetrics{
		Totals:      counts[0],
		Levels:      make(map[domain.ServiceLevel]domain.StatusCounts, len(levels)),
		Trends:      computeTrends(counts[curScope], counts[prevScope]),
		Filters:     f.applied(),
		GeneratedAt: now.UTC(),
		Partial:     partial,
	}
	if f.Level != "" {
		out.Levels[f.Level] = counts[0]
	}
	for i, sc := range scopes {
		if sc.level != "" {
			out.Levels[sc.level] = counts[i]
		}
	}
	return out
}

func (s *DashboardService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
