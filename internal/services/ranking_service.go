// Package services – RankingService
//
// RankingService builds the technician leaderboard. Candidates are the users
// holding the technician profile; each one is processed independently (user
// record, group memberships, level classification, ticket counts) on a
// bounded worker group. A candidate whose processing fails, or who is
// inactive, is dropped without affecting the others.
//
// Entries are sorted by total tickets descending, ties broken by technician
// id ascending. Ranks are assigned over the full sorted set before a limit
// is applied, so a limited ranking keeps the same rank numbers.

package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
)

const rankingCacheKey = "ranking"

// errInactive marks candidates dropped because their account is disabled.
var errInactive = errors.New("technician inactive or deleted")

// RankingQuery parameterizes GetTechnicianRanking. Zero values mean no limit,
// no date range and all levels.
type RankingQuery struct {
	Limit int
	Range *domain.DateRange
	Level domain.ServiceLevel
}

func (q RankingQuery) filtered() bool { return q.Range != nil || q.Level != "" }

func (q RankingQuery) cacheKey() string {
	if !q.filtered() {
		return ""
	}
	rng := ""
	if q.Range != nil {
		rng = q.Range.Key()
	}
	return rng + "|" + string(q.Level)
}

// RankingService computes and caches the technician ranking.
type RankingService struct {
	API        RemoteAPI
	Counter    *TicketCounter
	Classifier *LevelClassifier
	Cache      *cache.TTLCache

	// ProfileID is the remote profile that marks technicians.
	ProfileID int
	// Workers bounds concurrently processed candidates.
	Workers int
	// Timeout bounds one full computation.
	Timeout time.Duration

	TTL         time.Duration // unfiltered ranking
	FilteredTTL time.Duration // ranking with a range or level filter
}

// NewRankingService returns a service with default settings.
func NewRankingService(api RemoteAPI, counter *TicketCounter, cl *LevelClassifier, c *cache.TTLCache, profileID int) *RankingService {
	return &RankingService{
		API:         api,
		Counter:     counter,
		Classifier:  cl,
		Cache:       c,
		ProfileID:   profileID,
		Workers:     8,
		Timeout:     60 * time.Second,
		TTL:         300 * time.Second,
		FilteredTTL: 120 * time.Second,
	}
}

// GetTechnicianRanking returns the ordered ranking, at most q.Limit entries
// when q.Limit > 0. Only invalid queries produce an error.
func (s *RankingService) GetTechnicianRanking(ctx context.Context, q RankingQuery) ([]domain.RankingEntry, error) {
	if q.Limit < 0 {
		return nil, ErrInvalidLimit
	}
	if q.Level != "" && !q.Level.Valid() {
		return nil, ErrInvalidLevel
	}
	if q.Range != nil && q.Range.Start.After(q.Range.End) {
		return nil, ErrInvalidDateRange
	}

	ctx, span := otel.Tracer("services/RankingService").Start(ctx, "GetTechnicianRanking",
		trace.WithAttributes(
			attribute.Int("ranking.limit", q.Limit),
			attribute.String("ranking.level", string(q.Level)),
			attribute.Bool("ranking.range", q.Range != nil),
		),
	)
	defer span.End()

	ttl := s.TTL
	if q.filtered() {
		ttl = s.FilteredTTL
	}
	full := cache.Remember(ctx, s.Cache, rankingCacheKey, q.cacheKey(), ttl, func(ctx context.Context) ([]domain.RankingEntry, bool) {
		return s.compute(ctx, q)
	})
	span.SetAttributes(attribute.Int("ranking.size", len(full)))

	n := len(full)
	if q.Limit > 0 && q.Limit < n {
		n = q.Limit
	}
	out := make([]domain.RankingEntry, n)
	copy(out, full[:n])
	return out, nil
}

// Refresh recomputes the unfiltered ranking and replaces the cached copy.
func (s *RankingService) Refresh(ctx context.Context) []domain.RankingEntry {
	s.Cache.Invalidate(rankingCacheKey, "")
	out, _ := s.GetTechnicianRanking(ctx, RankingQuery{})
	return out
}

// compute returns the full sorted ranking and whether it may be cached. A
// ranking is not cached when candidate discovery failed or when every
// candidate failed.
func (s *RankingService) compute(ctx context.Context, q RankingQuery) ([]domain.RankingEntry, bool) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ids, err := s.candidates(ctx)
	if err != nil {
		log.Error().Err(err).Int("profile_id", s.ProfileID).Msg("technician discovery failed")
		return []domain.RankingEntry{}, false
	}

	var (
		mu      sync.Mutex
		entries = make([]domain.RankingEntry, 0, len(ids))
		failed  int
	)
	g := new(errgroup.Group)
	g.SetLimit(max(s.Workers, 1))
	for _, id := range ids {
		g.Go(func() error {
			e, keep, err := s.processCandidate(ctx, id, q)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, errInactive):
			case err != nil:
				failed++
				log.Warn().Err(err).Int("technician_id", id).Msg("skipping technician")
			case keep:
				entries = append(entries, e)
			}
			return nil
		})
	}
	_ = g.Wait()

	SortRanking(entries)
	cacheable := len(ids) == 0 || failed < len(ids)
	if failed > 0 {
		log.Info().Int("candidates", len(ids)).Int("failed", failed).Msg("ranking computed with skipped technicians")
	}
	return entries, cacheable
}

type profileUser struct {
	UsersID int `json:"users_id"`
}

// candidates lists the distinct users holding the technician profile, in
// ascending id order.
func (s *RankingService) candidates(ctx context.Context) ([]int, error) {
	var rows []profileUser
	if err := s.API.GetSubItems(ctx, "Profile", s.ProfileID, "Profile_User", &rows); err != nil {
		return nil, err
	}
	seen := make(map[int]struct{}, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		if r.UsersID <= 0 {
			continue
		}
		if _, dup := seen[r.UsersID]; dup {
			continue
		}
		seen[r.UsersID] = struct{}{}
		ids = append(ids, r.UsersID)
	}
	sort.Ints(ids)
	return ids, nil
}

// flexInt decodes GLPI booleans/ids sent either as numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type userRecord struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Realname  string   `json:"realname"`
	Firstname string   `json:"firstname"`
	IsActive  *flexInt `json:"is_active"`
	IsDeleted flexInt  `json:"is_deleted"`
}

type groupUser struct {
	GroupsID int `json:"groups_id"`
}

// processCandidate builds one entry. keep is false when the technician does
// not match the level filter.
func (s *RankingService) processCandidate(ctx context.Context, id int, q RankingQuery) (domain.RankingEntry, bool, error) {
	var u userRecord
	if err := s.API.GetItem(ctx, "User", id, &u); err != nil {
		return domain.RankingEntry{}, false, err
	}
	if (u.IsActive != nil && *u.IsActive == 0) || u.IsDeleted == 1 {
		return domain.RankingEntry{}, false, errInactive
	}

	var memberships []groupUser
	if err := s.API.GetSubItems(ctx, "User", id, "Group_User", &memberships); err != nil {
		return domain.RankingEntry{}, false, err
	}
	groups := make([]int, 0, len(memberships))
	for _, m := range memberships {
		groups = append(groups, m.GroupsID)
	}

	name := DisplayName(id, u.Firstname, u.Realname, u.Name)
	cl := s.Classifier.Classify(groups, name)
	if q.Level != "" && cl.Level != q.Level {
		return domain.RankingEntry{}, false, nil
	}

	counts, failed := s.Counter.CountBuckets(ctx, Selector{TechnicianID: id}, Window{Range: q.Range, Field: domain.DateCreation}, "")
	if failed > 0 {
		return domain.RankingEntry{}, false, errors.New(strconv.Itoa(failed) + " ticket counts failed")
	}

	return domain.RankingEntry{
		TechnicianID: id,
		Name:         name,
		Total:        counts.Total,
		Breakdown: domain.Breakdown{
			New:        counts.New,
			Pending:    counts.Pending,
			InProgress: counts.InProgress,
			Resolved:   counts.Resolved,
		},
		Level:       cl.Level,
		LevelSource: cl.Source,
		Score:       Score(counts),
	}, true, nil
}

// DisplayName prefers "first last", then whichever of the two names is set,
// then the login, then a placeholder.
func DisplayName(id int, firstname, realname, login string) string {
	first, last := strings.TrimSpace(firstname), strings.TrimSpace(realname)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case last != "":
		return last
	case first != "":
		return first
	case strings.TrimSpace(login) != "":
		return strings.TrimSpace(login)
	}
	return "Technician " + strconv.Itoa(id)
}

// Score weights resolved tickets on top of the total; it never decreases as
// the total grows.
func Score(c domain.StatusCounts) float64 {
	return float64(c.Total) + 0.5*float64(c.Resolved)
}

// SortRanking orders entries by total descending, then technician id
// ascending, and assigns 1-based ranks.
func SortRanking(entries []domain.RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].TechnicianID < entries[j].TechnicianID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
