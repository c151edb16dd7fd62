// Package services – StatusService
//
// StatusService reports whether the remote system is reachable, the session
// state, the resolved field mapping and cache statistics. It is the one place
// that authenticates eagerly; everything else authenticates lazily on first
// request.

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/glpi-dashboard-backend/internal/cache"
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/glpi"
)

// RemoteHealth is the subset of *glpi.Client used for status checks.
type RemoteHealth interface {
	EnsureAuthenticated(ctx context.Context) bool
	Ping(ctx context.Context) (*glpi.Response, error)
	SessionState() (glpi.State, time.Time)
}

// StatusService builds SystemStatus reports.
type StatusService struct {
	API    RemoteHealth
	Fields FieldSource
	Cache  *cache.TTLCache
	Now    func() time.Time
}

// NewStatusService returns a StatusService.
func NewStatusService(api RemoteHealth, fields FieldSource, c *cache.TTLCache) *StatusService {
	return &StatusService{API: api, Fields: fields, Cache: c, Now: time.Now}
}

// EnsureAuthenticated opens a remote session if none is valid.
func (s *StatusService) EnsureAuthenticated(ctx context.Context) bool {
	return s.API.EnsureAuthenticated(ctx)
}

// GetSystemStatus never fails; an unreachable remote yields "offline".
func (s *StatusService) GetSystemStatus(ctx context.Context) domain.SystemStatus {
	ctx, span := otel.Tracer("services/StatusService").Start(ctx, "GetSystemStatus")
	defer span.End()

	out := domain.SystemStatus{Status: "offline", CheckedAt: s.now().UTC()}

	if s.API.EnsureAuthenticated(ctx) {
		start := time.Now()
		resp, err := s.API.Ping(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("kind", glpi.KindOf(err).String()).Msg("status ping failed")
		default:
			out.Status = "online"
			out.ResponseTimeMS = resp.Duration.Milliseconds()
			if resp.Duration == 0 {
				out.ResponseTimeMS = time.Since(start).Milliseconds()
			}
		}
	}

	state, last := s.API.SessionState()
	out.SessionState = state.String()
	out.Authenticated = state == glpi.Authenticated
	if !last.IsZero() {
		l := last.UTC()
		out.LastAuthAt = &l
	}

	m := s.Fields.Resolve(ctx)
	out.FieldMapping = domain.FieldMappingStatus{Fields: m.AsMap(), Fallbacks: append([]string{}, m.Fallbacks...)}

	entries, hits, misses := s.Cache.Stats()
	out.Cache = domain.CacheStatus{Entries: entries, Hits: hits, Misses: misses}

	span.SetAttributes(
		attribute.String("status", out.Status),
		attribute.String("session.state", out.SessionState),
		attribute.Int64("remote.latency_ms", out.ResponseTimeMS),
	)
	return out
}

// InvalidateCache drops every entry under key, or the whole cache when key
// is empty.
func (s *StatusService) InvalidateCache(key string) {
	if key == "" {
		s.Cache.Clear()
		log.Info().Msg("cache cleared")
		return
	}
	s.Cache.InvalidateKey(key)
	log.Info().Str("key", key).Msg("cache key invalidated")
}

func (s *StatusService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
