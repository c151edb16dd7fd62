// Package handlers – wiring
//
// Handlers are transport-thin: they parse query parameters, call the
// dashboard services, and translate validation errors into the standard
// error envelope. Endpoints:
//   - GET  /dashboard/metrics            (whole-system and per-level buckets)
//   - GET  /dashboard/metrics/filtered   (level/status/technician/date field)
//   - GET  /dashboard/history            (persisted snapshots)
//   - GET  /technicians/ranking          (leaderboard)
//   - GET  /status                       (remote connectivity, cache stats)
//   - POST /cache/invalidate             (drop cached payloads)
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// DashboardService computes dashboard metrics. Remote failures are absorbed
// and reported through DashboardMetrics.Partial.
type DashboardService interface {
	GetDashboardMetrics(ctx context.Context, rng *domain.DateRange) domain.DashboardMetrics
	GetDashboardMetricsWithFilters(ctx context.Context, f services.DashboardFilter) (domain.DashboardMetrics, error)
}

// RankingService computes the technician leaderboard.
type RankingService interface {
	GetTechnicianRanking(ctx context.Context, q services.RankingQuery) ([]domain.RankingEntry, error)
}

// StatusService reports system health and administers the cache.
type StatusService interface {
	GetSystemStatus(ctx context.Context) domain.SystemStatus
	InvalidateCache(key string)
}

// HistoryService lists persisted dashboard snapshots.
type HistoryService interface {
	List(ctx context.Context, limit int) ([]domain.MetricsSnapshot, error)
}

// Handlers groups the dashboard API endpoints.
type Handlers struct {
	dashSvc    DashboardService
	rankSvc    RankingService
	statusSvc  StatusService
	historySvc HistoryService
}

// New constructs Handlers bound to the given services. historySvc may be nil
// when snapshots are disabled.
func New(dash DashboardService, rank RankingService, status StatusService, history HistoryService) *Handlers {
	return &Handlers{dashSvc: dash, rankSvc: rank, statusSvc: status, historySvc: history}
}

// failValidation maps service validation errors to 400 responses and
// anything else to 500.
func failValidation(c *gin.Context, err error) {
	code := ErrCodeBadRequest
	switch {
	case errors.Is(err, services.ErrInvalidDateRange):
		code = ErrCodeInvalidDateRange
	case errors.Is(err, services.ErrInvalidLevel):
		code = ErrCodeInvalidLevel
	case errors.Is(err, services.ErrInvalidStatus):
		code = ErrCodeInvalidStatus
	case errors.Is(err, services.ErrInvalidTechnician):
		code = ErrCodeInvalidTechnician
	case errors.Is(err, services.ErrInvalidDateField):
		code = ErrCodeInvalidDateField
	case errors.Is(err, services.ErrInvalidLimit):
		code = ErrCodeInvalidLimit
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	fail(c, http.StatusBadRequest, code, err.Error())
}
