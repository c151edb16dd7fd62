// Dashboard HTTP handlers.
//
// Metrics payloads are always 200 with a JSON body; when some remote counts
// failed the payload carries "partial": true and the request is flagged for
// the partial-response metric.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/repo"
	"github.com/tbourn/glpi-dashboard-backend/internal/services"
	"github.com/tbourn/glpi-dashboard-backend/internal/utils"
)

const defaultHistoryLimit = 30

// HistoryResponse wraps a page of persisted dashboard snapshots.
type HistoryResponse struct {
	Snapshots []domain.MetricsSnapshot `json:"snapshots"`
	Count     int                      `json:"count"`
	Limit     int                      `json:"limit"`
}

// GetDashboardMetrics godoc
// @ID          getDashboardMetrics
// @Summary     Dashboard metrics
// @Description Ticket counts per status bucket for the whole system and per service level, with trends against the previous period.
// @Tags        Dashboard
// @Produce     json
//
// @Param       start_date  query  string  false  "Range start (YYYY-MM-DD), requires end_date"  example(2025-01-01)
// @Param       end_date    query  string  false  "Range end (YYYY-MM-DD), requires start_date"  example(2025-01-31)
//
// @Success     200  {object}  domain.DashboardMetrics
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid date range"
// @Router      /dashboard/metrics [get]
func (h *Handlers) GetDashboardMetrics(c *gin.Context) {
	rng, err := services.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		failValidation(c, err)
		return
	}
	m := h.dashSvc.GetDashboardMetrics(c.Request.Context(), rng)
	okMetrics(c, m)
}

// GetFilteredDashboardMetrics godoc
// @ID          getFilteredDashboardMetrics
// @Summary     Filtered dashboard metrics
// @Description Dashboard metrics narrowed by level, status bucket, technician and the date field the range applies to.
// @Tags        Dashboard
// @Produce     json
//
// @Param       start_date     query  string  false  "Range start (YYYY-MM-DD)"  example(2025-01-01)
// @Param       end_date       query  string  false  "Range end (YYYY-MM-DD)"    example(2025-01-31)
// @Param       level          query  string  false  "Service level"             Enums(N1, N2, N3, N4)
// @Param       status         query  string  false  "Status bucket"             Enums(new, pending, in_progress, resolved)
// @Param       technician_id  query  int     false  "Assigned technician id"    minimum(1)
// @Param       date_field     query  string  false  "Date the range applies to" Enums(creation, modification) default(creation)
//
// @Success     200  {object}  domain.DashboardMetrics
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid filter"
// @Router      /dashboard/metrics/filtered [get]
func (h *Handlers) GetFilteredDashboardMetrics(c *gin.Context) {
	f, err := parseDashboardFilter(c)
	if err != nil {
		failValidation(c, err)
		return
	}
	m, err := h.dashSvc.GetDashboardMetricsWithFilters(c.Request.Context(), f)
	if err != nil {
		failValidation(c, err)
		return
	}
	okMetrics(c, m)
}

// GetDashboardHistory godoc
// @ID          getDashboardHistory
// @Summary     Dashboard snapshot history
// @Description Latest persisted dashboard snapshots, newest first. Snapshots are written by the cache warmer.
// @Tags        Dashboard
// @Produce     json
//
// @Param       limit  query  int  false  "Maximum snapshots"  minimum(1) maximum(500) default(30)
//
// @Success     200  {object}  handlers.HistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid limit"
// @Failure     404  {object}  handlers.ErrorResponse  "History disabled"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /dashboard/history [get]
func (h *Handlers) GetDashboardHistory(c *gin.Context) {
	if h.historySvc == nil {
		fail(c, http.StatusNotFound, ErrCodeHistoryDisabled, services.ErrHistoryDisabled.Error())
		return
	}
	limit, err := utils.ParseOptionalInt(c.Query("limit"), defaultHistoryLimit)
	if err != nil || limit < 1 {
		fail(c, http.StatusBadRequest, ErrCodeInvalidLimit, services.ErrInvalidLimit.Error())
		return
	}
	limit = utils.ClampLimit(limit, repo.MaxSnapshotPage)

	items, err := h.historySvc.List(c.Request.Context(), limit)
	switch {
	case errors.Is(err, services.ErrHistoryDisabled):
		fail(c, http.StatusNotFound, ErrCodeHistoryDisabled, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeHistoryFailed, "could not load snapshot history")
		return
	}
	if items == nil {
		items = []domain.MetricsSnapshot{}
	}
	ok(c, http.StatusOK, HistoryResponse{Snapshots: items, Count: len(items), Limit: limit})
}

func parseDashboardFilter(c *gin.Context) (services.DashboardFilter, error) {
	var f services.DashboardFilter
	var err error
	if f.Range, err = services.ParseDateRange(c.Query("start_date"), c.Query("end_date")); err != nil {
		return f, err
	}
	if f.Level, err = services.ParseLevelFilter(c.Query("level")); err != nil {
		return f, err
	}
	if f.Status, err = services.ParseBucket(c.Query("status")); err != nil {
		return f, err
	}
	if f.TechnicianID, err = utils.ParseOptionalInt(c.Query("technician_id"), 0); err != nil || f.TechnicianID < 0 {
		return f, services.ErrInvalidTechnician
	}
	if f.DateField, err = services.ParseDateField(c.Query("date_field")); err != nil {
		return f, err
	}
	return f, nil
}
