// System status and cache administration handlers.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/http/middleware"
)

// GetSystemStatus godoc
// @ID          getSystemStatus
// @Summary     System status
// @Description Remote GLPI connectivity, session state, field-mapping fallbacks and cache statistics. Always 200; check the status field.
// @Tags        System
// @Produce     json
//
// @Success     200  {object}  domain.SystemStatus
// @Router      /status [get]
func (h *Handlers) GetSystemStatus(c *gin.Context) {
	ok(c, http.StatusOK, h.statusSvc.GetSystemStatus(c.Request.Context()))
}

// InvalidateCache godoc
// @ID          invalidateCache
// @Summary     Invalidate cached payloads
// @Description Drops one cache key (every sub-key included) or, without key, the whole cache.
// @Tags        System
//
// @Param       key  query  string  false  "Cache key"  Enums(dashboard, dashboard_filtered, ranking, glpi_fields)
//
// @Success     204  {string}  string  "No Content"
// @Router      /cache/invalidate [post]
func (h *Handlers) InvalidateCache(c *gin.Context) {
	key := strings.TrimSpace(c.Query("key"))
	h.statusSvc.InvalidateCache(key)
	middleware.LoggerFrom(c).Info().Str("key", key).Msg("cache invalidated")
	noContent(c)
}
