// Ranking HTTP handler.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/services"
	"github.com/tbourn/glpi-dashboard-backend/internal/utils"
)

// RankingResponse wraps the technician leaderboard.
type RankingResponse struct {
	Technicians []domain.RankingEntry `json:"technicians"`
	Count       int                   `json:"count"`
	// Limit echoes the requested limit; 0 means the full ranking.
	Limit int                 `json:"limit"`
	Level domain.ServiceLevel `json:"level,omitempty"`
}

// GetTechnicianRanking godoc
// @ID          getTechnicianRanking
// @Summary     Technician ranking
// @Description Technicians ordered by ticket volume (ties by id). Ranks are assigned before the limit, so a limited list keeps global rank numbers.
// @Tags        Technicians
// @Produce     json
//
// @Param       limit       query  int     false  "Maximum entries (0 = all)"  minimum(0)
// @Param       start_date  query  string  false  "Range start (YYYY-MM-DD)"   example(2025-01-01)
// @Param       end_date    query  string  false  "Range end (YYYY-MM-DD)"     example(2025-01-31)
// @Param       level       query  string  false  "Only this service level"   Enums(N1, N2, N3, N4)
//
// @Success     200  {object}  handlers.RankingResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid parameters"
// @Router      /technicians/ranking [get]
func (h *Handlers) GetTechnicianRanking(c *gin.Context) {
	limit, err := utils.ParseOptionalInt(c.Query("limit"), 0)
	if err != nil {
		failValidation(c, services.ErrInvalidLimit)
		return
	}
	rng, err := services.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		failValidation(c, err)
		return
	}
	level, err := services.ParseLevelFilter(c.Query("level"))
	if err != nil {
		failValidation(c, err)
		return
	}

	entries, err := h.rankSvc.GetTechnicianRanking(c.Request.Context(), services.RankingQuery{
		Limit: limit,
		Range: rng,
		Level: level,
	})
	if err != nil {
		failValidation(c, err)
		return
	}
	if entries == nil {
		entries = []domain.RankingEntry{}
	}
	ok(c, http.StatusOK, RankingResponse{Technicians: entries, Count: len(entries), Limit: limit, Level: level})
}
