// Package handlers exposes the dashboard, ranking, history and status
// endpoints over gin.
//
// Every handler answers through the helpers below so clients see one shape:
// a 2xx body that is the payload itself, or an ErrorResponse carrying the
// request id and a code from errors.go. Remote GLPI trouble is not an error
// at this layer; a degraded dashboard is still a 200 with "partial": true.
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "5f0c1d2e-8c1a-4a57-9d35-2a6f7e1b3c44",
//	  "code": "invalid_date_range",
//	  "message": "invalid date range"
//	}
//
//	HTTP/1.1 404 Not Found
//	{ "request_id": "...", "code": "history_disabled", "message": "snapshot history is disabled" }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/http/middleware"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	// Same value as the X-Request-ID response header.
	RequestID string `json:"request_id,omitempty" example:"5f0c1d2e-8c1a-4a57-9d35-2a6f7e1b3c44"`
	// One of the ErrCode* constants.
	Code    string `json:"code" example:"invalid_level"`
	Message string `json:"message" example:"level must be one of N1, N2, N3, N4"`
}

// fail aborts with an ErrorResponse. 5xx answers are logged on the request
// logger; rejected input is only visible in the access log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Msg(msg)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer unmatched routes with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// okMetrics writes a dashboard payload, flagging partial ones for the
// access log and the partial-response counter.
func okMetrics(c *gin.Context, m domain.DashboardMetrics) {
	if m.Partial {
		middleware.MarkPartial(c)
	}
	c.JSON(http.StatusOK, m)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
