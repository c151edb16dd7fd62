package glpi

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	remoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glpi_remote_requests_total",
			Help: "Requests sent to the GLPI API by endpoint and status (\"error\" for transport failures).",
		},
		[]string{"endpoint", "status"},
	)

	remoteLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "glpi_remote_request_duration_seconds",
			Help:    "GLPI API round-trip latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glpi_auth_attempts_total",
			Help: "initSession attempts by result.",
		},
		[]string{"result"},
	)

	reauthTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "glpi_session_invalidations_total",
			Help: "Sessions dropped after a 401/403 response.",
		},
	)
)

func init() {
	prometheus.MustRegister(remoteRequests, remoteLatency, authAttempts, reauthTotal)
}

// endpointLabel keeps label cardinality bounded: "search/Ticket" -> "search",
// "User/42/Group_User" -> "User".
func endpointLabel(path string) string {
	p := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(p, "/?"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "root"
	}
	return p
}

func statusLabel(code int) string {
	if code == 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
