package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/ranking", func(c *gin.Context) { c.Status(http.StatusOK) })

	okBase := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/api/ranking", "200"))
	missBase := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "unmatched", "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ranking", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ranking", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin.php", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/api/ranking", "200")) - okBase; got != 2 {
		t.Fatalf("route counter delta = %v, want 2", got)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "unmatched", "404")) - missBase; got != 1 {
		t.Fatalf("unmatched counter delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight gauge = %v, want 0", got)
	}
}

func TestMetrics_PartialResponses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/metrics", func(c *gin.Context) {
		if c.Query("degraded") != "" {
			MarkPartial(c)
		}
		c.Status(http.StatusOK)
	})

	base := testutil.ToFloat64(partialResponses.WithLabelValues("/api/metrics"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/metrics?degraded=1", nil))

	if got := testutil.ToFloat64(partialResponses.WithLabelValues("/api/metrics")) - base; got != 1 {
		t.Fatalf("partial delta = %v, want 1", got)
	}
}
