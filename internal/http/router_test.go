package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/glpi-dashboard-backend/internal/config"
	"github.com/tbourn/glpi-dashboard-backend/internal/domain"
	"github.com/tbourn/glpi-dashboard-backend/internal/http/handlers"
	"github.com/tbourn/glpi-dashboard-backend/internal/services"
)

// --- fakes satisfying the handler service contracts ---

type stubDashboard struct{}

func (stubDashboard) GetDashboardMetrics(context.Context, *domain.DateRange) domain.DashboardMetrics {
	return domain.DashboardMetrics{Totals: domain.StatusCounts{New: 1}}
}

func (stubDashboard) GetDashboardMetricsWithFilters(_ context.Context, f services.DashboardFilter) (domain.DashboardMetrics, error) {
	return domain.DashboardMetrics{}, f.Validate()
}

type stubRanking struct{}

func (stubRanking) GetTechnicianRanking(context.Context, services.RankingQuery) ([]domain.RankingEntry, error) {
	return []domain.RankingEntry{{TechnicianID: 4, Name: "Ana", Total: 3, Rank: 1}}, nil
}

type stubStatus struct{ keys []string }

func (s *stubStatus) GetSystemStatus(context.Context) domain.SystemStatus {
	return domain.SystemStatus{Status: "offline"}
}

func (s *stubStatus) InvalidateCache(key string) { s.keys = append(s.keys, key) }

func newTestEngine(t *testing.T, cfg config.Config) (*gin.Engine, *stubStatus) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	st := &stubStatus{}
	RegisterRoutes(r, handlers.New(stubDashboard{}, stubRanking{}, st, nil), cfg)
	return r, st
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath: "/api",
		RateRPS:     100,
		RateBurst:   10,
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r, _ := newTestEngine(t, baseConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("glpi_dashboard_http_requests_total")) {
		t.Fatalf("GET /metrics bad: code=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("swagger must be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://dashboard.local"}}
	r, _ := newTestEngine(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.local" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected ACAO for foreign origin: %q", got)
	}
}

func TestRegisterRoutes_APISurface(t *testing.T) {
	r, st := newTestEngine(t, baseConfig())

	cases := []struct {
		method, target string
		want           int
	}{
		{http.MethodGet, "/api/dashboard/metrics", http.StatusOK},
		{http.MethodGet, "/api/dashboard/metrics?start_date=2025-01-01", http.StatusBadRequest},
		{http.MethodGet, "/api/dashboard/metrics/filtered?level=N3", http.StatusOK},
		{http.MethodGet, "/api/dashboard/history", http.StatusNotFound},
		{http.MethodGet, "/api/technicians/ranking?limit=1", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodPost, "/api/cache/invalidate?key=dashboard", http.StatusNoContent},
		{http.MethodGet, "/api/cache/invalidate", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.target, nil))
			if w.Code != tc.want {
				t.Fatalf("got %d want %d body=%s", w.Code, tc.want, w.Body.String())
			}
		})
	}
	if len(st.keys) != 1 || st.keys[0] != "dashboard" {
		t.Fatalf("invalidate not forwarded: %q", st.keys)
	}
}

func TestRegisterRoutes_GzipAndCacheHeaders(t *testing.T) {
	r, _ := newTestEngine(t, baseConfig())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/technicians/ranking", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers=%v", w.Header())
	}
	if got := w.Header().Get("Cache-Control"); got != "private, max-age=15" {
		t.Fatalf("Cache-Control = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/technicians/ranking", nil))
	var body handlers.RankingResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Count != 1 {
		t.Fatalf("plain response: %v %+v", err, body)
	}
}

func TestRegisterRoutes_SwaggerEnabled(t *testing.T) {
	cfg := baseConfig()
	cfg.SwaggerEnabled = true
	r, _ := newTestEngine(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /swagger/index.html = %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	groupWithPrefix(r, "/").GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	groupWithPrefix(r, "").GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/one": "one", "/two": "two", "/api/ping": "pong"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != want {
			t.Fatalf("GET %s got %d %q", path, rec.Code, rec.Body.String())
		}
	}
}

func TestPipeline_HSTSBehindProxy(t *testing.T) {
	cfg := baseConfig()
	cfg.Security = config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: time.Hour}
	r, _ := newTestEngine(t, cfg)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "max-age=3600; includeSubDomains" {
		t.Fatalf("HSTS = %q", got)
	}
}
