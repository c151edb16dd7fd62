// Package middleware – SecurityHeaders
//
// Conservative response headers for a JSON API behind a reverse proxy. HSTS
// is opt-in and only sent on HTTPS requests. Dashboard payloads are served
// with a short private max-age matching the server-side cache, so browsers
// and proxies do not keep stale ticket counts longer than the backend does.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge time.Duration // defaults to 180 days
	// ClientMaxAge sets Cache-Control: private, max-age=N on successful GET
	// responses; zero sends no-store instead.
	ClientMaxAge time.Duration
}

// SecurityHeaders returns the hardening middleware.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	hstsAge := int(opt.HSTSMaxAge.Seconds())
	if hstsAge <= 0 {
		hstsAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(hstsAge) + "; includeSubDomains"
	cacheControl := "no-store"
	if s := int(opt.ClientMaxAge.Seconds()); s > 0 {
		cacheControl = "private, max-age=" + strconv.Itoa(s)
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if c.Request.Method == http.MethodGet {
			h.Set("Cache-Control", cacheControl)
		} else {
			h.Set("Cache-Control", "no-store")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS directly or through a
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
