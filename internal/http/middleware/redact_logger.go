// Package middleware – RedactingLogger
//
// RedactingLogger writes one structured access log per request and attaches a
// request-scoped zerolog.Logger for handlers. Values that could carry GLPI
// credentials never reach the logs: the App-Token, Session-Token,
// Authorization and Cookie headers are masked, and so is any query parameter
// whose name mentions a token, password or secret.
//
// Bodies are never logged. Level follows the outcome: error for 5xx or
// recorded Gin errors, warn for 4xx, info otherwise.
package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	redacted          = "[REDACTED]"
	maxQueryLogLength = 2048
)

// RedactOptions adds headers and query parameter names to the built-in
// redaction lists. Matching is case-insensitive.
type RedactOptions struct {
	MaskHeaders []string
	MaskParams  []string
}

var (
	defaultMaskedHeaders = []string{"authorization", "cookie", "set-cookie", "app-token", "session-token"}
	sensitiveParamHints  = []string{"token", "password", "secret"}
)

// RedactingLogger returns the access-log middleware.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := make(map[string]struct{}, len(defaultMaskedHeaders)+len(opts.MaskHeaders))
	for _, h := range append(append([]string{}, defaultMaskedHeaders...), opts.MaskHeaders...) {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}
	maskParams := make(map[string]struct{}, len(opts.MaskParams))
	for _, p := range opts.MaskParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			maskParams[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				headers[k] = redacted
				continue
			}
			headers[k] = strings.Join(vv, ", ")
		}

		lg := log.With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &lg)

		c.Next()

		status := c.Writer.Status()
		ev := lg.Info()
		switch {
		case len(c.Errors) > 0 || status >= 500:
			ev = lg.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = lg.Warn()
		}
		if IsPartial(c) {
			ev = ev.Bool("partial", true)
		}
		ev.
			Str("query", truncate(redactQuery(c.Request.URL.RawQuery, maskParams), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// redactQuery masks the values of sensitive parameters. Unparseable queries
// are dropped entirely.
func redactQuery(raw string, extra map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return redacted
	}
	for k, vv := range q {
		if !sensitiveParam(k, extra) {
			continue
		}
		for i := range vv {
			vv[i] = redacted
		}
	}
	return q.Encode()
}

func sensitiveParam(name string, extra map[string]struct{}) bool {
	n := strings.ToLower(name)
	if _, ok := extra[n]; ok {
		return true
	}
	for _, hint := range sensitiveParamHints {
		if strings.Contains(n, hint) {
			return true
		}
	}
	return false
}
