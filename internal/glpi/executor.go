// Package glpi – Executor
//
// Executor issues authenticated requests through the SessionManager. Each
// call makes at most MaxRetries network attempts: transport failures and
// failed authentication are retried with backoff, a 401/403 drops the
// session and retries, and every other response is handed back unchanged.

package glpi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 32 << 20

// Response is a fully read GLPI response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Success reports 200 OK or 206 Partial Content (paged search results).
func (r *Response) Success() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusPartialContent
}

// Decode unmarshals the body into v.
func (r *Response) Decode(op string, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Kind: KindDataFormat, Op: op, Status: r.StatusCode, Err: err}
	}
	return nil
}

// Executor sends authenticated requests with retry and re-authentication.
type Executor struct {
	cfg     Config
	session *SessionManager
	limiter *rate.Limiter
}

// NewExecutor builds an Executor on top of an existing SessionManager and
// shares its configuration.
func NewExecutor(s *SessionManager) *Executor {
	e := &Executor{cfg: s.cfg, session: s}
	if s.cfg.RateRPS > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateRPS), s.cfg.RateBurst)
	}
	return e
}

// Session exposes the underlying session manager.
func (e *Executor) Session() *SessionManager { return e.session }

// Execute performs method on path (relative to the API base URL) with the
// given query parameters. A non-nil *Response is returned for any HTTP
// status other than 401/403; the caller decides what the status means.
func (e *Executor) Execute(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	path = strings.TrimPrefix(path, "/")
	endpoint := endpointLabel(path)

	ctx, span := otel.Tracer("glpi/Executor").Start(ctx, "Execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("glpi.path", path),
		),
	)
	defer span.End()

	attempt := 0
	resp, err := backoff.Retry(ctx, func() (*Response, error) {
		attempt++
		resp, err := e.attempt(ctx, method, path, params)
		if err != nil && ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return resp, err
	},
		backoff.WithBackOff(e.cfg.Backoff.policy()),
		backoff.WithMaxTries(uint(e.cfg.MaxRetries)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).
				Dur("retry_in", wait).Msg("glpi request failed; retrying")
		}),
	)

	span.SetAttributes(attribute.Int("glpi.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "glpi request failed")
		log.Error().Err(err).Str("endpoint", endpoint).Int("attempts", attempt).Msg("glpi request gave up")
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

// attempt is one authenticated round trip. It opens at most one session so
// every network call of Execute stays under the same retry bound.
func (e *Executor) attempt(ctx context.Context, method, path string, params url.Values) (*Response, error) {
	token, err := e.session.sessionToken(ctx, 1)
	if err != nil {
		return nil, err
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &Error{Kind: KindTransient, Op: path, Err: err}
		}
	}

	resp, err := e.do(ctx, method, path, params, token)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		e.session.invalidate(token)
		log.Warn().Str("endpoint", endpointLabel(path)).Int("status", resp.StatusCode).
			Msg("glpi rejected session; re-authenticating")
		return nil, &Error{Kind: KindAuthorization, Op: path, Status: resp.StatusCode, Err: remoteMessage(resp.Body)}
	case resp.StatusCode >= 500:
		log.Error().Str("endpoint", endpointLabel(path)).Int("status", resp.StatusCode).
			Err(remoteMessage(resp.Body)).Msg("glpi server error")
	case resp.StatusCode >= 400:
		log.Warn().Str("endpoint", endpointLabel(path)).Int("status", resp.StatusCode).
			Err(remoteMessage(resp.Body)).Msg("glpi client error")
	}
	return resp, nil
}

func (e *Executor) do(ctx context.Context, method, path string, params url.Values, token string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	target := e.cfg.BaseURL + "/" + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, backoff.Permanent(&Error{Kind: KindConfiguration, Op: path, Err: err})
	}
	e.session.authHeaders(req, token)

	endpoint := endpointLabel(path)
	start := time.Now()
	httpResp, err := e.cfg.HTTPClient.Do(req)
	if err != nil {
		remoteRequests.WithLabelValues(endpoint, statusLabel(0)).Inc()
		return nil, &Error{Kind: KindTransient, Op: path, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	elapsed := time.Since(start)
	remoteRequests.WithLabelValues(endpoint, statusLabel(httpResp.StatusCode)).Inc()
	remoteLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if err != nil {
		return nil, &Error{Kind: KindTransient, Op: path, Status: httpResp.StatusCode, Err: err}
	}

	if elapsed > e.cfg.SlowRequest {
		log.Warn().Str("endpoint", endpoint).Dur("elapsed", elapsed).Msg("slow glpi request")
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		Duration:   elapsed,
	}, nil
}
