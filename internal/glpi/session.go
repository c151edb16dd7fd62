// Package glpi – SessionManager
//
// SessionManager owns the single GLPI session of the process. It opens the
// session with the application and user tokens, keeps it while
// now-createdAt < timeout, and re-opens it on demand with bounded
// exponential backoff. Concurrent callers share one authentication attempt.

package glpi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// State is the session lifecycle state.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Expired
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Expired:
		return "expired"
	}
	return "unauthenticated"
}

// Backoff describes the retry delay schedule: Initial, Initial*Multiplier,
// Initial*Multiplier^2, ... capped at Max.
type Backoff struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

func (b Backoff) policy() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     b.Initial,
		RandomizationFactor: 0,
		Multiplier:          b.Multiplier,
		MaxInterval:         b.Max,
	}
}

// Config is shared by SessionManager and Executor.
type Config struct {
	BaseURL   string
	AppToken  string
	UserToken string

	HTTPClient     *http.Client
	AuthTimeout    time.Duration // per initSession call
	RequestTimeout time.Duration // per authenticated call
	SessionTimeout time.Duration
	SlowRequest    time.Duration
	MaxRetries     int
	Backoff        Backoff

	// Outbound throttle; RateRPS <= 0 disables it.
	RateRPS   float64
	RateBurst int

	Now func() time.Time
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.AuthTimeout <= 0 {
		c.AuthTimeout = 10 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = time.Hour
	}
	if c.SlowRequest <= 0 {
		c.SlowRequest = 5 * time.Second
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 3
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff.Initial = time.Second
	}
	if c.Backoff.Multiplier < 1 {
		c.Backoff.Multiplier = 2
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = 30 * time.Second
	}
	if c.RateBurst < 1 {
		c.RateBurst = 1
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

func (c Config) validate() error {
	if c.BaseURL == "" {
		return configError("base URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return configError("invalid base URL %q", c.BaseURL)
	}
	if strings.TrimSpace(c.AppToken) == "" {
		return configError("application token is required")
	}
	if strings.TrimSpace(c.UserToken) == "" {
		return configError("user token is required")
	}
	return nil
}

// SessionManager acquires, validates and renews the GLPI session.
type SessionManager struct {
	cfg Config

	mu        sync.RWMutex
	token     string
	createdAt time.Time
	state     State
	lastAuth  time.Time

	// authMu serializes initSession so concurrent callers wait for one attempt.
	authMu sync.Mutex
}

// NewSessionManager validates cfg. It fails only with KindConfiguration.
func NewSessionManager(cfg Config) (*SessionManager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &SessionManager{cfg: cfg}, nil
}

// valid reports whether the held session satisfies the validity invariant.
// Callers hold m.mu.
func (m *SessionManager) valid(now time.Time) bool {
	return m.token != "" && now.Sub(m.createdAt) < m.cfg.SessionTimeout
}

// State returns the current lifecycle state. An authenticated session past
// its timeout reports Expired.
func (m *SessionManager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == Authenticated && !m.valid(m.cfg.Now()) {
		return Expired
	}
	return m.state
}

// IsValid reports whether a usable session is held right now.
func (m *SessionManager) IsValid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.valid(m.cfg.Now())
}

// LastAuthAt is the time of the last successful initSession (zero if none).
func (m *SessionManager) LastAuthAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastAuth
}

// EnsureAuthenticated returns true when a valid session is held after the
// call. It never returns an error; failures are logged.
func (m *SessionManager) EnsureAuthenticated(ctx context.Context) bool {
	_, err := m.sessionToken(ctx, m.cfg.MaxRetries)
	return err == nil
}

// Invalidate drops the session so the next call re-authenticates.
func (m *SessionManager) Invalidate() { m.invalidate("") }

// invalidate drops the session only while it still holds token, so a late
// rejection of an old token does not discard a renewed session. An empty
// token drops unconditionally.
func (m *SessionManager) invalidate(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != "" && m.token != token {
		return
	}
	if m.token != "" {
		reauthTotal.Inc()
	}
	m.token = ""
	m.createdAt = time.Time{}
	m.state = Unauthenticated
}

// Logout kills the remote session, if any, and clears it locally. The local
// session is cleared even when the remote call fails.
func (m *SessionManager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.token = ""
	m.createdAt = time.Time{}
	m.state = Unauthenticated
	m.mu.Unlock()

	if token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.AuthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/killSession", nil)
	if err != nil {
		return &Error{Kind: KindConfiguration, Op: "killSession", Err: err}
	}
	m.authHeaders(req, token)

	resp, err := m.cfg.HTTPClient.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, Op: "killSession", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindRemote, Op: "killSession", Status: resp.StatusCode}
	}
	log.Info().Msg("glpi session closed")
	return nil
}

// sessionToken returns a valid token, authenticating when needed with at most
// tries initSession calls. With a single try there is no backoff; the caller
// owns the retry schedule.
func (m *SessionManager) sessionToken(ctx context.Context, tries int) (string, error) {
	if tok, ok := m.current(); ok {
		return tok, nil
	}

	m.authMu.Lock()
	defer m.authMu.Unlock()

	// Another caller may have authenticated while we waited.
	if tok, ok := m.current(); ok {
		return tok, nil
	}

	m.mu.Lock()
	prev := m.state
	m.state = Authenticating
	m.mu.Unlock()

	attempt := 0
	open := func() (string, error) {
		attempt++
		tok, err := m.openSession(ctx)
		if err != nil {
			authAttempts.WithLabelValues("failure").Inc()
			if ctx.Err() != nil {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		authAttempts.WithLabelValues("success").Inc()
		return tok, nil
	}

	var (
		token string
		err   error
	)
	if tries <= 1 {
		token, err = open()
	} else {
		token, err = backoff.Retry(ctx, open,
			backoff.WithBackOff(m.cfg.Backoff.policy()),
			backoff.WithMaxTries(uint(tries)),
			backoff.WithNotify(func(err error, wait time.Duration) {
				log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("glpi authentication failed")
			}),
		)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		if prev == Authenticated || prev == Expired {
			m.state = Expired
		} else {
			m.state = Unauthenticated
		}
		if tries <= 1 {
			log.Warn().Err(err).Msg("glpi authentication failed")
		} else {
			log.Error().Err(err).Int("attempts", attempt).Msg("glpi authentication gave up")
		}
		return "", err
	}

	renewed := !m.lastAuth.IsZero()
	now := m.cfg.Now()
	m.token = token
	m.createdAt = now
	m.lastAuth = now
	m.state = Authenticated
	log.Info().Bool("renewed", renewed).Msg("glpi session opened")
	return token, nil
}

func (m *SessionManager) current() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.valid(m.cfg.Now()) {
		return m.token, true
	}
	return "", false
}

// openSession performs one initSession call.
func (m *SessionManager) openSession(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.AuthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/initSession", nil)
	if err != nil {
		return "", backoff.Permanent(&Error{Kind: KindConfiguration, Op: "initSession", Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", m.cfg.AppToken)
	req.Header.Set("Authorization", "user_token "+m.cfg.UserToken)

	start := time.Now()
	resp, err := m.cfg.HTTPClient.Do(req)
	if err != nil {
		remoteRequests.WithLabelValues("initSession", statusLabel(0)).Inc()
		return "", &Error{Kind: KindTransient, Op: "initSession", Err: err}
	}
	defer resp.Body.Close()
	remoteRequests.WithLabelValues("initSession", statusLabel(resp.StatusCode)).Inc()
	remoteLatency.WithLabelValues("initSession").Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &Error{Kind: KindTransient, Op: "initSession", Status: resp.StatusCode, Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &Error{Kind: KindAuthorization, Op: "initSession", Status: resp.StatusCode, Err: remoteMessage(body)}
	case resp.StatusCode != http.StatusOK:
		return "", &Error{Kind: KindRemote, Op: "initSession", Status: resp.StatusCode, Err: remoteMessage(body)}
	}

	var payload struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &Error{Kind: KindDataFormat, Op: "initSession", Status: resp.StatusCode, Err: err}
	}
	if strings.TrimSpace(payload.SessionToken) == "" {
		return "", &Error{Kind: KindDataFormat, Op: "initSession", Status: resp.StatusCode, Err: errors.New("response has no session_token")}
	}
	return payload.SessionToken, nil
}

func (m *SessionManager) authHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("App-Token", m.cfg.AppToken)
	req.Header.Set("Session-Token", token)
}

// remoteMessage extracts GLPI's ["ERROR_CODE", "message"] error body.
func remoteMessage(body []byte) error {
	var parts []string
	if err := json.Unmarshal(body, &parts); err == nil && len(parts) > 0 {
		return errors.New(strings.Join(parts, ": "))
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return nil
	}
	return errors.New(s)
}
