package glpi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNewSessionManager_ConfigurationErrors(t *testing.T) {
	base := testConfig("http://glpi.local/apirest.php")
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.BaseURL = "glpi.local/apirest.php" }},
		{"unsupported scheme", func(c *Config) { c.BaseURL = "ftp://glpi.local" }},
		{"missing app token", func(c *Config) { c.AppToken = " " }},
		{"missing user token", func(c *Config) { c.UserToken = "" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			_, err := NewSessionManager(cfg)
			if err == nil {
				t.Fatal("expected configuration error")
			}
			if !errors.Is(err, ErrConfiguration) || !IsKind(err, KindConfiguration) {
				t.Fatalf("want configuration error, got %v", err)
			}
		})
	}
}

func TestNewSessionManager_TrimsTrailingSlash(t *testing.T) {
	m, err := NewSessionManager(testConfig("http://glpi.local/apirest.php/"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.cfg.BaseURL != "http://glpi.local/apirest.php" {
		t.Fatalf("BaseURL = %q", m.cfg.BaseURL)
	}
}

func TestEnsureAuthenticated_OpensSessionOnce(t *testing.T) {
	f := newFakeGLPI(t)
	m, _ := NewSessionManager(testConfig(f.srv.URL))

	if m.State() != Unauthenticated {
		t.Fatalf("initial state = %v", m.State())
	}
	for i := 0; i < 3; i++ {
		if !m.EnsureAuthenticated(context.Background()) {
			t.Fatal("EnsureAuthenticated returned false")
		}
	}
	if f.count("/initSession") != 1 {
		t.Fatalf("initSession calls = %d, want 1", f.count("/initSession"))
	}
	if m.State() != Authenticated {
		t.Fatalf("state = %v, want authenticated", m.State())
	}
	if m.LastAuthAt().IsZero() {
		t.Fatal("LastAuthAt not recorded")
	}
}

func TestSession_ValidityBoundary(t *testing.T) {
	f := newFakeGLPI(t)
	now := time.Unix(10_000, 0)
	var mu sync.Mutex
	cfg := testConfig(f.srv.URL)
	cfg.SessionTimeout = time.Hour
	cfg.Now = func() time.Time { mu.Lock(); defer mu.Unlock(); return now }
	setNow := func(ts time.Time) { mu.Lock(); now = ts; mu.Unlock() }

	m, _ := NewSessionManager(cfg)
	if !m.EnsureAuthenticated(context.Background()) {
		t.Fatal("auth failed")
	}
	created := time.Unix(10_000, 0)

	setNow(created.Add(time.Hour - time.Nanosecond))
	if !m.IsValid() {
		t.Fatal("session should be valid just before timeout")
	}

	setNow(created.Add(time.Hour))
	if m.IsValid() {
		t.Fatal("session must be invalid at created_at+timeout")
	}
	if m.State() != Expired {
		t.Fatalf("state = %v, want expired", m.State())
	}

	if !m.EnsureAuthenticated(context.Background()) {
		t.Fatal("re-authentication failed")
	}
	if f.count("/initSession") != 2 {
		t.Fatalf("initSession calls = %d, want 2", f.count("/initSession"))
	}
}

func TestEnsureAuthenticated_RetriesThenSucceeds(t *testing.T) {
	f := newFakeGLPI(t)
	f.initFailures = 2
	m, _ := NewSessionManager(testConfig(f.srv.URL))

	if !m.EnsureAuthenticated(context.Background()) {
		t.Fatal("expected success on third attempt")
	}
	if f.count("/initSession") != 3 {
		t.Fatalf("initSession calls = %d, want 3", f.count("/initSession"))
	}
}

func TestEnsureAuthenticated_GivesUpAfterMaxRetries(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeGLPI)
	}{
		{"server errors", func(f *fakeGLPI) { f.initFailures = 100 }},
		{"missing token", func(f *fakeGLPI) { f.initNoToken = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeGLPI(t)
			tc.setup(f)
			m, _ := NewSessionManager(testConfig(f.srv.URL))

			if m.EnsureAuthenticated(context.Background()) {
				t.Fatal("expected failure")
			}
			if f.count("/initSession") != 3 {
				t.Fatalf("initSession calls = %d, want 3", f.count("/initSession"))
			}
			if m.State() != Unauthenticated {
				t.Fatalf("state = %v", m.State())
			}
		})
	}
}

func TestEnsureAuthenticated_UnreachableServer(t *testing.T) {
	f := newFakeGLPI(t)
	url := f.srv.URL
	f.srv.Close()

	m, _ := NewSessionManager(testConfig(url))
	if m.EnsureAuthenticated(context.Background()) {
		t.Fatal("expected failure against a closed server")
	}
}

func TestEnsureAuthenticated_ConcurrentCallersShareOneAttempt(t *testing.T) {
	f := newFakeGLPI(t)
	m, _ := NewSessionManager(testConfig(f.srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.EnsureAuthenticated(context.Background())
		}()
	}
	wg.Wait()
	if f.count("/initSession") != 1 {
		t.Fatalf("initSession calls = %d, want 1", f.count("/initSession"))
	}
}

func TestInvalidate_ForcesReauthentication(t *testing.T) {
	f := newFakeGLPI(t)
	m, _ := NewSessionManager(testConfig(f.srv.URL))
	m.EnsureAuthenticated(context.Background())

	m.Invalidate()
	if m.IsValid() || m.State() != Unauthenticated {
		t.Fatal("session should be cleared")
	}
	m.EnsureAuthenticated(context.Background())
	if f.count("/initSession") != 2 {
		t.Fatalf("initSession calls = %d, want 2", f.count("/initSession"))
	}
}

func TestInvalidate_IgnoresStaleToken(t *testing.T) {
	f := newFakeGLPI(t)
	m, _ := NewSessionManager(testConfig(f.srv.URL))
	ctx := context.Background()

	old, err := m.sessionToken(ctx, 1)
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	m.Invalidate()
	renewed, err := m.sessionToken(ctx, 1)
	if err != nil || renewed == old {
		t.Fatalf("renewed = %q (old %q), err = %v", renewed, old, err)
	}

	// A late rejection of the old token must keep the renewed session.
	m.invalidate(old)
	if tok, ok := m.current(); !ok || tok != renewed {
		t.Fatalf("session after stale invalidate = %q, %v; want %q", tok, ok, renewed)
	}

	m.invalidate(renewed)
	if m.IsValid() {
		t.Fatal("rejecting the held token must drop the session")
	}
	if got := f.count("/initSession"); got != 2 {
		t.Fatalf("initSession calls = %d, want 2", got)
	}
}

func TestLogout(t *testing.T) {
	f := newFakeGLPI(t)
	m, _ := NewSessionManager(testConfig(f.srv.URL))

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("logout without session: %v", err)
	}
	if f.count("/killSession") != 0 {
		t.Fatal("killSession must not be called without a session")
	}

	m.EnsureAuthenticated(context.Background())
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if f.count("/killSession") != 1 || f.lastKillToken() != "tok-1" {
		t.Fatalf("killSession calls=%d token=%q", f.count("/killSession"), f.lastKillToken())
	}
	if m.IsValid() {
		t.Fatal("session should be cleared after logout")
	}
}
