package glpi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"
)

// ----- Fake GLPI server -----

type fakeGLPI struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	token     string
	issued    int
	initCalls int
	killCalls int
	killToken string
	calls     map[string]int

	// initFailures makes the next N initSession calls answer 500.
	initFailures int
	// initNoToken makes initSession answer 200 without a token.
	initNoToken bool
	// handle serves every authenticated endpoint.
	handle http.HandlerFunc
}

func newFakeGLPI(t *testing.T) *fakeGLPI {
	t.Helper()
	f := &fakeGLPI{t: t, calls: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGLPI) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls[r.URL.Path]++
	f.mu.Unlock()

	if r.Header.Get("App-Token") != "app" {
		writeJSON(w, http.StatusBadRequest, []string{"ERROR_WRONG_APP_TOKEN_PARAMETER", "missing app token"})
		return
	}

	switch r.URL.Path {
	case "/initSession":
		f.mu.Lock()
		f.initCalls++
		fail := f.initFailures > 0
		if fail {
			f.initFailures--
		}
		noToken := f.initNoToken
		if !fail && !noToken {
			f.issued++
			f.token = "tok-" + strconv.Itoa(f.issued)
		}
		tok := f.token
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "user_token user" {
			writeJSON(w, http.StatusUnauthorized, []string{"ERROR_GLPI_LOGIN_USER_TOKEN", "bad user token"})
			return
		}
		switch {
		case fail:
			writeJSON(w, http.StatusInternalServerError, []string{"ERROR", "boom"})
		case noToken:
			writeJSON(w, http.StatusOK, map[string]string{})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"session_token": tok})
		}
		return

	case "/killSession":
		f.mu.Lock()
		f.killCalls++
		f.killToken = r.Header.Get("Session-Token")
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, nil)
		return
	}

	f.mu.Lock()
	valid := f.token != "" && r.Header.Get("Session-Token") == f.token
	handle := f.handle
	f.mu.Unlock()
	if !valid {
		writeJSON(w, http.StatusUnauthorized, []string{"ERROR_SESSION_TOKEN_INVALID", "session_token seems invalid"})
		return
	}
	if handle == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	handle(w, r)
}

func (f *fakeGLPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeGLPI) lastKillToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.killToken
}

func (f *fakeGLPI) setHandler(h http.HandlerFunc) {
	f.mu.Lock()
	f.handle = h
	f.mu.Unlock()
}

// revoke forgets the issued token so the next authenticated call gets 401.
func (f *fakeGLPI) revoke() {
	f.mu.Lock()
	f.token = "revoked"
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		AppToken:       "app",
		UserToken:      "user",
		AuthTimeout:    2 * time.Second,
		RequestTimeout: 2 * time.Second,
		MaxRetries:     3,
		Backoff:        Backoff{Initial: time.Millisecond, Multiplier: 2, Max: 5 * time.Millisecond},
	}
}

func newTestClient(t *testing.T, f *fakeGLPI) *Client {
	t.Helper()
	c, err := New(testConfig(f.srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}
