package core

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hsuden/wellatlas/cnf"
)

func TestRateLimitThrottlesPosts(t *testing.T) {
	handler := rateLimit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	post := httptest.NewRequest(http.MethodPost, "/x", nil)
	post.RemoteAddr = "10.1.2.3:5000"

	rec := httptest.NewRecorder()
	handler(rec, post)
	if rec.Code != http.StatusOK {
		t.Fatalf("first post: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler(rec, post)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("burst post should be throttled, got %d", rec.Code)
	}

	// GETs are never limited.
	get := httptest.NewRequest(http.MethodGet, "/x", nil)
	get.RemoteAddr = "10.1.2.3:5001"
	rec = httptest.NewRecorder()
	handler(rec, get)
	if rec.Code != http.StatusOK {
		t.Fatalf("get should pass, got %d", rec.Code)
	}

	time.Sleep(210 * time.Millisecond)
	rec = httptest.NewRecorder()
	handler(rec, post)
	if rec.Code != http.StatusOK {
		t.Fatalf("post after the window should pass, got %d", rec.Code)
	}
}

func TestSecureHeaders(t *testing.T) {
	app := &App{Cfg: cnf.AppConfig{Env: "development"}}
	handler := app.SecureHeaders(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("nosniff header missing")
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("frame options header missing")
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS should not be set outside production")
	}

	// HSTS follows the loaded config, not the process environment.
	app = &App{Cfg: cnf.AppConfig{Env: "production"}}
	handler = app.SecureHeaders(func(w http.ResponseWriter, r *http.Request) {})
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing in production config")
	}
}

func TestServeStaticRejectsUnknownPaths(t *testing.T) {
	for _, path := range []string{
		"/static/../cnf/config.cfg",
		"/static/secret.txt",
		"/static/js/../../main.go",
	} {
		rec := httptest.NewRecorder()
		ServeStatic(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusForbidden && rec.Code != http.StatusNotFound {
			t.Errorf("%s served with %d", path, rec.Code)
		}
	}
}

func TestFlashRoundTrip(t *testing.T) {
	rec := httptest.NewRecorder()
	setFlash(rec, "Site updated")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec2 := httptest.NewRecorder()
	if got := takeFlash(rec2, req); got != "Site updated" {
		t.Errorf("takeFlash = %q", got)
	}

	// The clearing cookie is set.
	cleared := false
	for _, c := range rec2.Result().Cookies() {
		if c.Name == flashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("flash cookie should be cleared after reading")
	}

	// No cookie means no message.
	rec3 := httptest.NewRecorder()
	if got := takeFlash(rec3, httptest.NewRequest(http.MethodGet, "/", nil)); got != "" {
		t.Errorf("expected empty flash, got %q", got)
	}
}
