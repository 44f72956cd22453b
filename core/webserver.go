package core

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var rateLimiter sync.Map

// rateLimit rejects bursts from a single address. Static and share routes are
// exempt; the limit only protects form endpoints.
func rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if idx := strings.LastIndex(ip, ":"); idx > 0 {
			ip = ip[:idx]
		}
		if r.Method == http.MethodPost {
			if val, loaded := rateLimiter.Load(ip); loaded {
				last := val.(time.Time)
				if time.Since(last) < 200*time.Millisecond {
					http.Error(w, "Too many requests", http.StatusTooManyRequests)
					return
				}
			}
			rateLimiter.Store(ip, time.Now())
		}
		next(w, r)
	}
}

func (a *App) SecureHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if strings.ToLower(a.Cfg.Env) == "production" {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next(w, r)
	}
}

var allowedStatic = map[string]bool{
	"css/styles.css": true,
	"js/map.js":      true,
}

// ServeStatic serves whitelisted assets only; no directory listings, no
// traversal.
func ServeStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/static/")

	if strings.Contains(path, "..") || strings.HasPrefix(path, "/") {
		Errorf("path traversal attempt: %s", path)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if !allowedStatic[path] {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	realPath := filepath.Join("static", filepath.FromSlash(path))
	if info, err := os.Stat(realPath); err != nil || info.IsDir() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, realPath)
}

func applyMiddleware(fn http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for _, mw := range middlewares {
		fn = mw(fn)
	}
	return fn
}

// Middleware wraps a handler with the default chain.
func (a *App) Middleware(fn http.HandlerFunc) http.HandlerFunc {
	return applyMiddleware(fn, rateLimit, a.SecureHeaders)
}

const flashCookie = "wa_flash"

// setFlash stores a one-shot message shown on the next rendered page.
func setFlash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// takeFlash returns the pending message, if any, and clears it.
func takeFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	msg, err := url.QueryUnescape(c.Value)
	if err != nil {
		return ""
	}
	return msg
}
