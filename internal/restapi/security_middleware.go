package restapi

import (
	"net/http"
	"strings"
)

const (
	jsonContentPolicy = "default-src 'none'; frame-ancestors 'none'"
	// The debug page carries its own stylesheet.
	debugContentPolicy = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'"
)

// WithSecurityHeaders wraps the given handler with security headers middleware
func (api *RestAPI) WithSecurityHeaders(handler http.Handler) http.Handler {
	return securityHeaders(handler)
}

// securityHeaders sets response hardening headers. Cross-origin access is
// granted to the read-only /api/where endpoints only, so a browser page can
// show departures but never trigger /api/admin/reload.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		if strings.HasPrefix(r.URL.Path, "/debug/") {
			h.Set("Content-Security-Policy", debugContentPolicy)
		} else {
			h.Set("Content-Security-Policy", jsonContentPolicy)
		}
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		public := strings.HasPrefix(r.URL.Path, "/api/where/")
		if public && r.Header.Get("Origin") != "" {
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Accept-Encoding")
			h.Set("Access-Control-Max-Age", "86400")
		}

		if r.Method == http.MethodOptions && public {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
