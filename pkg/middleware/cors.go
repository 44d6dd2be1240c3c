package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API. "*" allows any.
	AllowedOrigins []string

	// AllowedMethods defaults to GET, POST, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders defaults to the headers the storefront widget sends.
	AllowedHeaders []string

	// ExposedHeaders lists response headers readable by browser scripts.
	ExposedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds; defaults to 3600.
	MaxAge int
}

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	defaultCORSHeaders = []string{"Accept", "Content-Type", CorrelationIDHeader, SessionIDHeader}
)

// DefaultCORSConfig allows any origin; use it for local development only.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: defaultCORSMethods,
		AllowedHeaders: defaultCORSHeaders,
		ExposedHeaders: []string{CorrelationIDHeader},
		MaxAge:         3600,
	}
}

// originPolicy decides the Access-Control-Allow-Origin value for a request.
type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			p.any = true
			continue
		}
		p.allowed[o] = struct{}{}
	}
	return p
}

// apply sets Allow-Origin when origin is permitted.
func (p originPolicy) apply(h http.Header, origin string) {
	if p.any {
		h.Set("Access-Control-Allow-Origin", "*")
		return
	}
	if origin == "" {
		return
	}
	h.Add("Vary", "Origin")
	if _, ok := p.allowed[origin]; ok {
		h.Set("Access-Control-Allow-Origin", origin)
	}
}

// CORS lets the storefront widget call the API from the configured origins.
// Preflight requests are answered with 204 and never reach the router; other
// origins get no Allow-Origin header and are blocked by the browser.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newOriginPolicy(cfg.AllowedOrigins)

	static := http.Header{}
	static.Set("Access-Control-Allow-Methods", strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "))
	static.Set("Access-Control-Allow-Headers", strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "))
	if len(cfg.ExposedHeaders) > 0 {
		static.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	maxAge := cfg.MaxAge
	if maxAge == 0 {
		maxAge = 3600
	}
	static.Set("Access-Control-Max-Age", strconv.Itoa(maxAge))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			policy.apply(h, r.Header.Get("Origin"))
			for k, v := range static {
				h[k] = append([]string(nil), v...)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
