package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy describes which browser origins may call the API.
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsRules struct {
	anyOrigin   bool
	origins     map[string]struct{}
	credentials bool
	fixed       http.Header
}

func newCORSRules(p CORSPolicy) corsRules {
	rules := corsRules{
		origins:     map[string]struct{}{},
		credentials: p.AllowCredentials,
		fixed:       http.Header{},
	}
	for _, o := range p.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch o {
		case "":
		case "*":
			rules.anyOrigin = true
		default:
			rules.origins[o] = struct{}{}
		}
	}

	methods := trimAll(p.AllowedMethods)
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	rules.fixed.Set("Access-Control-Allow-Methods", strings.Join(methods, ", "))
	if headers := trimAll(p.AllowedHeaders); len(headers) > 0 {
		rules.fixed.Set("Access-Control-Allow-Headers", strings.Join(headers, ", "))
	}
	if secs := int(p.MaxAge.Seconds()); secs > 0 {
		rules.fixed.Set("Access-Control-Max-Age", strconv.Itoa(secs))
	}
	if p.AllowCredentials {
		rules.fixed.Set("Access-Control-Allow-Credentials", "true")
	}
	return rules
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin. A
// wildcard policy echoes the origin when credentials are allowed, since
// browsers reject "*" with credentials.
func (c corsRules) allowOrigin(origin string) (string, bool) {
	if _, ok := c.origins[strings.ToLower(origin)]; ok {
		return origin, true
	}
	if !c.anyOrigin {
		return "", false
	}
	if c.credentials {
		return origin, true
	}
	return "*", true
}

// WithCORS emits CORS headers for allowed origins and answers preflights.
// With no allowed origins it passes requests through untouched.
func WithCORS(p CORSPolicy) Middleware {
	rules := newCORSRules(p)
	if !rules.anyOrigin && len(rules.origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed, ok := rules.allowOrigin(origin)
			if origin == "" || !ok {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowed)
			for k, v := range rules.fixed {
				h[k] = v
			}
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
