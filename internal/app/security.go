package app

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"cadetquiz/internal/app/apiresp"
	"cadetquiz/internal/visitor"

	"github.com/google/uuid"
)

const csrfCookieName = "cadetquiz_csrf"
const csrfHeaderName = "X-CSRF-Token"

// Buckets are pruned once the map grows past this many keys.
const rateLimiterPruneAt = 10000

type rateBucket struct {
	Count      int
	WindowEnds time.Time
}

type IPRateLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	store  map[string]rateBucket
	now    func() time.Time
}

func NewIPRateLimiter(max int, window time.Duration) *IPRateLimiter {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &IPRateLimiter{
		max:    max,
		window: window,
		store:  make(map[string]rateBucket),
		now:    time.Now,
	}
}

func (l *IPRateLimiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.store) >= rateLimiterPruneAt {
		l.pruneLocked(now)
	}

	b := l.store[key]
	if now.After(b.WindowEnds) {
		b = rateBucket{Count: 0, WindowEnds: now.Add(l.window)}
	}
	if b.Count >= l.max {
		l.store[key] = b
		return false
	}
	b.Count++
	l.store[key] = b
	return true
}

func (l *IPRateLimiter) pruneLocked(now time.Time) {
	for k, b := range l.store {
		if now.After(b.WindowEnds) {
			delete(l.store, k)
		}
	}
}

// RateLimitMiddleware limits per visitor when the visitor cookie is present,
// and per client address otherwise.
func RateLimitMiddleware(l *IPRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := visitor.FromContext(r.Context())
			if !ok {
				who = strings.TrimSpace(r.RemoteAddr)
			}
			key := who + "|" + r.Method + "|" + r.URL.Path
			if !l.Allow(key) {
				apiresp.WriteLegacy(w, r, http.StatusTooManyRequests, false, nil, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CSRFMiddleware implements the double-submit cookie check. Safe requests get a
// token cookie when they lack one; unsafe requests must echo it in the header.
func CSRFMiddleware(enforced, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforced {
				next.ServeHTTP(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if c, err := r.Cookie(csrfCookieName); err != nil || strings.TrimSpace(c.Value) == "" {
					http.SetCookie(w, &http.Cookie{
						Name:     csrfCookieName,
						Value:    uuid.NewString(),
						Path:     "/",
						Secure:   secure,
						SameSite: http.SameSiteLaxMode,
					})
				}
				next.ServeHTTP(w, r)
				return
			}

			c, err := r.Cookie(csrfCookieName)
			if err != nil || strings.TrimSpace(c.Value) == "" {
				apiresp.WriteLegacy(w, r, http.StatusForbidden, false, nil, "csrf token missing")
				return
			}
			h := strings.TrimSpace(r.Header.Get(csrfHeaderName))
			if h == "" || h != c.Value {
				apiresp.WriteLegacy(w, r, http.StatusForbidden, false, nil, "csrf token invalid")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
