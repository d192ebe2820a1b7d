// Package visitor identifies an anonymous browsing session with a cookie.
// The cookie has no expiry, so it lives exactly as long as the browser session.
package visitor

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const visitorContextKey contextKey = "visitor_id"

const CookieName = "cadet_sid"

// Middleware ensures every request carries a visitor id, issuing a new cookie when the
// request has none or an unparseable one.
func Middleware(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := readCookie(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(ContextWithID(r.Context(), id)))
		})
	}
}

func FromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(visitorContextKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ContextWithID injects a visitor id into context.
// Useful for tests and internal handlers.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorContextKey, id)
}

func readCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	v := strings.TrimSpace(c.Value)
	if _, err := uuid.Parse(v); err != nil {
		return ""
	}
	return v
}
