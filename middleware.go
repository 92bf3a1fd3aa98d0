package signon

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type contextKey string

const userIDContextKey contextKey = "signon.userId"

// Middleware resolves the calling user for downstream handlers. Resolution
// order: the signed session cookie first, then a bearer access token whose
// sid claim must still name a live session. Construct one with
// Service.NewMiddleware or fill the fields directly.
type Middleware struct {
	// CookieName is the signed session cookie to read.
	CookieName string

	// HeaderName carries bearer tokens. Defaults to "Authorization".
	HeaderName string

	Codec    *CookieCodec
	Sessions SessionStore

	// VerifyToken validates a bearer access token, returning the user id
	// and the session token the access token was minted against.
	VerifyToken func(tokenString string) (userID, sessionToken string, err error)

	// GetRedirURL, when set, makes EnsureUser redirect unauthenticated
	// requests there instead of answering 401.
	GetRedirURL func(r *http.Request) string

	// CallbackURLParam names the query parameter carrying the original URL
	// on redirects. Defaults to "callbackURL".
	CallbackURLParam string

	Logger *slog.Logger
}

func (m *Middleware) EnsureReasonableDefaults() {
	if m.HeaderName == "" {
		m.HeaderName = "Authorization"
	}
	if m.CallbackURLParam == "" {
		m.CallbackURLParam = "callbackURL"
	}
}

// UserID returns the user id a Middleware stored on the request context, or
// "" when the request is anonymous.
func UserID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDContextKey).(string); ok {
		return v
	}
	return ""
}

// ExtractUser resolves the caller best-effort and stashes the user id in the
// request context. Anonymous requests pass through untouched; use EnsureUser
// to also enforce authentication.
func (m *Middleware) ExtractUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, m.withUserID(r, m.resolveUserID(r)))
	})
}

// EnsureUser is ExtractUser plus enforcement: anonymous requests are
// redirected when GetRedirURL is configured, otherwise answered 401.
func (m *Middleware) EnsureUser(next http.Handler) http.Handler {
	m.EnsureReasonableDefaults()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := m.resolveUserID(r)
		if userID == "" {
			redirURL := ""
			if m.GetRedirURL != nil {
				redirURL = m.GetRedirURL(r)
			}
			if redirURL != "" {
				encoded := strings.Replace(url.QueryEscape(r.URL.Path), "+", "%20", -1)
				http.Redirect(w, r, fmt.Sprintf("%s?%s=%s", redirURL, m.CallbackURLParam, encoded), http.StatusFound)
			} else {
				writeAuthError(w, NewAuthError(ErrCodeNotAuthenticated, "Not authenticated", ""))
			}
			return
		}
		next.ServeHTTP(w, m.withUserID(r, userID))
	})
}

func (m *Middleware) resolveUserID(r *http.Request) string {
	// Signed session cookie first
	if m.Codec != nil && m.CookieName != "" {
		if token, err := m.Codec.GetSigned(r, m.CookieName); err == nil {
			if session, err := m.Sessions.GetSession(token); err == nil {
				return session.UserID
			}
		}
	}

	// Then bearer access tokens. The sid claim must still resolve to a
	// live session: revoking the session revokes every token minted on it.
	if m.VerifyToken == nil {
		return ""
	}
	for _, header := range r.Header.Values(m.HeaderName) {
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == "" {
			continue
		}
		userID, sessionToken, err := m.VerifyToken(tokenString)
		if err != nil || userID == "" {
			m.logger().Warn("rejected bearer token", "err", err)
			continue
		}
		if sessionToken != "" && m.Sessions != nil {
			if _, err := m.Sessions.GetSession(sessionToken); err != nil {
				m.logger().Warn("bearer token names a dead session", "userId", userID)
				continue
			}
		}
		return userID
	}
	return ""
}

func (m *Middleware) withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDContextKey, userID))
}

func (m *Middleware) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
