package signon

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Session is one authenticated principal's continued access. The token is
// the only secret: it is what the signed session cookie carries and what
// stores key records by.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	IPAddress string    `json:"ipAddress,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// createSession issues and persists a session for userID, tagged with the
// request's client IP and user agent. Two near-simultaneous sign-ins for the
// same user each get their own session; no deduplication happens here.
func (s *Service) createSession(userID string, r *http.Request) (*Session, error) {
	token, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	session := &Session{
		Token:     token,
		UserID:    userID,
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.SessionTTL),
	}
	if err := s.Sessions.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return session, nil
}

// bindSessionCookie writes the signed session cookie. When dontRemember is
// true the expiry attributes are dropped so the cookie dies with the user
// agent session; otherwise the configured session lifetime applies.
func (s *Service) bindSessionCookie(w http.ResponseWriter, session *Session, dontRemember bool) {
	opts := s.cookieOptions(s.SessionTTL)
	if dontRemember {
		opts.MaxAge = 0
	}
	s.codec().SetSigned(w, s.sessionCookieName(), session.Token, opts)
}

func (s *Service) clearSessionCookie(w http.ResponseWriter) {
	s.codec().Clear(w, s.sessionCookieName(), s.cookieOptions(0))
}

// SessionFromRequest resolves the caller's live session and user from the
// signed session cookie. Returns ErrNoCookie, ErrBadSignature or ErrNotFound
// wrapped causes when there is none.
func (s *Service) SessionFromRequest(r *http.Request) (*Session, *User, error) {
	token, err := s.codec().GetSigned(r, s.sessionCookieName())
	if err != nil {
		return nil, nil, err
	}
	session, err := s.Sessions.GetSession(token)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.Users.GetUserByID(session.UserID)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

// clientIP extracts the originating client address, preferring the first
// X-Forwarded-For entry when a proxy added one.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.Index(fwd, ","); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
