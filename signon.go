package signon

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// CredentialConfig enables email/password sign-in. A nil CredentialConfig on
// the service disables the credential endpoints entirely.
type CredentialConfig struct {
	// Minimum accepted password length at sign-up. Defaults to 8.
	MinPasswordLength int

	// DisableSignUp keeps sign-in available while closing registration.
	DisableSignUp bool
}

func (c *CredentialConfig) minPasswordLength() int {
	if c.MinPasswordLength > 0 {
		return c.MinPasswordLength
	}
	return 8
}

// Service is the sign-in core. Construct it once at startup, set fields,
// then mount Handler(). Configuration is read-only after the first request;
// the signing secret and cookie defaults are shared by every request without
// locking.
type Service struct {
	// Must be passed in
	Users    UserStore
	Accounts AccountStore
	Sessions SessionStore

	// Optional name used as a prefix for cookie names and derived defaults
	AppName string

	// Where the service lives. Fallback post-login redirect target; an
	// https scheme also switches cookies to Secure.
	BaseURL string

	// Process-wide signing secret for cookies and access tokens
	SecretKey string

	// nil disables credential sign-in and sign-up
	Credential *CredentialConfig

	// Cookie attributes shared by every cookie this service writes
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// StateTTL bounds the state and code-verifier cookies. Defaults to 10m.
	StateTTL time.Duration

	// SessionTTL bounds session records and the remembered session cookie.
	// Defaults to 7 days.
	SessionTTL time.Duration

	// JWT related fields
	JwtIssuer      string
	JwtAudience    string
	AccessTokenTTL time.Duration

	Hasher *PasswordHasher
	Logger *slog.Logger

	providers map[string]*Provider
	cookies   *CookieCodec
	router    *mux.Router
}

// New creates a service backed by a single combined store. Split backends
// (say, SQL users with in-memory sessions) are configured by setting the
// store fields directly.
func New(store Store) *Service {
	out := (&Service{Users: store, Accounts: store, Sessions: store}).EnsureDefaults()
	return out
}

func (s *Service) EnsureDefaults() *Service {
	// ensure some defaults
	if s.AppName == "" {
		s.AppName = "Signon"
	}
	if s.SecretKey == "" {
		s.SecretKey = strings.TrimSpace(os.Getenv("SIGNON_SECRET_KEY"))
		if s.SecretKey == "" {
			s.SecretKey = "MyTestSecretKey123456"
		}
	}
	if s.JwtIssuer == "" {
		s.JwtIssuer = fmt.Sprintf("%s-Issuer", s.AppName)
	}
	if s.StateTTL <= 0 {
		s.StateTTL = 10 * time.Minute
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = 7 * 24 * time.Hour
	}
	if s.AccessTokenTTL <= 0 {
		s.AccessTokenTTL = time.Hour
	}
	if s.CookiePath == "" {
		s.CookiePath = "/"
	}
	if s.CookieSameSite == 0 {
		s.CookieSameSite = http.SameSiteLaxMode
	}
	if strings.HasPrefix(s.BaseURL, "https://") {
		s.CookieSecure = true
	}
	if s.Hasher == nil {
		s.Hasher = NewPasswordHasher()
	}
	return s
}

// RegisterProvider adds a provider to the registry, replacing any previous
// provider with the same id.
func (s *Service) RegisterProvider(p *Provider) *Service {
	if s.providers == nil {
		s.providers = map[string]*Provider{}
	}
	s.providers[p.ID] = p
	return s
}

// Provider looks up a registered provider by id.
func (s *Service) Provider(id string) (*Provider, bool) {
	p, ok := s.providers[id]
	return p, ok
}

// Router returns the route set this service serves. Mount it under any
// prefix with http.StripPrefix.
func (s *Service) Router() *mux.Router {
	if s.router == nil {
		s.EnsureDefaults()
		r := mux.NewRouter()
		r.HandleFunc("/sign-in/oauth", s.SignInOAuth).Methods(http.MethodPost)
		r.HandleFunc("/sign-in/credential", s.SignInCredential).Methods(http.MethodPost)
		r.HandleFunc("/sign-up/credential", s.SignUpCredential).Methods(http.MethodPost)
		r.HandleFunc("/sign-out", s.SignOut).Methods(http.MethodPost)
		r.HandleFunc("/session", s.HandleSession).Methods(http.MethodGet)
		r.HandleFunc("/token", s.HandleToken).Methods(http.MethodPost)
		s.router = r
	}
	return s.router
}

func (s *Service) Handler() http.Handler {
	return s.Router()
}

// SignOut deletes the caller's session record and expires the cookie. It
// reports success even without a valid session so clients can always reset.
func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) {
	if token, err := s.codec().GetSigned(r, s.sessionCookieName()); err == nil {
		if err := s.Sessions.DeleteSession(token); err != nil {
			s.logger().Warn("failed to delete session", "err", err)
		}
	}
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleSession returns the caller's current session and user.
func (s *Service) HandleSession(w http.ResponseWriter, r *http.Request) {
	session, user, err := s.SessionFromRequest(r)
	if err != nil {
		writeAuthError(w, NewAuthError(ErrCodeNotAuthenticated, "Not authenticated", ""))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "session": session})
}

// NewMiddleware returns request middleware wired to this service's cookie
// codec, session store and token verifier.
func (s *Service) NewMiddleware() *Middleware {
	s.EnsureDefaults()
	return &Middleware{
		CookieName:  s.sessionCookieName(),
		Codec:       s.codec(),
		Sessions:    s.Sessions,
		VerifyToken: s.VerifyAccessToken,
		Logger:      s.Logger,
	}
}

// codec is built lazily so a SecretKey assigned after New still wins.
func (s *Service) codec() *CookieCodec {
	if s.cookies == nil {
		s.EnsureDefaults()
		s.cookies = NewCookieCodec(s.SecretKey)
	}
	return s.cookies
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) cookiePrefix() string {
	return strings.ToLower(s.AppName)
}

func (s *Service) sessionCookieName() string {
	return s.cookiePrefix() + "_session"
}

func (s *Service) stateCookieName() string {
	return s.cookiePrefix() + "_state"
}

func (s *Service) verifierCookieName() string {
	return s.cookiePrefix() + "_code_verifier"
}

func (s *Service) cookieOptions(maxAge time.Duration) CookieOptions {
	return CookieOptions{
		MaxAge:   maxAge,
		Path:     s.CookiePath,
		Domain:   s.CookieDomain,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: s.CookieSameSite,
	}
}
