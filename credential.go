package signon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// CredentialSignInRequest is the body of POST /sign-in/credential. The
// DontRememberMe polarity is deliberate: true drops the session cookie's
// expiry attributes so it dies with the browser session; the false default
// keeps the configured session lifetime.
type CredentialSignInRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	CallbackURL    string `json:"callbackURL"`
	DontRememberMe bool   `json:"dontRememberMe"`
}

// SignInResponse is the success body for credential sign-in and sign-up.
// Redirect is true iff the request supplied a callback URL.
type SignInResponse struct {
	User     *User    `json:"user"`
	Session  *Session `json:"session"`
	Redirect bool     `json:"redirect"`
	URL      string   `json:"url,omitempty"`
}

// SignInCredential authenticates an email/password pair and issues a signed
// session cookie. Unknown email, an account with no password set, and a
// wrong password all answer with the identical status and body; the causes
// are told apart only in the diagnostic log, and the cheaper rejection paths
// burn an equal-cost dummy verification so response timing does not reveal
// which one fired.
func (s *Service) SignInCredential(w http.ResponseWriter, r *http.Request) {
	s.EnsureDefaults()

	if s.Credential == nil {
		writeAuthError(w, NewAuthError(ErrCodeSignInDisabled, "Credential sign-in is disabled", ""))
		return
	}

	req, err := parseCredentialSignInRequest(r)
	if err != nil {
		writeAuthError(w, NewAuthError(ErrCodeInvalidRequest, err.Error(), ""))
		return
	}

	// Already signed in: echo the live session without touching the user
	// or account stores. Repeated sign-in calls while authenticated are
	// idempotent no-ops that only restate redirect intent.
	if session, user, err := s.SessionFromRequest(r); err == nil {
		writeJSON(w, http.StatusOK, SignInResponse{
			User:     user,
			Session:  session,
			Redirect: req.CallbackURL != "",
			URL:      req.CallbackURL,
		})
		return
	}

	user, cause, err := s.checkCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.internalError(w, "credential check failed", err)
		return
	}
	if cause != "" {
		s.rejectCredentials(w, cause, req.Email)
		return
	}

	session, err := s.createSession(user.ID, r)
	if err != nil {
		s.internalError(w, "failed to create session", err)
		return
	}
	s.bindSessionCookie(w, session, req.DontRememberMe)

	writeJSON(w, http.StatusOK, SignInResponse{
		User:     user,
		Session:  session,
		Redirect: req.CallbackURL != "",
		URL:      req.CallbackURL,
	})
}

// checkCredentials runs the email/password state machine shared by the
// sign-in handler and the token endpoint. On success the user is returned
// with an empty cause. A non-empty cause means the credentials were
// rejected; the cheaper rejection paths burn an equal-cost dummy
// verification first so the three causes cost the same. The error return is
// reserved for broken collaborators.
func (s *Service) checkCredentials(ctx context.Context, email, password string) (*User, string, error) {
	user, err := s.Users.GetUserByEmail(email)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, "", err
		}
		s.Hasher.VerifyDummy(ctx, password)
		return nil, "unknown email", nil
	}

	account, err := s.Accounts.GetAccount(ProviderCredential, user.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	if err != nil || account.PasswordHash == "" {
		// The user exists but signs in through another provider. Still
		// indistinguishable from a wrong password to the caller.
		s.Hasher.VerifyDummy(ctx, password)
		return nil, "no password on account", nil
	}

	ok, err := s.Hasher.Verify(ctx, account.PasswordHash, password)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "wrong password", nil
	}
	return user, "", nil
}

// rejectCredentials writes the unified invalid-credentials answer. The cause
// goes only to the log.
func (s *Service) rejectCredentials(w http.ResponseWriter, cause, email string) {
	s.logger().Info("credential sign-in rejected", "cause", cause, "email", email)
	writeAuthError(w, NewAuthError(ErrCodeInvalidCreds, "Invalid email or password", "password"))
}

func parseCredentialSignInRequest(r *http.Request) (*CredentialSignInRequest, error) {
	var req CredentialSignInRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, errInvalidBody
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.CallbackURL = r.FormValue("callbackURL")
		req.DontRememberMe = r.FormValue("dontRememberMe") == "true"
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errInvalidBody
		}
	}
	if req.Email == "" || req.Password == "" {
		return nil, errors.New("email and password required")
	}
	return &req, nil
}
