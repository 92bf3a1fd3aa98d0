package signon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// SignUpRequest is the body of POST /sign-up/credential.
type SignUpRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Name           string `json:"name"`
	CallbackURL    string `json:"callbackURL"`
	DontRememberMe bool   `json:"dontRememberMe"`
}

// SignUpCredential registers a new user with an email/password credential
// and signs them in, responding exactly like credential sign-in. The raw
// password is hashed before anything is persisted and is never stored.
func (s *Service) SignUpCredential(w http.ResponseWriter, r *http.Request) {
	s.EnsureDefaults()

	if s.Credential == nil || s.Credential.DisableSignUp {
		writeAuthError(w, NewAuthError(ErrCodeSignUpDisabled, "Credential sign-up is disabled", ""))
		return
	}

	req, err := parseSignUpRequest(r)
	if err != nil {
		writeAuthError(w, NewAuthError(ErrCodeMissingField, err.Error(), ""))
		return
	}
	if !emailRegex.MatchString(req.Email) {
		writeAuthError(w, NewAuthError(ErrCodeInvalidEmail, "Invalid email format", "email"))
		return
	}
	if minLen := s.Credential.minPasswordLength(); len(req.Password) < minLen {
		msg := fmt.Sprintf("Password must be at least %d characters", minLen)
		writeAuthError(w, NewAuthError(ErrCodeWeakPassword, msg, "password"))
		return
	}

	digest, err := s.Hasher.Hash(r.Context(), req.Password)
	if err != nil {
		s.internalError(w, "failed to hash password", err)
		return
	}

	userID, err := newUserID()
	if err != nil {
		s.internalError(w, "failed to generate user id", err)
		return
	}
	now := time.Now()
	user := &User{
		ID:        userID,
		Email:     req.Email,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Users.CreateUser(user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeAuthError(w, NewAuthError(ErrCodeEmailExists, "Email is already registered", "email"))
			return
		}
		s.internalError(w, "failed to create user", err)
		return
	}

	account := &Account{
		Provider:     ProviderCredential,
		UserID:       user.ID,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Accounts.SaveAccount(account); err != nil {
		s.internalError(w, "failed to save credential account", err, "userId", user.ID)
		return
	}
	s.logger().Info("created credential user", "userId", user.ID)

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

func parseSignUpRequest(r *http.Request) (*SignUpRequest, error) {
	var req SignUpRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, errInvalidBody
		}
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.Name = r.FormValue("name")
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
