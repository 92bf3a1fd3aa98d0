package signon

import (
	"encoding/json"
	"errors"
	"net/http"
)

// TokenRequest is the body of POST /token, following the OAuth2 token
// endpoint shape so standard CLI/API clients can drive it.
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
}

// TokenResponse is the success body of POST /token. SessionToken anchors the
// grant: clients exchange it for fresh access tokens until the session is
// deleted or expires, so revoking the session revokes the whole chain.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	SessionToken string `json:"session_token"`
	UserID       string `json:"user_id"`
}

type tokenError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

// HandleToken serves the token endpoint for API and CLI clients that hold no
// cookies. grant_type=password authenticates email/password through the same
// state machine as credential sign-in (including its anti-enumeration
// semantics) and creates a session; grant_type=session_token exchanges a
// live session token for a fresh access token.
func (s *Service) HandleToken(w http.ResponseWriter, r *http.Request) {
	s.EnsureDefaults()

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.tokenErrorResponse(w, "invalid_request", "Invalid request body", http.StatusBadRequest)
		return
	}

	switch req.GrantType {
	case "password":
		s.handlePasswordGrant(w, r, &req)
	case "session_token":
		s.handleSessionTokenGrant(w, r, &req)
	default:
		s.tokenErrorResponse(w, "unsupported_grant_type", "Grant type not supported", http.StatusBadRequest)
	}
}

func (s *Service) handlePasswordGrant(w http.ResponseWriter, r *http.Request, req *TokenRequest) {
	if s.Credential == nil {
		s.tokenErrorResponse(w, "invalid_request", "Credential sign-in is disabled", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		s.tokenErrorResponse(w, "invalid_request", "email and password required", http.StatusBadRequest)
		return
	}

	user, cause, err := s.checkCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger().Error("credential check failed", "err", err)
		s.tokenErrorResponse(w, "server_error", "Internal error", http.StatusInternalServerError)
		return
	}
	if cause != "" {
		s.logger().Info("token grant rejected", "cause", cause, "email", req.Email)
		s.tokenErrorResponse(w, "invalid_grant", "Invalid email or password", http.StatusUnauthorized)
		return
	}

	session, err := s.createSession(user.ID, r)
	if err != nil {
		s.logger().Error("failed to create session", "err", err)
		s.tokenErrorResponse(w, "server_error", "Failed to create session", http.StatusInternalServerError)
		return
	}

	s.writeTokenResponse(w, session)
}

func (s *Service) handleSessionTokenGrant(w http.ResponseWriter, r *http.Request, req *TokenRequest) {
	if req.SessionToken == "" {
		s.tokenErrorResponse(w, "invalid_request", "session_token required", http.StatusBadRequest)
		return
	}

	session, err := s.Sessions.GetSession(req.SessionToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.tokenErrorResponse(w, "invalid_grant", "Session expired or revoked", http.StatusUnauthorized)
			return
		}
		s.logger().Error("session lookup failed", "err", err)
		s.tokenErrorResponse(w, "server_error", "Internal error", http.StatusInternalServerError)
		return
	}

	s.writeTokenResponse(w, session)
}

func (s *Service) writeTokenResponse(w http.ResponseWriter, session *Session) {
	accessToken, err := s.IssueAccessToken(session)
	if err != nil {
		s.logger().Error("failed to issue access token", "err", err)
		s.tokenErrorResponse(w, "server_error", "Failed to create token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTokenTTL.Seconds()),
		SessionToken: session.Token,
		UserID:       session.UserID,
	})
}

func (s *Service) tokenErrorResponse(w http.ResponseWriter, code, description string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(tokenError{Code: code, Description: description})
}
