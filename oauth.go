package signon

import (
	"encoding/json"
	"net/http"
	"strings"
)

// OAuthSignInRequest is the body of POST /sign-in/oauth. CallbackURL is
// optional; when absent the redirect target falls back to the origin of the
// currentURL query parameter and then to the service base URL.
type OAuthSignInRequest struct {
	Provider    string `json:"provider"`
	CallbackURL string `json:"callbackURL"`
}

// OAuthSignInResponse echoes the state and code verifier in the body, in
// addition to the signed cookies, so clients that cannot hold cookies can
// send them back explicitly on callback.
type OAuthSignInResponse struct {
	URL          string `json:"url"`
	State        string `json:"state"`
	CodeVerifier string `json:"codeVerifier"`
	Redirect     bool   `json:"redirect"`
}

// SignInOAuth starts a delegated authorization-code flow: provider lookup,
// state and PKCE verifier generation, two signed short-TTL cookies, and the
// provider's authorization URL. A provider that is unknown or not an oauth2
// provider gets the same not-found answer; callers cannot tell the two
// apart. No cookies are written on that path.
func (s *Service) SignInOAuth(w http.ResponseWriter, r *http.Request) {
	s.EnsureDefaults()

	req, err := parseOAuthSignInRequest(r)
	if err != nil {
		writeAuthError(w, NewAuthError(ErrCodeInvalidRequest, err.Error(), "provider"))
		return
	}

	provider, ok := s.Provider(req.Provider)
	if !ok || provider.Kind != KindOAuth2 {
		writeAuthError(w, NewAuthError(ErrCodeProviderNotFound, "Unknown provider", "provider"))
		return
	}

	target := resolveRedirectTarget(req.CallbackURL, r.URL.Query().Get("currentURL"), s.BaseURL)

	state, err := newAuthState(target)
	if err != nil {
		s.internalError(w, "failed to generate auth state", err)
		return
	}
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		s.internalError(w, "failed to generate code verifier", err)
		return
	}

	encodedState, err := state.Encode()
	if err != nil {
		s.internalError(w, "failed to encode auth state", err)
		return
	}

	// Two separate cookies: the state cookie carries the binder and the
	// redirect target, the verifier cookie carries only the verifier. A
	// cookie left behind by an abandoned flow never matches a later
	// callback, so no rollback happens on failure below.
	opts := s.cookieOptions(s.StateTTL)
	s.codec().SetSigned(w, s.stateCookieName(), encodedState, opts)
	s.codec().SetSigned(w, s.verifierCookieName(), verifier, opts)

	authURL, err := provider.AuthorizationURL(state.State, verifier)
	if err != nil {
		s.internalError(w, "failed to build authorization URL", err, "provider", provider.ID)
		return
	}

	writeJSON(w, http.StatusOK, OAuthSignInResponse{
		URL:          authURL,
		State:        state.State,
		CodeVerifier: verifier,
		Redirect:     true,
	})
}

func parseOAuthSignInRequest(r *http.Request) (*OAuthSignInRequest, error) {
	var req OAuthSignInRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, errInvalidBody
		}
		req.Provider = r.FormValue("provider")
		req.CallbackURL = r.FormValue("callbackURL")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errInvalidBody
		}
	}
	if req.Provider == "" {
		return nil, errProviderRequired
	}
	return &req, nil
}

// internalError logs the cause and answers with the generic internal error.
// The cause never reaches the response body.
func (s *Service) internalError(w http.ResponseWriter, msg string, err error, args ...any) {
	s.logger().Error(msg, append([]any{"err", err}, args...)...)
	writeAuthError(w, NewAuthError(ErrCodeInternal, "Internal error", ""))
}
