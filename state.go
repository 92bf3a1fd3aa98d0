package signon

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
)

// AuthState binds an OAuth authorization request to the browser that started
// it. State is round-tripped through the provider; Binder never leaves the
// signed state cookie. The two tokens are generated independently so neither
// can be derived from the other.
type AuthState struct {
	State          string `json:"state"`
	Binder         string `json:"binder"`
	RedirectTarget string `json:"redirectTarget"`
}

// newAuthState generates a fresh state/binder pair bound to redirectTarget.
func newAuthState(redirectTarget string) (*AuthState, error) {
	state, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	binder, err := GenerateSecureToken()
	if err != nil {
		return nil, err
	}
	return &AuthState{
		State:          state,
		Binder:         binder,
		RedirectTarget: redirectTarget,
	}, nil
}

// Encode serializes the state for cookie persistence. The result stays in
// the base64url alphabet so it can be signed and stored as a cookie value
// directly.
func (st *AuthState) Encode() (string, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("failed to encode auth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeAuthState reverses Encode. Used by callback handlers to recover the
// binder and redirect target for the flow being completed.
func DecodeAuthState(encoded string) (*AuthState, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode auth state: %w", err)
	}
	var st AuthState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to decode auth state: %w", err)
	}
	return &st, nil
}

// resolveRedirectTarget picks where the user lands after login. Order
// matters: an explicit callback URL wins, then the origin of the page the
// request came from, then the service base URL.
func resolveRedirectTarget(callbackURL, currentURL, baseURL string) string {
	if callbackURL != "" {
		return callbackURL
	}
	if currentURL != "" {
		if u, err := url.Parse(currentURL); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return baseURL
}
