package client

import (
	"net/http"
)

// AuthTransport wraps an http.RoundTripper to add a fixed Authorization
// header. Use it when the token is managed elsewhere; AuthClient's own
// transport refreshes automatically instead.
type AuthTransport struct {
	Base  http.RoundTripper
	Token string
}

// RoundTrip implements http.RoundTripper
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Token != "" {
		// Clone the request to avoid mutating the original
		req2 := req.Clone(req.Context())
		req2.Header.Set("Authorization", "Bearer "+t.Token)
		req = req2
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// NewAuthTransport creates an AuthTransport with the given token
func NewAuthTransport(token string) *AuthTransport {
	return &AuthTransport{
		Base:  http.DefaultTransport,
		Token: token,
	}
}

// NewAuthTransportWithBase creates an AuthTransport with a custom base transport
func NewAuthTransportWithBase(base http.RoundTripper, token string) *AuthTransport {
	return &AuthTransport{
		Base:  base,
		Token: token,
	}
}

// refreshTransport is an http.RoundTripper that adds auth and handles refresh
type refreshTransport struct {
	client *AuthClient
	base   http.RoundTripper
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Get current token (may trigger refresh)
	token, err := t.client.GetToken()
	if err != nil {
		return nil, err
	}

	if token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// On 401, exchange the session token once and retry
	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		t.client.mu.Lock()
		cred, _ := t.client.store.GetCredential(t.client.serverURL)
		refreshed := false
		if cred != nil && cred.HasSessionToken() {
			refreshed = t.client.refreshTokenLocked(cred) == nil
		}
		t.client.mu.Unlock()

		if refreshed {
			resp.Body.Close()
			newToken, _ := t.client.GetToken()
			if newToken != "" {
				req = req.Clone(req.Context())
				req.Header.Set("Authorization", "Bearer "+newToken)
				return t.base.RoundTrip(req)
			}
		}
	}

	return resp, nil
}
