// Package client provides client-side helpers for talking to a signon
// server from CLIs and services: credential storage, automatic access-token
// refresh against the token endpoint, and HTTP client wrappers.
package client

import (
	"time"
)

// ServerCredential holds authentication info for a single server. The
// session token is the long-lived anchor: it is exchanged for fresh access
// tokens until the server-side session expires or is revoked.
type ServerCredential struct {
	AccessToken  string    `json:"access_token"`
	SessionToken string    `json:"session_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	UserID       string    `json:"user_id,omitempty"`
	UserEmail    string    `json:"user_email,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired returns true if the access token has expired
func (c *ServerCredential) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

// IsExpiringSoon returns true if the token expires within the given duration
func (c *ServerCredential) IsExpiringSoon(within time.Duration) bool {
	return time.Now().Add(within).After(c.ExpiresAt)
}

// HasSessionToken returns true if a session token is available for refresh
func (c *ServerCredential) HasSessionToken() bool {
	return c.SessionToken != ""
}

// CredentialStore defines the interface for storing and retrieving credentials
type CredentialStore interface {
	// GetCredential retrieves a credential for a server URL
	// Returns nil, nil if no credential exists for the server
	GetCredential(serverURL string) (*ServerCredential, error)

	// SetCredential stores a credential for a server URL
	SetCredential(serverURL string, cred *ServerCredential) error

	// RemoveCredential removes a credential for a server URL
	RemoveCredential(serverURL string) error

	// ListServers returns all server URLs with stored credentials
	ListServers() ([]string, error)

	// Save persists any pending changes (for stores that batch writes)
	Save() error
}
