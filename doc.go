// Package signon implements the authentication handshake of a sign-in
// service: delegated OAuth2 sign-in initiation with CSRF state and PKCE, and
// local email/password authentication, both ending in a signed session
// cookie.
//
// # Architecture
//
// User: an account, identified by id and looked up by email.
//
// Account: one sign-in method attached to a user. Credential accounts carry
// an argon2id password digest; delegated accounts carry the provider's
// subject id. A user may hold several accounts.
//
// Session: a server-issued random token representing an authenticated user,
// persisted by a SessionStore and carried by an HMAC-signed cookie.
//
// Provider: a delegated sign-in target (Google, GitHub, or any oauth2
// endpoint), registered on the service and looked up by id at request time.
//
// # Basic Usage
//
// Construct a service around a store, register providers, and mount the
// handler:
//
//	import (
//	    "github.com/lanternhq/signon"
//	    "github.com/lanternhq/signon/stores"
//	)
//
//	svc := signon.New(stores.NewFSStore("/path/to/storage"))
//	svc.BaseURL = "https://yourapp.com"
//	svc.SecretKey = os.Getenv("SIGNON_SECRET_KEY")
//	svc.Credential = &signon.CredentialConfig{}
//	svc.RegisterProvider(signon.GoogleProvider("", "", "https://yourapp.com/callback/google"))
//
//	http.Handle("/auth/", http.StripPrefix("/auth", svc.Handler()))
//
// This serves POST /sign-in/oauth, POST /sign-in/credential,
// POST /sign-up/credential, POST /sign-out, GET /session and POST /token
// (OAuth2-shaped password and session_token grants for API clients; the
// client package wraps it).
//
// # Store Implementations
//
// The stores package holds a file-based Store for development and small
// deployments plus an in-memory session store. stores/gorm and stores/gae
// back the same interfaces with a relational database and Cloud Datastore.
//
// # Security
//
// Cookies are signed with HMAC-SHA256 over the process secret; verification
// is constant time and a tampered value is never returned. Passwords are
// hashed with argon2id (64 MiB, one pass). OAuth state, PKCE verifiers,
// session tokens and the CSRF binder are 32-byte crypto/rand values. The
// three credential rejection causes share one response and equalized cost.
//
// # Testing
//
// Handlers are tested without a running server using httptest.NewRequest and
// httptest.ResponseRecorder, with temporary storage directories for
// isolation.
package signon
