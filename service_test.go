package signon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sn "github.com/lanternhq/signon"
	"github.com/lanternhq/signon/stores"
	"golang.org/x/oauth2"
)

const testSecret = "test-secret-key-0123456789abcdef"

// fastHasher keeps argon2 cheap enough for tests while exercising the real
// code paths.
func fastHasher() *sn.PasswordHasher {
	return &sn.PasswordHasher{
		Time:    1,
		Memory:  1024,
		Threads: 1,
		KeyLen:  32,
		SaltLen: 16,
	}
}

// testProvider is a fully configured oauth2 provider pointing at a fake IdP.
func testProvider(id string) *sn.Provider {
	return &sn.Provider{
		ID:   id,
		Kind: sn.KindOAuth2,
		OAuth2: oauth2.Config{
			ClientID:    "client-" + id,
			RedirectURL: "https://app.example.com/callback/" + id,
			Scopes:      []string{"email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://idp.example.com/" + id + "/authorize",
				TokenURL: "https://idp.example.com/" + id + "/token",
			},
		},
	}
}

// setupService builds a service on a temp-dir FS store with a fast hasher
// and credential sign-in enabled.
func setupService(t *testing.T) *sn.Service {
	t.Helper()
	svc := sn.New(stores.NewFSStore(t.TempDir()))
	svc.BaseURL = "https://app.example.com"
	svc.SecretKey = testSecret
	svc.Credential = &sn.CredentialConfig{}
	svc.Hasher = fastHasher()
	svc.RegisterProvider(testProvider("acme"))
	return svc
}

// registerUser creates a user with a credential account directly through the
// stores, bypassing the sign-up handler.
func registerUser(t *testing.T, svc *sn.Service, email, password string) *sn.User {
	t.Helper()
	digest, err := svc.Hasher.Hash(context.Background(), password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	user := &sn.User{ID: "user-" + email, Email: email}
	if err := svc.Users.CreateUser(user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	account := &sn.Account{Provider: sn.ProviderCredential, UserID: user.ID, PasswordHash: digest}
	if err := svc.Accounts.SaveAccount(account); err != nil {
		t.Fatalf("SaveAccount failed: %v", err)
	}
	return user
}

// postJSON runs a JSON POST through the service router.
func postJSON(t *testing.T, svc *sn.Service, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	svc.Router().ServeHTTP(rr, req)
	return rr
}

// decodeBody unmarshals a recorder body into a generic map.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return out
}

// findCookie returns the named cookie from a recorded response, or nil.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// sessionCookie forges a signed session cookie the way the service writes it.
func sessionCookie(svc *sn.Service, token string) *http.Cookie {
	codec := sn.NewCookieCodec(svc.SecretKey)
	return &http.Cookie{Name: "signon_session", Value: codec.Encode(token)}
}
