package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lanternhq/signon/client"
)

// memStore is an in-memory CredentialStore for tests.
type memStore struct {
	creds map[string]*client.ServerCredential
	saves int
}

func newMemStore() *memStore {
	return &memStore{creds: map[string]*client.ServerCredential{}}
}

func (m *memStore) GetCredential(serverURL string) (*client.ServerCredential, error) {
	cred, ok := m.creds[serverURL]
	if !ok {
		return nil, nil
	}
	out := *cred
	return &out, nil
}

func (m *memStore) SetCredential(serverURL string, cred *client.ServerCredential) error {
	copied := *cred
	m.creds[serverURL] = &copied
	return nil
}

func (m *memStore) RemoveCredential(serverURL string) error {
	delete(m.creds, serverURL)
	return nil
}

func (m *memStore) ListServers() ([]string, error) {
	var out []string
	for s := range m.creds {
		out = append(out, s)
	}
	return out, nil
}

func (m *memStore) Save() error {
	m.saves++
	return nil
}

// fakeAuthServer serves a token endpoint accepting one email/password pair
// and one session token, counting grants by type.
type fakeAuthServer struct {
	*httptest.Server
	passwordGrants int32
	sessionGrants  int32
}

func newFakeAuthServer(t *testing.T) *fakeAuthServer {
	t.Helper()
	f := &fakeAuthServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var req client.TokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
			return
		}
		switch {
		case req.GrantType == "password" && req.Email == "a@x.com" && req.Password == "pw":
			atomic.AddInt32(&f.passwordGrants, 1)
		case req.GrantType == "session_token" && req.SessionToken == "sess-1":
			atomic.AddInt32(&f.sessionGrants, 1)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid email or password",
			})
			return
		}
		json.NewEncoder(w).Encode(client.TokenResponse{
			AccessToken:  "access-1",
			TokenType:    "Bearer",
			ExpiresIn:    3600,
			SessionToken: "sess-1",
			UserID:       "user-1",
		})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func TestLogin(t *testing.T) {
	server := newFakeAuthServer(t)
	store := newMemStore()
	c := client.NewAuthClient(server.URL, store)

	cred, err := c.Login("a@x.com", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if cred.AccessToken != "access-1" || cred.SessionToken != "sess-1" {
		t.Errorf("unexpected credential: %+v", cred)
	}
	if cred.UserEmail != "a@x.com" {
		t.Errorf("UserEmail = %q", cred.UserEmail)
	}
	if !c.IsLoggedIn() {
		t.Error("IsLoggedIn false after login")
	}
	if store.saves == 0 {
		t.Error("login did not persist the store")
	}

	token, err := c.GetToken()
	if err != nil || token != "access-1" {
		t.Errorf("GetToken = (%q, %v)", token, err)
	}
}

func TestLoginRejected(t *testing.T) {
	server := newFakeAuthServer(t)
	c := client.NewAuthClient(server.URL, newMemStore())

	if _, err := c.Login("a@x.com", "wrong"); err == nil {
		t.Fatal("Login with wrong password succeeded")
	}
	if c.IsLoggedIn() {
		t.Error("IsLoggedIn true after rejected login")
	}
}

func TestGetTokenProactiveRefresh(t *testing.T) {
	server := newFakeAuthServer(t)
	store := newMemStore()
	c := client.NewAuthClient(server.URL, store)

	// A credential inside the refresh threshold but not yet expired.
	store.SetCredential(c.ServerURL(), &client.ServerCredential{
		AccessToken:  "stale-access",
		SessionToken: "sess-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	})

	token, err := c.GetToken()
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}
	if token != "access-1" {
		t.Errorf("token = %q, want the refreshed access-1", token)
	}
	if atomic.LoadInt32(&server.sessionGrants) != 1 {
		t.Errorf("session grants = %d, want 1", server.sessionGrants)
	}
}

func TestGetTokenNoCredential(t *testing.T) {
	server := newFakeAuthServer(t)
	c := client.NewAuthClient(server.URL, newMemStore())

	token, err := c.GetToken()
	if err != nil || token != "" {
		t.Errorf("GetToken without credential = (%q, %v), want empty", token, err)
	}
}

func TestLogout(t *testing.T) {
	server := newFakeAuthServer(t)
	store := newMemStore()
	c := client.NewAuthClient(server.URL, store)

	if _, err := c.Login("a@x.com", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := c.Logout(); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if c.IsLoggedIn() {
		t.Error("still logged in after logout")
	}
	cred, err := c.GetCredential()
	if err != nil || cred != nil {
		t.Errorf("credential survived logout: (%+v, %v)", cred, err)
	}
}

func TestHTTPClientAttachesBearer(t *testing.T) {
	auth := newFakeAuthServer(t)

	var gotAuth atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
	}))
	defer api.Close()

	store := newMemStore()
	c := client.NewAuthClient(auth.URL, store)
	if _, err := c.Login("a@x.com", "pw"); err != nil {
		t.Fatal(err)
	}

	resp, err := c.HTTPClient().Get(api.URL + "/resource")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if got, _ := gotAuth.Load().(string); got != "Bearer access-1" {
		t.Errorf("Authorization = %q, want Bearer access-1", got)
	}
}

func TestAuthTransport(t *testing.T) {
	var got string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer api.Close()

	httpClient := &http.Client{Transport: client.NewAuthTransport("fixed-token")}
	resp, err := httpClient.Get(api.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if got != "Bearer fixed-token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRefreshTransportRetriesOn401(t *testing.T) {
	auth := newFakeAuthServer(t)

	// API that rejects the stale token once, then accepts.
	var calls int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer api.Close()

	store := newMemStore()
	c := client.NewAuthClient(auth.URL, store)
	// Non-expiring stale credential so no proactive refresh kicks in.
	store.SetCredential(c.ServerURL(), &client.ServerCredential{
		AccessToken:  "stale-access",
		SessionToken: "sess-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	})

	resp, err := c.HTTPClient().Get(api.URL + "/resource")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("final status = %d, want 200 after refresh retry", resp.StatusCode)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("api calls = %d, want 2", calls)
	}
	if atomic.LoadInt32(&auth.sessionGrants) != 1 {
		t.Errorf("session grants = %d, want 1", auth.sessionGrants)
	}
}
