package signon_test

import (
	"net/http"
	"testing"

	sn "github.com/lanternhq/signon"
)

func TestSignUpCredential(t *testing.T) {
	svc := setupService(t)

	rr := postJSON(t, svc, "/sign-up/credential", map[string]any{
		"email":    "new@x.com",
		"password": "longenoughpw",
		"name":     "New User",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	body := decodeBody(t, rr)
	user, _ := body["user"].(map[string]any)
	if user["email"] != "new@x.com" || user["name"] != "New User" {
		t.Errorf("unexpected user: %v", user)
	}
	if user["id"] == "" || user["id"] == nil {
		t.Error("user id not assigned")
	}

	// Signed in immediately: cookie set and session live.
	cookie := findCookie(rr, "signon_session")
	if cookie == nil {
		t.Fatal("session cookie not set on sign-up")
	}
	token, err := sn.NewCookieCodec(svc.SecretKey).Decode(cookie.Value)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Sessions.GetSession(token); err != nil {
		t.Errorf("sign-up session not persisted: %v", err)
	}

	// The persisted account carries a digest, never the raw password.
	account, err := svc.Accounts.GetAccount(sn.ProviderCredential, user["id"].(string))
	if err != nil {
		t.Fatalf("credential account not persisted: %v", err)
	}
	if account.PasswordHash == "" || account.PasswordHash == "longenoughpw" {
		t.Errorf("bad stored digest %q", account.PasswordHash)
	}

	// And the new credentials work through sign-in.
	rr = postJSON(t, svc, "/sign-in/credential", map[string]any{
		"email":    "new@x.com",
		"password": "longenoughpw",
	})
	if rr.Code != http.StatusOK {
		t.Errorf("sign-in after sign-up: status = %d", rr.Code)
	}
}

func TestSignUpCredentialRejections(t *testing.T) {
	svc := setupService(t)
	registerUser(t, svc, "taken@x.com", "hunter2hunter2")

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"duplicate email", map[string]any{"email": "taken@x.com", "password": "longenoughpw"}, "email_exists"},
		{"invalid email", map[string]any{"email": "not-an-email", "password": "longenoughpw"}, "invalid_email"},
		{"short password", map[string]any{"email": "ok@x.com", "password": "short"}, "weak_password"},
		{"missing email", map[string]any{"password": "longenoughpw"}, "missing_field"},
		{"missing password", map[string]any{"email": "ok@x.com"}, "missing_field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, svc, "/sign-up/credential", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
			}
			if got := decodeBody(t, rr)["code"]; got != tt.code {
				t.Errorf("code = %v, want %q", got, tt.code)
			}
			if findCookie(rr, "signon_session") != nil {
				t.Error("session cookie set on rejected sign-up")
			}
		})
	}
}

func TestSignUpCredentialMinPasswordLength(t *testing.T) {
	svc := setupService(t)
	svc.Credential = &sn.CredentialConfig{MinPasswordLength: 12}

	rr := postJSON(t, svc, "/sign-up/credential", map[string]any{
		"email":    "a@x.com",
		"password": "elevenchars",
	})
	if rr.Code != http.StatusBadRequest || decodeBody(t, rr)["code"] != "weak_password" {
		t.Errorf("11-char password accepted under a 12-char minimum: %d %s", rr.Code, rr.Body.String())
	}
}

func TestSignUpCredentialDisabled(t *testing.T) {
	svc := setupService(t)
	svc.Credential = &sn.CredentialConfig{DisableSignUp: true}

	rr := postJSON(t, svc, "/sign-up/credential", map[string]any{
		"email":    "a@x.com",
		"password": "longenoughpw",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if decodeBody(t, rr)["code"] != "signup_disabled" {
		t.Errorf("unexpected code: %s", rr.Body.String())
	}

	// Sign-in stays available.
	registerUser(t, svc, "b@x.com", "hunter2hunter2")
	rr = postJSON(t, svc, "/sign-in/credential", map[string]any{
		"email":    "b@x.com",
		"password": "hunter2hunter2",
	})
	if rr.Code != http.StatusOK {
		t.Errorf("sign-in blocked by DisableSignUp: %d", rr.Code)
	}
}
