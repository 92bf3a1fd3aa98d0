package signon_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sn "github.com/lanternhq/signon"
)

func TestCookieCodecRoundTrip(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)

	plaintext := "deadbeefcafe0123"
	wire := codec.Encode(plaintext)
	if !strings.HasPrefix(wire, plaintext+".") {
		t.Fatalf("wire value %q does not start with plaintext", wire)
	}

	got, err := codec.Decode(wire)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != plaintext {
		t.Errorf("Decode = %q, want %q", got, plaintext)
	}
}

func TestCookieCodecTamper(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)
	wire := codec.Encode("deadbeefcafe0123")

	tests := []struct {
		name string
		wire string
	}{
		{"flipped plaintext byte", "Deadbeefcafe0123" + wire[16:]},
		{"truncated signature", wire[:len(wire)-2]},
		{"no separator", strings.ReplaceAll(wire, ".", "")},
		{"empty value", ""},
		{"signature only", wire[strings.LastIndex(wire, "."):]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := codec.Decode(tt.wire); err != sn.ErrBadSignature {
				t.Errorf("Decode(%q) = (%q, %v), want ErrBadSignature", tt.wire, got, err)
			}
		})
	}
}

func TestCookieCodecWrongSecret(t *testing.T) {
	wire := sn.NewCookieCodec(testSecret).Encode("deadbeefcafe0123")
	if _, err := sn.NewCookieCodec("some-other-secret").Decode(wire); err != sn.ErrBadSignature {
		t.Errorf("Decode with wrong secret: got %v, want ErrBadSignature", err)
	}
}

func TestSetSignedGetSigned(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)

	rr := httptest.NewRecorder()
	codec.SetSigned(rr, "tok", "cafe0123", sn.CookieOptions{
		MaxAge:   time.Hour,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	cookie := rr.Result().Cookies()[0]
	if cookie.Name != "tok" {
		t.Fatalf("cookie name = %q", cookie.Name)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Error("HttpOnly/Secure attributes not carried through")
	}
	if cookie.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cookie.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	got, err := codec.GetSigned(req, "tok")
	if err != nil {
		t.Fatalf("GetSigned failed: %v", err)
	}
	if got != "cafe0123" {
		t.Errorf("GetSigned = %q, want %q", got, "cafe0123")
	}
}

func TestSetSignedSessionOnly(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)

	rr := httptest.NewRecorder()
	codec.SetSigned(rr, "tok", "cafe0123", sn.CookieOptions{})

	cookie := rr.Result().Cookies()[0]
	if cookie.MaxAge != 0 || !cookie.Expires.IsZero() {
		t.Errorf("session-only cookie carries expiry: MaxAge=%d Expires=%v", cookie.MaxAge, cookie.Expires)
	}
}

func TestGetSignedAbsent(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := codec.GetSigned(req, "missing"); err != sn.ErrNoCookie {
		t.Errorf("GetSigned on absent cookie: got %v, want ErrNoCookie", err)
	}
}

func TestClearExpiresCookie(t *testing.T) {
	codec := sn.NewCookieCodec(testSecret)
	rr := httptest.NewRecorder()
	codec.Clear(rr, "tok", sn.CookieOptions{Path: "/"})

	cookie := rr.Result().Cookies()[0]
	if cookie.MaxAge != -1 {
		t.Errorf("cleared cookie MaxAge = %d, want -1", cookie.MaxAge)
	}
	if cookie.Value != "" {
		t.Errorf("cleared cookie still has value %q", cookie.Value)
	}
}
