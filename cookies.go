package signon

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNoCookie is returned by GetSigned when the named cookie is absent.
	ErrNoCookie = errors.New("cookie not present")

	// ErrBadSignature is returned when a cookie value fails signature
	// verification. A tampered plaintext is never returned to the caller.
	ErrBadSignature = errors.New("cookie signature mismatch")
)

// CookieOptions control the attributes written with a signed cookie.
// A zero MaxAge omits both Max-Age and Expires, producing a cookie that
// lives only as long as the user agent session.
type CookieOptions struct {
	MaxAge   time.Duration
	Path     string
	Domain   string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// CookieCodec signs and verifies cookie values with a process-wide secret.
// The wire format is "plaintext.signature" where the signature is the
// base64url HMAC-SHA256 of the plaintext. Plaintexts handled here are hex or
// base64url tokens, so the value stays within the cookie-safe octet set.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret string) *CookieCodec {
	return &CookieCodec{secret: []byte(secret)}
}

func (c *CookieCodec) sign(plaintext string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(plaintext))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode returns the signed wire value for plaintext.
func (c *CookieCodec) Encode(plaintext string) string {
	return plaintext + "." + c.sign(plaintext)
}

// Decode verifies a wire value and returns its plaintext. Signature
// comparison is constant time.
func (c *CookieCodec) Decode(wire string) (string, error) {
	idx := strings.LastIndex(wire, ".")
	if idx < 0 {
		return "", ErrBadSignature
	}
	plaintext, signature := wire[:idx], wire[idx+1:]
	expected := c.sign(plaintext)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", ErrBadSignature
	}
	return plaintext, nil
}

// SetSigned writes a signed cookie onto the response.
func (c *CookieCodec) SetSigned(w http.ResponseWriter, name, plaintext string, opts CookieOptions) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    c.Encode(plaintext),
		Path:     opts.Path,
		Domain:   opts.Domain,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	if opts.MaxAge > 0 {
		cookie.MaxAge = int(opts.MaxAge / time.Second)
		cookie.Expires = time.Now().Add(opts.MaxAge)
	}
	http.SetCookie(w, cookie)
}

// GetSigned reads the named cookie and returns its verified plaintext.
func (c *CookieCodec) GetSigned(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCookie
	}
	return c.Decode(cookie.Value)
}

// Clear expires the named cookie on the client.
func (c *CookieCodec) Clear(w http.ResponseWriter, name string, opts CookieOptions) {
	path := opts.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:    name,
		Value:   "",
		Path:    path,
		Domain:  opts.Domain,
		MaxAge:  -1,
		Expires: time.Now(),
	})
}
