package signon

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSecureToken generates a cryptographically secure random token
func GenerateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// newUserID generates a random id for newly created users.
func newUserID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate user id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IssueAccessToken mints a short-lived JWT bound to the session, for API
// clients that send Authorization headers instead of cookies. The sid claim
// carries the session token so verifiers can check the session is still live.
func (s *Service) IssueAccessToken(session *Session) (string, error) {
	s.EnsureDefaults()

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": session.UserID,
		"sid": session.Token,
		"iat": now.Unix(),
		"exp": now.Add(s.AccessTokenTTL).Unix(),
	}
	if s.JwtIssuer != "" {
		claims["iss"] = s.JwtIssuer
	}
	if s.JwtAudience != "" {
		claims["aud"] = s.JwtAudience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyAccessToken validates a JWT access token and returns its subject and
// session token.
func (s *Service) VerifyAccessToken(tokenString string) (userID, sessionToken string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.SecretKey), nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", "", fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", "", fmt.Errorf("subject not found")
	}
	sid, _ := claims["sid"].(string)
	return sub, sid, nil
}
