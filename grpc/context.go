// Package grpc provides authentication context utilities for passing the
// signed-in user between HTTP handlers and gRPC services via metadata, plus
// server interceptors that verify bearer access tokens.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys for authentication context.
const (
	// DefaultMetadataKeyUserID is the gRPC metadata key carrying a trusted
	// user id set by a fronting gateway.
	DefaultMetadataKeyUserID = "x-user-id"

	// DefaultMetadataKeyAuthorization carries bearer access tokens.
	DefaultMetadataKeyAuthorization = "authorization"
)

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyUserID is the metadata key for the trusted user id.
	// Defaults to "x-user-id".
	MetadataKeyUserID string

	// MetadataKeyAuthorization is the metadata key for bearer tokens.
	// Defaults to "authorization".
	MetadataKeyAuthorization string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyUserID:        DefaultMetadataKeyUserID,
		MetadataKeyAuthorization: DefaultMetadataKeyAuthorization,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyUserID == "" {
		c.MetadataKeyUserID = DefaultMetadataKeyUserID
	}
	if c.MetadataKeyAuthorization == "" {
		c.MetadataKeyAuthorization = DefaultMetadataKeyAuthorization
	}
}

type contextKey string

const userIDContextKey contextKey = "signon.grpc.userId"

// WithUserID returns a context carrying an authenticated user id. The
// interceptors call this after verifying a token; handlers read it back with
// UserIDFromContext.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts the authenticated user id. A value stored by an
// interceptor wins; otherwise the trusted metadata key is consulted.
// Returns "" if no user is authenticated.
func UserIDFromContext(ctx context.Context) string {
	return UserIDFromContextWithConfig(ctx, nil)
}

// UserIDFromContextWithConfig extracts the authenticated user id using the
// specified config.
func UserIDFromContextWithConfig(ctx context.Context, config *Config) string {
	if v, ok := ctx.Value(userIDContextKey).(string); ok && v != "" {
		return v
	}

	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(config.MetadataKeyUserID); len(values) > 0 {
		return values[0]
	}
	return ""
}

// UserIDToOutgoingContext adds the user id to outgoing gRPC metadata.
func UserIDToOutgoingContext(ctx context.Context, userID string) context.Context {
	return UserIDToOutgoingContextWithKey(ctx, userID, DefaultMetadataKeyUserID)
}

// UserIDToOutgoingContextWithKey adds the user id to outgoing gRPC metadata
// with a custom key.
func UserIDToOutgoingContextWithKey(ctx context.Context, userID string, key string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, key, userID)
}

// TokenToOutgoingContext adds a bearer access token to outgoing gRPC
// metadata so the server-side interceptor can verify it.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuthorization, "Bearer "+token)
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}
