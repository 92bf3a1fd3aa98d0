package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// VerifyToken validates a bearer access token from authorization
	// metadata, returning the user id it was minted for. Wire it to
	// signon's Service.VerifyAccessToken. When nil, only the trusted
	// user-id metadata key authenticates requests.
	VerifyToken func(tokenString string) (userID, sessionToken string, err error)

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig()
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig() *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		RequireAuth:   false,
		PublicMethods: make(map[string]bool),
	}
}

func (c *InterceptorConfig) ensure() *InterceptorConfig {
	if c == nil {
		c = DefaultInterceptorConfig()
	}
	if c.Config == nil {
		c.Config = DefaultConfig()
	}
	c.Config.EnsureDefaults()
	return c
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that resolves the
// calling user from a bearer token (through VerifyToken) or the trusted
// user-id metadata key, and stores it on the context for handlers.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config = config.ensure()

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		userID := resolveUserID(ctx, config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if userID == "" {
				return nil, status.Error(codes.Unauthenticated, "authentication required")
			}
		}

		if userID != "" {
			ctx = WithUserID(ctx, userID)
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns the stream counterpart of UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config = config.ensure()

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		userID := resolveUserID(ctx, config)

		if config.RequireAuth && !config.PublicMethods[info.FullMethod] {
			if userID == "" {
				return status.Error(codes.Unauthenticated, "authentication required")
			}
		}

		if userID != "" {
			ss = &userStream{ServerStream: ss, ctx: WithUserID(ctx, userID)}
		}
		return handler(srv, ss)
	}
}

// userStream overrides the stream context with one carrying the user id.
type userStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *userStream) Context() context.Context {
	return s.ctx
}

// resolveUserID extracts the calling user from context metadata. Verified
// bearer tokens win over the trusted user-id key.
func resolveUserID(ctx context.Context, config *InterceptorConfig) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if config.VerifyToken != nil {
		for _, value := range md.Get(config.Config.MetadataKeyAuthorization) {
			tokenString := strings.TrimPrefix(value, "Bearer ")
			if tokenString == "" {
				continue
			}
			if userID, _, err := config.VerifyToken(tokenString); err == nil && userID != "" {
				return userID
			}
		}
	}

	if values := md.Get(config.Config.MetadataKeyUserID); len(values) > 0 {
		return values[0]
	}
	return ""
}
