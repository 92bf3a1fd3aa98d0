package grpc_test

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	signongrpc "github.com/lanternhq/signon/grpc"
)

// fakeVerifier accepts exactly one token.
func fakeVerifier(valid, userID string) func(string) (string, string, error) {
	return func(tokenString string) (string, string, error) {
		if tokenString == valid {
			return userID, "session-1", nil
		}
		return "", "", errors.New("bad token")
	}
}

func callUnary(t *testing.T, cfg *signongrpc.InterceptorConfig, ctx context.Context, method string) (string, error) {
	t.Helper()
	interceptor := signongrpc.UnaryAuthInterceptor(cfg)
	var resolved string
	_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method},
		func(ctx context.Context, req interface{}) (interface{}, error) {
			resolved = signongrpc.UserIDFromContext(ctx)
			return nil, nil
		})
	return resolved, err
}

func TestUnaryAuthInterceptorBearer(t *testing.T) {
	cfg := signongrpc.DefaultInterceptorConfig()
	cfg.VerifyToken = fakeVerifier("good-token", "user-1")

	md := metadata.Pairs("authorization", "Bearer good-token")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	resolved, err := callUnary(t, cfg, ctx, "/svc/Method")
	if err != nil {
		t.Fatalf("interceptor rejected valid token: %v", err)
	}
	if resolved != "user-1" {
		t.Errorf("handler saw user %q, want user-1", resolved)
	}
}

func TestUnaryAuthInterceptorRejects(t *testing.T) {
	cfg := signongrpc.DefaultInterceptorConfig()
	cfg.VerifyToken = fakeVerifier("good-token", "user-1")

	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"no metadata", context.Background()},
		{"bad token", metadata.NewIncomingContext(context.Background(),
			metadata.Pairs("authorization", "Bearer forged"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callUnary(t, cfg, tt.ctx, "/svc/Method")
			if status.Code(err) != codes.Unauthenticated {
				t.Errorf("err = %v, want Unauthenticated", err)
			}
		})
	}
}

func TestUnaryAuthInterceptorPublicMethod(t *testing.T) {
	cfg := signongrpc.NewPublicMethodsConfig("/svc/Public")
	cfg.VerifyToken = fakeVerifier("good-token", "user-1")

	if _, err := callUnary(t, cfg, context.Background(), "/svc/Public"); err != nil {
		t.Errorf("public method rejected: %v", err)
	}
	if _, err := callUnary(t, cfg, context.Background(), "/svc/Private"); status.Code(err) != codes.Unauthenticated {
		t.Errorf("private method allowed: %v", err)
	}
}

func TestUnaryAuthInterceptorOptional(t *testing.T) {
	cfg := signongrpc.OptionalAuthConfig()

	resolved, err := callUnary(t, cfg, context.Background(), "/svc/Method")
	if err != nil {
		t.Fatalf("optional auth rejected anonymous call: %v", err)
	}
	if resolved != "" {
		t.Errorf("anonymous call resolved user %q", resolved)
	}
}

func TestUnaryAuthInterceptorTrustedHeader(t *testing.T) {
	cfg := signongrpc.DefaultInterceptorConfig()

	md := metadata.Pairs("x-user-id", "user-9")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	resolved, err := callUnary(t, cfg, ctx, "/svc/Method")
	if err != nil {
		t.Fatalf("trusted header rejected: %v", err)
	}
	if resolved != "user-9" {
		t.Errorf("resolved %q, want user-9", resolved)
	}
}

func TestUnaryAuthInterceptorBearerWinsOverHeader(t *testing.T) {
	cfg := signongrpc.DefaultInterceptorConfig()
	cfg.VerifyToken = fakeVerifier("good-token", "verified-user")

	md := metadata.Pairs(
		"authorization", "Bearer good-token",
		"x-user-id", "claimed-user",
	)
	ctx := metadata.NewIncomingContext(context.Background(), md)

	resolved, err := callUnary(t, cfg, ctx, "/svc/Method")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "verified-user" {
		t.Errorf("resolved %q, want the verified identity", resolved)
	}
}

// stubStream is a minimal ServerStream carrying only a context.
type stubStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *stubStream) Context() context.Context { return s.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	cfg := signongrpc.DefaultInterceptorConfig()
	cfg.VerifyToken = fakeVerifier("good-token", "user-1")
	interceptor := signongrpc.StreamAuthInterceptor(cfg)

	md := metadata.Pairs("authorization", "Bearer good-token")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	var resolved string
	err := interceptor(nil, &stubStream{ctx: ctx}, &grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv interface{}, ss grpc.ServerStream) error {
			resolved = signongrpc.UserIDFromContext(ss.Context())
			return nil
		})
	if err != nil {
		t.Fatalf("stream interceptor rejected valid token: %v", err)
	}
	if resolved != "user-1" {
		t.Errorf("stream handler saw user %q, want user-1", resolved)
	}

	// Anonymous stream is rejected when auth is required.
	err = interceptor(nil, &stubStream{ctx: context.Background()}, &grpc.StreamServerInfo{FullMethod: "/svc/Stream"},
		func(srv interface{}, ss grpc.ServerStream) error { return nil })
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("anonymous stream: err = %v, want Unauthenticated", err)
	}
}
