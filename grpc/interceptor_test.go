package grpc_test

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	authkit "github.com/foresteye/authkit"
	authgrpc "github.com/foresteye/authkit/grpc"
)

func incomingContext(kv ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(kv...))
}

func TestUnaryAuthInterceptor(t *testing.T) {
	signer, err := authkit.NewSigner("test-secret-key-1234", "test-issuer", time.Hour)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	token, err := signer.Issue("user-42")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	interceptor := authgrpc.UnaryAuthInterceptor(
		authgrpc.NewInterceptorConfig(signer.Verify, "/auth.AuthService/Login"))

	info := &grpc.UnaryServerInfo{FullMethod: "/auth.AuthService/Verify"}
	publicInfo := &grpc.UnaryServerInfo{FullMethod: "/auth.AuthService/Login"}

	tests := []struct {
		name       string
		ctx        context.Context
		info       *grpc.UnaryServerInfo
		wantCode   codes.Code
		wantUserID string
	}{
		{
			name:       "valid bearer token",
			ctx:        incomingContext("authorization", "Bearer "+token),
			info:       info,
			wantCode:   codes.OK,
			wantUserID: "user-42",
		},
		{
			name:       "bare token without prefix",
			ctx:        incomingContext("authorization", token),
			info:       info,
			wantCode:   codes.OK,
			wantUserID: "user-42",
		},
		{
			name:     "missing token",
			ctx:      context.Background(),
			info:     info,
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "tampered token",
			ctx:      incomingContext("authorization", "Bearer "+token+"x"),
			info:     info,
			wantCode: codes.Unauthenticated,
		},
		{
			name:       "public method skips auth",
			ctx:        context.Background(),
			info:       publicInfo,
			wantCode:   codes.OK,
			wantUserID: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID string
			handler := func(ctx context.Context, req any) (any, error) {
				gotUserID = authgrpc.UserIDFromContext(ctx)
				return "ok", nil
			}

			_, err := interceptor(tt.ctx, nil, tt.info, handler)
			if tt.wantCode == codes.OK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				if gotUserID != tt.wantUserID {
					t.Errorf("expected user id %q, got %q", tt.wantUserID, gotUserID)
				}
				return
			}
			if status.Code(err) != tt.wantCode {
				t.Fatalf("expected code %v, got %v (err=%v)", tt.wantCode, status.Code(err), err)
			}
		})
	}
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	config := authgrpc.NewInterceptorConfig(func(string) (string, error) {
		return "", authkit.ErrInvalidToken
	})
	config.RequireAuth = false
	interceptor := authgrpc.UnaryAuthInterceptor(config)

	var authenticated bool
	handler := func(ctx context.Context, req any) (any, error) {
		authenticated = authgrpc.IsAuthenticated(ctx)
		return "ok", nil
	}

	info := &grpc.UnaryServerInfo{FullMethod: "/auth.AuthService/Verify"}
	if _, err := interceptor(context.Background(), nil, info, handler); err != nil {
		t.Fatalf("expected anonymous request to proceed, got %v", err)
	}
	if authenticated {
		t.Error("expected no authenticated user on the context")
	}
}
