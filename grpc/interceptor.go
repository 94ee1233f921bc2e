package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// VerifyTokenFunc validates a session token and returns the subject
// user id. Wire this to authkit.Signer.Verify.
type VerifyTokenFunc func(tokenString string) (userID string, err error)

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// VerifyToken is required.
	VerifyToken VerifyTokenFunc

	// MetadataKeyToken is where the token is read from. Defaults to
	// "authorization".
	MetadataKeyToken string

	// RequireAuth when true rejects unauthenticated requests. When
	// false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of full method names (like
	// "/package.Service/Method") that skip the auth requirement.
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config requiring auth for all methods
// except the listed public ones.
func NewInterceptorConfig(verify VerifyTokenFunc, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		VerifyToken:      verify,
		MetadataKeyToken: DefaultMetadataKeyToken,
		RequireAuth:      true,
		PublicMethods:    make(map[string]bool),
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

func (c *InterceptorConfig) ensureDefaults() {
	if c.MetadataKeyToken == "" {
		c.MetadataKeyToken = DefaultMetadataKeyToken
	}
	if c.PublicMethods == nil {
		c.PublicMethods = make(map[string]bool)
	}
}

// UnaryAuthInterceptor verifies the session token from metadata and
// places the subject id on the handler context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config.ensureDefaults()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		userID := config.verifyRequest(ctx)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(contextWithUserID(ctx, userID), req)
	}
}

// StreamAuthInterceptor is the stream counterpart of
// UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config.ensureDefaults()
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		userID := config.verifyRequest(ctx)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(srv, &wrappedStream{ServerStream: ss, ctx: contextWithUserID(ctx, userID)})
	}
}

func (c *InterceptorConfig) verifyRequest(ctx context.Context) string {
	if c.VerifyToken == nil {
		return ""
	}
	token := tokenFromMetadata(ctx, c.MetadataKeyToken)
	if token == "" {
		return ""
	}
	userID, err := c.VerifyToken(token)
	if err != nil {
		return ""
	}
	return userID
}

type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedStream) Context() context.Context { return w.ctx }
