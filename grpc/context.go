// Package grpc applies the same session-token verification used on
// the HTTP boundary to gRPC services, via interceptors that read the
// token from incoming metadata.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// DefaultMetadataKeyToken is the metadata key the interceptors read
// the session token from. A "Bearer " prefix is tolerated so HTTP
// clients can forward their Authorization header unchanged.
const DefaultMetadataKeyToken = "authorization"

type userIDKey struct{}

// UserIDFromContext returns the verified subject id placed on the
// context by the interceptors, or "" for unauthenticated requests.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// IsAuthenticated reports whether a verified user is on the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

func contextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// TokenToOutgoingContext attaches a session token to an outgoing call.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyToken, "Bearer "+token)
}

func tokenFromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimPrefix(values[0], "Bearer ")
}
