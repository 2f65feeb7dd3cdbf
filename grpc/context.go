// Package grpc carries blogauth access tokens into gRPC services. The
// interceptors verify the bearer token in the "authorization" metadata and
// expose the user id through UserIDFromContext.
package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys for authentication context.
const (
	// DefaultMetadataKeyAuthorization carries "Bearer <access token>"
	DefaultMetadataKeyAuthorization = "authorization"

	// DefaultMetadataKeyUserID carries a user id forwarded by a trusted gateway
	DefaultMetadataKeyUserID = "x-user-id"
)

// Config holds the metadata key configuration for auth context.
type Config struct {
	// MetadataKeyAuthorization is the metadata key holding the access token.
	// Defaults to "authorization".
	MetadataKeyAuthorization string

	// MetadataKeyUserID is the metadata key for a forwarded user id.
	// Defaults to "x-user-id".
	MetadataKeyUserID string

	// TrustForwardedUserID accepts MetadataKeyUserID without a token.
	// Only enable it behind a gateway that strips the key from client requests.
	TrustForwardedUserID bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyAuthorization: DefaultMetadataKeyAuthorization,
		MetadataKeyUserID:        DefaultMetadataKeyUserID,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() {
	if c.MetadataKeyAuthorization == "" {
		c.MetadataKeyAuthorization = DefaultMetadataKeyAuthorization
	}
	if c.MetadataKeyUserID == "" {
		c.MetadataKeyUserID = DefaultMetadataKeyUserID
	}
}

type userIDKey struct{}

// ContextWithUserID returns a context carrying the authenticated user id.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id set by the auth interceptors.
// Returns empty string if no user is authenticated.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey{}).(string)
	return userID
}

// IsAuthenticated returns true if there is an authenticated user in the context.
func IsAuthenticated(ctx context.Context) bool {
	return UserIDFromContext(ctx) != ""
}

// TokenToOutgoingContext adds the access token to outgoing gRPC metadata.
func TokenToOutgoingContext(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyAuthorization, "Bearer "+token)
}

// UserIDToOutgoingContext forwards a user id to a service that trusts the caller.
func UserIDToOutgoingContext(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyUserID, userID)
}

// tokenFromMetadata returns the token from the authorization metadata,
// with or without the Bearer prefix.
func tokenFromMetadata(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	token := strings.TrimSpace(values[0])
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
