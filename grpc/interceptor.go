package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TokenVerifier resolves an access token to a user id.
// *blogauth.TokenIssuer satisfies it.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// InterceptorConfig configures the auth interceptor behavior.
type InterceptorConfig struct {
	// Config holds the metadata key configuration.
	*Config

	// Verifier checks access tokens. Required.
	Verifier TokenVerifier

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of method names that don't require auth.
	// Only used when RequireAuth is true.
	// Keys should be full method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// DefaultInterceptorConfig returns a config that requires auth for all methods.
func DefaultInterceptorConfig(verifier TokenVerifier) *InterceptorConfig {
	return &InterceptorConfig{
		Config:        DefaultConfig(),
		Verifier:      verifier,
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
	}
}

// NewPublicMethodsConfig creates a config with the specified public methods.
func NewPublicMethodsConfig(verifier TokenVerifier, publicMethods ...string) *InterceptorConfig {
	config := DefaultInterceptorConfig(verifier)
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

// OptionalAuthConfig returns a config that allows unauthenticated requests.
func OptionalAuthConfig(verifier TokenVerifier) *InterceptorConfig {
	config := DefaultInterceptorConfig(verifier)
	config.RequireAuth = false
	return config
}

func (config *InterceptorConfig) ensureDefaults() *InterceptorConfig {
	if config == nil {
		config = DefaultInterceptorConfig(nil)
	}
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	config.Config.EnsureDefaults()
	if config.PublicMethods == nil {
		config.PublicMethods = make(map[string]bool)
	}
	return config
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// access token and stores the user id in the handler's context.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config = config.ensureDefaults()

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, config, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamAuthInterceptor returns a gRPC stream interceptor that verifies the
// access token and stores the user id in the stream's context.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config = config.ensureDefaults()

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx, err := authenticate(ss.Context(), config, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &authStream{ServerStream: ss, ctx: ctx})
	}
}

type authStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authStream) Context() context.Context {
	return s.ctx
}

func authenticate(ctx context.Context, config *InterceptorConfig, method string) (context.Context, error) {
	userID, err := extractUserID(ctx, config)
	if err != nil {
		return nil, err
	}
	if userID == "" && config.RequireAuth && !config.PublicMethods[method] {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	if userID != "" {
		ctx = ContextWithUserID(ctx, userID)
	}
	return ctx, nil
}

// extractUserID resolves the caller from the request metadata. A token that
// is present but invalid is rejected even on public methods.
func extractUserID(ctx context.Context, config *InterceptorConfig) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", nil
	}

	if token := tokenFromMetadata(md, config.Config.MetadataKeyAuthorization); token != "" {
		if config.Verifier == nil {
			return "", status.Error(codes.Internal, "no token verifier configured")
		}
		userID, err := config.Verifier.Verify(token)
		if err != nil {
			return "", status.Error(codes.Unauthenticated, "invalid access token")
		}
		return userID, nil
	}

	if config.Config.TrustForwardedUserID {
		if values := md.Get(config.Config.MetadataKeyUserID); len(values) > 0 {
			return values[0], nil
		}
	}
	return "", nil
}
