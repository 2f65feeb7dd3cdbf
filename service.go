package blogauth

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ProviderIdentity is what a federated provider asserts about a user
type ProviderIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// ErrProviderTokenRejected is wrapped by ProviderVerifier implementations
// when the token itself is invalid (bad signature, audience, expiry, claims).
// Any other error is treated as a transport or infrastructure failure.
var ErrProviderTokenRejected = errors.New("provider token rejected")

// ProviderVerifier verifies a token issued by a federated identity provider
type ProviderVerifier interface {
	Verify(ctx context.Context, token string) (*ProviderIdentity, error)
}

// Service runs the signup, password signin and federated signin workflows.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	Store     UserStore
	Hasher    Hasher
	Usernames *UsernameAllocator
	Tokens    *TokenIssuer

	// Verifier is required only for GoogleSignin
	Verifier ProviderVerifier

	// StepTimeout bounds each store and verifier call. Zero means no deadline
	// beyond the request context.
	StepTimeout time.Duration

	Logger *slog.Logger
}

// NewService creates a Service with a bcrypt hasher and a random-suffix
// username allocator over store.
func NewService(store UserStore, tokens *TokenIssuer, verifier ProviderVerifier) *Service {
	return (&Service{
		Store:    store,
		Tokens:   tokens,
		Verifier: verifier,
	}).EnsureDefaults()
}

// EnsureDefaults fills in the hasher, allocator and logger when unset
func (s *Service) EnsureDefaults() *Service {
	if s.Hasher == nil {
		s.Hasher = NewBcryptHasher()
	}
	if s.Usernames == nil {
		s.Usernames = NewUsernameAllocator(s.Store)
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return s
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Service) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.StepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.StepTimeout)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*UserRecord, error) {
	ctx, cancel := s.stepContext(ctx)
	defer cancel()
	return s.Store.FindByEmail(ctx, email)
}

func (s *Service) allocateUsername(ctx context.Context, email string) (string, error) {
	ctx, cancel := s.stepContext(ctx)
	defer cancel()
	return s.Usernames.Allocate(ctx, email)
}

func (s *Service) insert(ctx context.Context, user *UserRecord) (*UserRecord, error) {
	ctx, cancel := s.stepContext(ctx)
	defer cancel()
	return s.Store.Insert(ctx, user)
}

func (s *Service) issue(ctx context.Context, user *UserRecord) (*AuthResponse, error) {
	resp, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to issue access token", err)
	}
	return resp, nil
}

// infraError logs cause and returns an infrastructure AuthError carrying
// only the public message.
func (s *Service) infraError(ctx context.Context, code, message string, cause error) *AuthError {
	s.logger().ErrorContext(ctx, message, "code", code, "error", cause)
	return NewAuthError(KindInfrastructure, code, message, "").WithCause(cause)
}

// Profile returns the stored record for an authenticated user id
func (s *Service) Profile(ctx context.Context, userID string) (*UserRecord, error) {
	ctx, cancel := s.stepContext(ctx)
	defer cancel()
	user, err := s.Store.FindByID(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, authenticationError(ErrCodeUnauthorized, "User not found", "")
	}
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to load user", err)
	}
	return user, nil
}
