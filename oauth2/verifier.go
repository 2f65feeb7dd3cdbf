package oauth2

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	ba "github.com/panyam/blogauth"
)

// TokenValidator validates a Google ID token. *idtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// GoogleVerifier implements ba.ProviderVerifier for Google ID tokens.
// An empty Audience accepts tokens minted for any client.
type GoogleVerifier struct {
	Audience  string
	Validator TokenValidator
}

// NewGoogleVerifier creates a verifier backed by Google's published signing keys
func NewGoogleVerifier(ctx context.Context, audience string, opts ...option.ClientOption) (*GoogleVerifier, error) {
	validator, err := idtoken.NewValidator(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating id token validator: %w", err)
	}
	return &GoogleVerifier{Audience: audience, Validator: validator}, nil
}

func (g *GoogleVerifier) Verify(ctx context.Context, token string) (*ba.ProviderIdentity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ba.ErrProviderTokenRejected)
	}
	payload, err := g.Validator.Validate(ctx, token, g.Audience)
	if err != nil {
		if isTransportError(err) {
			return nil, fmt.Errorf("validating google token: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ba.ErrProviderTokenRejected, err)
	}

	identity := &ba.ProviderIdentity{
		Subject:       payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		Picture:       claimString(payload.Claims, "picture"),
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", ba.ErrProviderTokenRejected)
	}
	// Accounts are matched by email, so an unverified address could claim
	// someone else's account
	if _, ok := payload.Claims["email_verified"]; ok && !identity.EmailVerified {
		return nil, fmt.Errorf("%w: email %s is not verified", ba.ErrProviderTokenRejected, identity.Email)
	}
	return identity, nil
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func claimString(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}

func claimBool(claims map[string]any, name string) bool {
	switch v := claims[name].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}
