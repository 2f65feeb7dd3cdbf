package blogauth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
)

// Google serves 96px avatars by default; clients display them larger
const (
	googlePictureSize      = "s96-c"
	googlePictureLargeSize = "s384-c"
)

// Returned when a google signin hits an existing password account
const msgPasswordAccount = "This email is linked with google , login with password to access"

// NormalizePicture swaps the first Google avatar size marker for the
// larger variant. Other URLs are returned unchanged.
func NormalizePicture(picture string) string {
	return strings.Replace(picture, googlePictureSize, googlePictureLargeSize, 1)
}

// GoogleSignin signs in (or signs up) the owner of a Google ID token.
//
// An existing password account with the same email is never taken over.
// An existing Google account is reused without refreshing its profile.
func (s *Service) GoogleSignin(ctx context.Context, providerToken string) (*AuthResponse, error) {
	if s.Verifier == nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Google sign-in is not configured", errors.New("no provider verifier"))
	}

	identity, err := s.verify(ctx, providerToken)
	if err != nil {
		if errors.Is(err, ErrProviderTokenRejected) {
			s.logger().DebugContext(ctx, "google token rejected", "error", err)
			return nil, authenticationError(ErrCodeGoogleAuthFailed, "Failed to authenticate with google", "access_token").WithCause(err)
		}
		return nil, s.infraError(ctx, ErrCodeGoogleAuthFailed, "Failed to authenticate with google", err)
	}

	user, err := s.findByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		return s.reuseGoogleAccount(ctx, user)
	case errors.Is(err, ErrUserNotFound):
		user, err = s.createGoogleAccount(ctx, identity)
		if err != nil {
			return nil, err
		}
		return s.issue(ctx, user)
	default:
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to look up account", err)
	}
}

func (s *Service) verify(ctx context.Context, token string) (*ProviderIdentity, error) {
	ctx, cancel := s.stepContext(ctx)
	defer cancel()
	return s.Verifier.Verify(ctx, token)
}

func (s *Service) reuseGoogleAccount(ctx context.Context, user *UserRecord) (*AuthResponse, error) {
	if !user.GoogleAuth {
		return nil, authenticationError(ErrCodePasswordAccount, msgPasswordAccount, "email")
	}
	return s.issue(ctx, user)
}

func (s *Service) createGoogleAccount(ctx context.Context, identity *ProviderIdentity) (*UserRecord, error) {
	username, err := s.allocateUsername(ctx, identity.Email)
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to create account", err)
	}

	user, err := s.insert(ctx, &UserRecord{
		Fullname:   identity.Name,
		Email:      identity.Email,
		Username:   username,
		GoogleAuth: true,
		ProfileImg: NormalizePicture(identity.Picture),
		JoinedAt:   time.Now().UTC(),
	})
	if err == nil {
		s.logger().InfoContext(ctx, "created google account", "user_id", user.ID, "username", user.Username)
		return user, nil
	}

	// A concurrent first signin for the same email may have won the insert
	if field, ok := IsDuplicateKey(err); ok && field == FieldEmail {
		existing, findErr := s.findByEmail(ctx, identity.Email)
		if findErr != nil {
			return nil, s.infraError(ctx, ErrCodeInternal, "Failed to look up account", findErr)
		}
		if !existing.GoogleAuth {
			return nil, authenticationError(ErrCodePasswordAccount, msgPasswordAccount, "email")
		}
		return existing, nil
	}
	return nil, s.insertError(ctx, err)
}

// HandleGoogleAuth serves POST /google-auth
func (a *BlogAuth) HandleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	resp, err := a.Service.GoogleSignin(r.Context(), req.AccessToken)
	a.respond(w, r, resp, err)
}

// HandleGoogleIDToken runs GoogleSignin for an ID token obtained by the
// server side redirect flow and writes the same response as /google-auth.
func (a *BlogAuth) HandleGoogleIDToken(idToken string, w http.ResponseWriter, r *http.Request) {
	resp, err := a.Service.GoogleSignin(r.Context(), idToken)
	a.respond(w, r, resp, err)
}
