package blogauth

import (
	"context"
	"errors"
	"net/http"
)

// Signin authenticates a password account by email.
//
// Accounts created through Google are rejected before any password
// comparison: they have no hash to compare against.
func (s *Service) Signin(ctx context.Context, email, password string) (*AuthResponse, error) {
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, authenticationError(ErrCodeEmailNotFound, "Email not found", "email")
	}
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to look up account", err)
	}

	if user.GoogleAuth {
		return nil, authenticationError(ErrCodeGoogleAccount, "This mail used in google auth use another", "email")
	}

	ok, err := s.Hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeLoginFailed, "Error occurred while logging in ! try again", err)
	}
	if !ok {
		return nil, authenticationError(ErrCodeIncorrectPassword, "Incorrect Password", "password")
	}

	return s.issue(ctx, user)
}

// HandleSignin serves POST /signin
func (a *BlogAuth) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	resp, err := a.Service.Signin(r.Context(), req.Email, req.Password)
	a.respond(w, r, resp, err)
}
