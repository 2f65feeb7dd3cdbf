package blogauth

import (
	"context"
	"net/http"
	"time"
)

// Signup validates req, creates a password account and issues a token.
//
// Steps run strictly in order (validate, hash, allocate username, insert,
// issue) and the first failure ends the request. Insert is the only write,
// so a failed signup leaves nothing behind.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := ValidateSignup(req); err != nil {
		return nil, err
	}

	digest, err := s.Hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to create account", err)
	}

	username, err := s.allocateUsername(ctx, req.Email)
	if err != nil {
		return nil, s.infraError(ctx, ErrCodeInternal, "Failed to create account", err)
	}

	user, err := s.insert(ctx, &UserRecord{
		Fullname:     req.Fullname,
		Email:        req.Email,
		Username:     username,
		PasswordHash: digest,
		JoinedAt:     time.Now().UTC(),
	})
	if err != nil {
		return nil, s.insertError(ctx, err)
	}

	s.logger().InfoContext(ctx, "created password account", "user_id", user.ID, "username", user.Username)
	return s.issue(ctx, user)
}

func (s *Service) insertError(ctx context.Context, err error) *AuthError {
	if field, ok := IsDuplicateKey(err); ok {
		if field == FieldUsername {
			return NewAuthError(KindConflict, ErrCodeUsernameTaken, "Username already taken, please try again", "username").WithCause(err)
		}
		return NewAuthError(KindConflict, ErrCodeEmailExists, "Email already exists", "email").WithCause(err)
	}
	return s.infraError(ctx, ErrCodeInternal, "Failed to create account", err)
}

// HandleSignup serves POST /signup
func (a *BlogAuth) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !a.decodeBody(w, r, &req) {
		return
	}
	resp, err := a.Service.Signup(r.Context(), req)
	a.respond(w, r, resp, err)
}
