package blogauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used for new password hashes
const DefaultBcryptCost = 10

// Hasher hashes and verifies passwords.
//
// Compare returns (false, nil) for a wrong password. A non-nil error means
// the comparison itself could not be performed.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Compare(ctx context.Context, digest, password string) (bool, error)
}

// BcryptHasher implements Hasher with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using DefaultBcryptCost
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{Cost: DefaultBcryptCost}
}

func (h *BcryptHasher) cost() int {
	if h.Cost == 0 {
		return DefaultBcryptCost
	}
	return h.Cost
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Compare(ctx context.Context, digest, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to compare password: %w", err)
}
