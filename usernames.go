package blogauth

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
)

// SuffixLength is the number of characters appended to a taken username
const SuffixLength = 3

const suffixAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"

// SuffixFunc returns the collision suffix appended to a taken username
type SuffixFunc func() (string, error)

// RandomSuffix returns SuffixLength characters from a 64 symbol url-safe
// alphabet using crypto/rand.
func RandomSuffix() (string, error) {
	b := make([]byte, SuffixLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate username suffix: %w", err)
	}
	for i := range b {
		b[i] = suffixAlphabet[b[i]&63]
	}
	return string(b), nil
}

// UsernameAllocator derives usernames from email addresses
type UsernameAllocator struct {
	Store  UserStore
	Suffix SuffixFunc
}

// NewUsernameAllocator creates an allocator using RandomSuffix
func NewUsernameAllocator(store UserStore) *UsernameAllocator {
	return &UsernameAllocator{Store: store, Suffix: RandomSuffix}
}

// Allocate returns the local part of email, with a random suffix appended
// when that name is already taken. The suffixed name is not re-checked; the
// store's unique constraint is the final arbiter.
func (a *UsernameAllocator) Allocate(ctx context.Context, email string) (string, error) {
	username, _, _ := strings.Cut(email, "@")

	exists, err := a.Store.ExistsByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to check username %q: %w", username, err)
	}
	if !exists {
		return username, nil
	}

	suffix := a.Suffix
	if suffix == nil {
		suffix = RandomSuffix
	}
	s, err := suffix()
	if err != nil {
		return "", err
	}
	return username + s, nil
}
