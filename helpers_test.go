package blogauth_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	ba "github.com/panyam/blogauth"
	"github.com/panyam/blogauth/stores/fs"
)

const testSecret = "test-secret-access-key"

// faultyStore wraps a UserStore and fails the configured operations
type faultyStore struct {
	ba.UserStore
	findErr   error
	existsErr error
	insertErr error

	mu      sync.Mutex
	inserts int
	// staleFinds makes the next n FindByEmail calls miss, as if the record
	// were written by a concurrent request just after the lookup.
	staleFinds int
}

func (s *faultyStore) FindByEmail(ctx context.Context, email string) (*ba.UserRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	stale := s.staleFinds > 0
	if stale {
		s.staleFinds--
	}
	s.mu.Unlock()
	if stale {
		return nil, ba.ErrUserNotFound
	}
	return s.UserStore.FindByEmail(ctx, email)
}

func (s *faultyStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.UserStore.ExistsByUsername(ctx, username)
}

func (s *faultyStore) Insert(ctx context.Context, user *ba.UserRecord) (*ba.UserRecord, error) {
	s.mu.Lock()
	s.inserts++
	s.mu.Unlock()
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	return s.UserStore.Insert(ctx, user)
}

func (s *faultyStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// fakeVerifier returns a fixed identity (or error) for every token
type fakeVerifier struct {
	identity *ba.ProviderIdentity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*ba.ProviderIdentity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token == "" {
		return nil, ba.ErrProviderTokenRejected
	}
	identity := *f.identity
	return &identity, nil
}

func annGoogle() *ba.ProviderIdentity {
	return &ba.ProviderIdentity{
		Subject:       "google-ann",
		Email:         "ann@gmail.com",
		EmailVerified: true,
		Name:          "Ann Lee",
		Picture:       "https://lh3.googleusercontent.com/a/photo=s96-c",
	}
}

type testEnv struct {
	Dir      string
	Service  *ba.Service
	Store    *faultyStore
	Verifier *fakeVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store := &faultyStore{UserStore: fs.NewFSUserStore(dir)}
	verifier := &fakeVerifier{identity: annGoogle()}
	service := ba.NewService(store, ba.NewTokenIssuer(testSecret, 0), verifier)
	service.Hasher = &ba.BcryptHasher{Cost: bcrypt.MinCost}
	service.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{Dir: dir, Service: service, Store: store, Verifier: verifier}
}
