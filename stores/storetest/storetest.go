// Package storetest holds the behavior every blogauth.UserStore backend
// must share. Backend packages call RunUserStoreTests from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ba "github.com/panyam/blogauth"
)

// NewStoreFunc returns an empty store for a single subtest
type NewStoreFunc func(t *testing.T) ba.UserStore

// RunUserStoreTests exercises lookup, insert and uniqueness on stores
// produced by newStore.
func RunUserStoreTests(t *testing.T, newStore NewStoreFunc) {
	t.Run("InsertAssignsID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		user, err := store.Insert(ctx, &ba.UserRecord{
			Fullname:     "Ann Lee",
			Email:        "ann@example.com",
			Username:     "ann",
			PasswordHash: "digest",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, user.ID)
		assert.False(t, user.JoinedAt.IsZero())
		assert.Equal(t, "ann", user.Username)
	})

	t.Run("FindByEmail", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		inserted, err := store.Insert(ctx, &ba.UserRecord{
			Fullname:   "Bob Stone",
			Email:      "Bob@Example.com",
			Username:   "Bob",
			GoogleAuth: true,
			ProfileImg: "https://example.com/bob.png",
			JoinedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)

		found, err := store.FindByEmail(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, found.ID)
		assert.Equal(t, "bob@example.com", found.Email)
		assert.Equal(t, "Bob Stone", found.Fullname)
		assert.True(t, found.GoogleAuth)
		assert.Empty(t, found.PasswordHash)
		assert.Equal(t, "https://example.com/bob.png", found.ProfileImg)
		assert.True(t, found.JoinedAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))

		found, err = store.FindByEmail(ctx, "BOB@example.com")
		require.NoError(t, err)
		assert.Equal(t, inserted.ID, found.ID)
	})

	t.Run("FindByEmailMiss", func(t *testing.T) {
		store := newStore(t)
		_, err := store.FindByEmail(context.Background(), "nobody@example.com")
		assert.True(t, errors.Is(err, ba.ErrUserNotFound), "got %v", err)
	})

	t.Run("FindByID", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		inserted, err := store.Insert(ctx, &ba.UserRecord{
			Fullname: "Cara Dune", Email: "cara@example.com", Username: "cara", PasswordHash: "digest",
		})
		require.NoError(t, err)

		found, err := store.FindByID(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, "cara@example.com", found.Email)
		assert.Equal(t, "digest", found.PasswordHash)

		_, err = store.FindByID(ctx, "does-not-exist")
		assert.True(t, errors.Is(err, ba.ErrUserNotFound), "got %v", err)
	})

	t.Run("ExistsByUsername", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		exists, err := store.ExistsByUsername(ctx, "dan")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.Insert(ctx, &ba.UserRecord{
			Fullname: "Dan Ray", Email: "dan@example.com", Username: "dan", PasswordHash: "digest",
		})
		require.NoError(t, err)

		exists, err = store.ExistsByUsername(ctx, "dan")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, &ba.UserRecord{
			Fullname: "Eve One", Email: "eve@example.com", Username: "eve", PasswordHash: "digest",
		})
		require.NoError(t, err)

		_, err = store.Insert(ctx, &ba.UserRecord{
			Fullname: "Eve Two", Email: "EVE@example.com", Username: "eve2", PasswordHash: "digest",
		})
		field, ok := ba.IsDuplicateKey(err)
		require.True(t, ok, "expected duplicate key error, got %v", err)
		assert.Equal(t, ba.FieldEmail, field)

		// the rejected username must remain free
		exists, err := store.ExistsByUsername(ctx, "eve2")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.Insert(ctx, &ba.UserRecord{
			Fullname: "Finn One", Email: "finn@example.com", Username: "finn", PasswordHash: "digest",
		})
		require.NoError(t, err)

		_, err = store.Insert(ctx, &ba.UserRecord{
			Fullname: "Finn Two", Email: "finn@other.org", Username: "finn", PasswordHash: "digest",
		})
		field, ok := ba.IsDuplicateKey(err)
		require.True(t, ok, "expected duplicate key error, got %v", err)
		assert.Equal(t, ba.FieldUsername, field)

		// the rejected email must remain free
		_, err = store.FindByEmail(ctx, "finn@other.org")
		assert.True(t, errors.Is(err, ba.ErrUserNotFound), "got %v", err)
	})

	t.Run("ConcurrentDuplicateEmail", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		errs := make([]error, workers)
		for i := range workers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = store.Insert(ctx, &ba.UserRecord{
					Fullname:     "Gil Race",
					Email:        "gil@example.com",
					Username:     "gil" + string(rune('a'+i)),
					PasswordHash: "digest",
				})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			field, ok := ba.IsDuplicateKey(err)
			assert.True(t, ok, "unexpected error %v", err)
			assert.Equal(t, ba.FieldEmail, field)
		}
		assert.Equal(t, 1, succeeded)
	})
}
