//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"

	ba "github.com/panyam/blogauth"
)

// Kind constants for Datastore entities
const (
	KindUser      = "User"
	KindUserEmail = "UserEmail"
	KindUsername  = "Username"
)

// UserStore implements ba.UserStore using Google Cloud Datastore
type UserStore struct {
	client    *datastore.Client
	namespace string
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *UserStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*ba.UserRecord, error) {
	email = ba.NormalizeEmail(email)
	if email == "" {
		return nil, ba.ErrUserNotFound
	}
	var reservation ReservationEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindUserEmail, email), &reservation); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ba.ErrUserNotFound
		}
		return nil, err
	}
	return s.FindByID(ctx, reservation.UserID)
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*ba.UserRecord, error) {
	if id == "" {
		return nil, ba.ErrUserNotFound
	}
	var entity UserEntity
	if err := s.client.Get(ctx, s.namespacedKey(KindUser, id), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ba.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToRecord(), nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}
	var reservation ReservationEntity
	err := s.client.Get(ctx, s.namespacedKey(KindUsername, username), &reservation)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return false, nil
	}
	return false, err
}

func (s *UserStore) Insert(ctx context.Context, user *ba.UserRecord) (*ba.UserRecord, error) {
	if user.Email == "" || user.Username == "" {
		return nil, fmt.Errorf("email and username are required")
	}
	id := uuid.NewString()
	userKey := s.namespacedKey(KindUser, id)
	entity := RecordToEntity(user, userKey)
	if entity.JoinedAt.IsZero() {
		entity.JoinedAt = time.Now().UTC()
	}
	// Datastore stores microseconds
	entity.JoinedAt = entity.JoinedAt.Truncate(time.Microsecond)

	emailKey := s.namespacedKey(KindUserEmail, entity.Email)
	usernameKey := s.namespacedKey(KindUsername, entity.Username)

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if err := reservationFree(tx, emailKey); err != nil {
			if errors.Is(err, errTaken) {
				return &ba.DuplicateKeyError{Field: ba.FieldEmail, Value: entity.Email}
			}
			return err
		}
		if err := reservationFree(tx, usernameKey); err != nil {
			if errors.Is(err, errTaken) {
				return &ba.DuplicateKeyError{Field: ba.FieldUsername, Value: entity.Username}
			}
			return err
		}

		now := time.Now()
		_, err := tx.PutMulti(
			[]*datastore.Key{userKey, emailKey, usernameKey},
			[]any{
				entity,
				&ReservationEntity{Key: emailKey, UserID: id, CreatedAt: now},
				&ReservationEntity{Key: usernameKey, UserID: id, CreatedAt: now},
			},
		)
		return err
	}, datastore.MaxAttempts(txAttempts))
	if err != nil {
		return nil, err
	}
	return entity.ToRecord(), nil
}

// Concurrent signups for one email contend on the same reservation key
const txAttempts = 10

var errTaken = errors.New("reservation taken")

func reservationFree(tx *datastore.Transaction, key *datastore.Key) error {
	var existing ReservationEntity
	err := tx.Get(key, &existing)
	if err == nil {
		return errTaken
	}
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil
	}
	return err
}
