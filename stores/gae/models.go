//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"
	ba "github.com/panyam/blogauth"
)

// UserEntity is the Datastore entity for users
type UserEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Fullname     string         `datastore:"fullname,noindex"`
	Email        string         `datastore:"email"`
	Username     string         `datastore:"username"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	GoogleAuth   bool           `datastore:"google_auth"`
	ProfileImg   string         `datastore:"profile_img,noindex"`
	JoinedAt     time.Time      `datastore:"joined_at"`
}

func (e *UserEntity) ToRecord() *ba.UserRecord {
	return &ba.UserRecord{
		ID:           e.Key.Name,
		Fullname:     e.Fullname,
		Email:        e.Email,
		Username:     e.Username,
		PasswordHash: e.PasswordHash,
		GoogleAuth:   e.GoogleAuth,
		ProfileImg:   e.ProfileImg,
		JoinedAt:     e.JoinedAt,
	}
}

func RecordToEntity(u *ba.UserRecord, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:          key,
		Fullname:     u.Fullname,
		Email:        ba.NormalizeEmail(u.Email),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		GoogleAuth:   u.GoogleAuth,
		ProfileImg:   u.ProfileImg,
		JoinedAt:     u.JoinedAt,
	}
}

// ReservationEntity claims a unique value (email or username) for a user.
// Key name is the value itself.
type ReservationEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	CreatedAt time.Time      `datastore:"created_at,noindex"`
}
