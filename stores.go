package blogauth

import (
	"context"
	"strings"
	"time"
)

// Unique fields enforced by every UserStore implementation
const (
	FieldEmail    = "email"
	FieldUsername = "username"
)

// UserRecord is a user account as persisted by a UserStore
type UserRecord struct {
	ID           string    `json:"id"`
	Fullname     string    `json:"fullname"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash,omitempty"` // empty for google accounts
	GoogleAuth   bool      `json:"google_auth"`
	ProfileImg   string    `json:"profile_img,omitempty"`
	JoinedAt     time.Time `json:"joined_at"`
}

// UserStore is the persistence gateway used by the identity workflows.
//
// Implementations must enforce uniqueness of Email and Username themselves
// and report violations from Insert as a *DuplicateKeyError. Emails are
// compared after NormalizeEmail.
type UserStore interface {
	// FindByEmail returns ErrUserNotFound when no record has the email
	FindByEmail(ctx context.Context, email string) (*UserRecord, error)

	// FindByID returns ErrUserNotFound when no record has the id
	FindByID(ctx context.Context, id string) (*UserRecord, error)

	// ExistsByUsername reports whether a record already uses the username
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Insert assigns ID (and JoinedAt if unset) and stores the record
	Insert(ctx context.Context, user *UserRecord) (*UserRecord, error)
}

// NormalizeEmail lowercases and trims an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
