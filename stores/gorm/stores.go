//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	ba "github.com/panyam/blogauth"
)

// AutoMigrate runs database migrations for the users table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

// UserStore implements ba.UserStore using GORM
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*ba.UserRecord, error) {
	var model UserModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", ba.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ba.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToRecord(), nil
}

func (s *UserStore) FindByID(ctx context.Context, id string) (*ba.UserRecord, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ba.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToRecord(), nil
}

func (s *UserStore) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).Where("username = ?", username).Limit(1).Count(&count).Error
	return count > 0, err
}

func (s *UserStore) Insert(ctx context.Context, user *ba.UserRecord) (*ba.UserRecord, error) {
	model := RecordToModel(user)
	model.ID = uuid.NewString()
	if model.JoinedAt.IsZero() {
		model.JoinedAt = time.Now().UTC()
	}
	model.JoinedAt = model.JoinedAt.Truncate(time.Microsecond)

	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if field, ok := s.duplicateField(ctx, err, model); ok {
			value := model.Email
			if field == ba.FieldUsername {
				value = model.Username
			}
			return nil, &ba.DuplicateKeyError{Field: field, Value: value}
		}
		return nil, err
	}
	return model.ToRecord(), nil
}

// duplicateField reports which unique index rejected the insert.
// Postgres names the constraint; other dialects fall back to the error text
// and finally to looking up the email.
func (s *UserStore) duplicateField(ctx context.Context, err error, model *UserModel) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != "23505" {
			return "", false
		}
		if strings.Contains(pgErr.ConstraintName, "username") {
			return ba.FieldUsername, true
		}
		return ba.FieldEmail, true
	}

	msg := strings.ToLower(err.Error())
	duplicate := errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
	if !duplicate {
		return "", false
	}
	switch {
	case strings.Contains(msg, IndexUserUsername), strings.Contains(msg, "users.username"):
		return ba.FieldUsername, true
	case strings.Contains(msg, IndexUserEmail), strings.Contains(msg, "users.email"):
		return ba.FieldEmail, true
	}
	if _, findErr := s.FindByEmail(ctx, model.Email); findErr == nil {
		return ba.FieldEmail, true
	}
	return ba.FieldUsername, true
}
