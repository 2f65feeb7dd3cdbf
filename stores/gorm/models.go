//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	ba "github.com/panyam/blogauth"
)

// Unique index names, matched against driver errors on insert
const (
	IndexUserEmail    = "idx_users_email"
	IndexUserUsername = "idx_users_username"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID           string    `gorm:"primaryKey;size:64"`
	Fullname     string    `gorm:"size:255;not null"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:idx_users_username"`
	PasswordHash string    `gorm:"size:255"`
	GoogleAuth   bool      `gorm:"not null;default:false"`
	ProfileImg   string    `gorm:"size:1024"`
	JoinedAt     time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToRecord() *ba.UserRecord {
	return &ba.UserRecord{
		ID:           m.ID,
		Fullname:     m.Fullname,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		GoogleAuth:   m.GoogleAuth,
		ProfileImg:   m.ProfileImg,
		JoinedAt:     m.JoinedAt,
	}
}

func RecordToModel(u *ba.UserRecord) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Fullname:     u.Fullname,
		Email:        ba.NormalizeEmail(u.Email),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		GoogleAuth:   u.GoogleAuth,
		ProfileImg:   u.ProfileImg,
		JoinedAt:     u.JoinedAt,
	}
}
