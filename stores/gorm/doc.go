//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-based implementation of blogauth.UserStore.
// It supports any database that GORM supports (PostgreSQL, MySQL, SQLite, etc.)
// and is suitable for deployments requiring relational database storage.
//
// # Database Schema
//
// The package auto-migrates a single table:
//   - users: user accounts with unique indexes on email and username
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	gormstore.AutoMigrate(db)
//	userStore := gormstore.NewUserStore(db)
package gorm
