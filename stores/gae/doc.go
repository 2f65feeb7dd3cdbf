//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of
// blogauth.UserStore. It supports multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
//   - User: the user record, keyed by a generated id
//   - UserEmail: reservation of a normalized email, keyed by the email
//   - Username: reservation of a username, keyed by the username
//
// Datastore has no secondary unique indexes, so uniqueness comes from the
// reservation entities: Insert writes the user and both reservations in one
// transaction and fails if either reservation already exists.
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	userStore := gae.NewUserStore(client, "")  // default namespace
package gae
