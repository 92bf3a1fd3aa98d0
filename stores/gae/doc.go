//go:build !wasm
// +build !wasm

// Package gae provides a Google Cloud Datastore implementation of the
// signon store interfaces, designed for deployment on Google Cloud Platform
// with multi-tenancy through Datastore namespaces.
//
// # Datastore Kinds
//
// The package uses the following kinds:
//   - SignonUser: user accounts, keyed by user id, with an indexed email
//   - SignonAccount: per-provider sign-in methods, keyed by provider:userID
//   - SignonSession: issued sessions, keyed by token
//
// # Namespacing
//
// Pass a namespace when creating the store to isolate data between tenants:
//
//	store := gae.NewStore(client, "tenant-123")
//
// # Usage
//
//	client, _ := datastore.NewClient(ctx, projectID)
//	svc := signon.New(gae.NewStore(client, ""))
package gae
