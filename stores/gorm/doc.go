//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-based implementation of the signon store
// interfaces. It supports any database that GORM supports (PostgreSQL,
// MySQL, SQLite, etc.) and is suitable for production deployments requiring
// relational storage.
//
// # Database Schema
//
// The package auto-migrates the following tables:
//   - users: accounts with a unique email index
//   - accounts: per-provider sign-in methods, composite key (provider, user_id)
//   - sessions: issued sessions keyed by token, indexed by expiry
//
// # Usage
//
//	db, _ := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	gormstore.AutoMigrate(db)
//	svc := signon.New(gormstore.NewStore(db))
//
// TranslateError lets duplicate-email inserts surface as
// signon.ErrEmailTaken on drivers that report unique violations.
package gorm
