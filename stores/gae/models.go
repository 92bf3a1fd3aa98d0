//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	oa "github.com/lanternhq/signon"
)

// UserEntity is the Datastore entity for users.
// Key: user id.
type UserEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	Name      string         `datastore:"name,noindex"`
	CreatedAt time.Time      `datastore:"created_at"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *oa.User {
	return &oa.User{
		ID:        e.Key.Name,
		Email:     e.Email,
		Name:      e.Name,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func UserToEntity(u *oa.User, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:       key,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AccountEntity is the Datastore entity for per-provider accounts.
// Key format: Provider + ":" + UserID
type AccountEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	Provider     string         `datastore:"provider"`
	UserID       string         `datastore:"user_id"`
	Subject      string         `datastore:"subject"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *AccountEntity) ToAccount() *oa.Account {
	return &oa.Account{
		Provider:     e.Provider,
		UserID:       e.UserID,
		Subject:      e.Subject,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func AccountToEntity(a *oa.Account, key *datastore.Key) *AccountEntity {
	return &AccountEntity{
		Key:          key,
		Provider:     a.Provider,
		UserID:       a.UserID,
		Subject:      a.Subject,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// SessionEntity is the Datastore entity for sessions.
// Key: session token.
type SessionEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	UserID    string         `datastore:"user_id"`
	IPAddress string         `datastore:"ip_address,noindex"`
	UserAgent string         `datastore:"user_agent,noindex"`
	CreatedAt time.Time      `datastore:"created_at"`
	ExpiresAt time.Time      `datastore:"expires_at"`
}

func (e *SessionEntity) ToSession() *oa.Session {
	return &oa.Session{
		Token:     e.Key.Name,
		UserID:    e.UserID,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	}
}

func SessionToEntity(s *oa.Session, key *datastore.Key) *SessionEntity {
	return &SessionEntity{
		Key:       key,
		UserID:    s.UserID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
