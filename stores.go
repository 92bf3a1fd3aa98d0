package signon

import "time"

// ProviderCredential is the provider id of password-backed accounts.
const ProviderCredential = "credential"

// User is an authenticated principal. Email lookups are case-sensitive at
// this layer; normalization (lowercasing on write) is a storage-adapter
// concern.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Account links a user to one sign-in method. Credential accounts carry an
// argon2id digest in PasswordHash; delegated accounts carry the provider's
// subject id instead. An account with an empty PasswordHash is a valid state
// (the user signs in through another provider) and must fail credential
// authentication rather than crash it.
type Account struct {
	Provider     string    `json:"provider"`
	UserID       string    `json:"userId"`
	Subject      string    `json:"subject,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStore manages user records
type UserStore interface {
	// CreateUser persists a new user. A duplicate email is an error
	// wrapping ErrEmailTaken.
	CreateUser(user *User) error

	// GetUserByID retrieves a user by id. Absence is ErrNotFound.
	GetUserByID(id string) (*User, error)

	// GetUserByEmail retrieves a user by exact email. Absence is ErrNotFound.
	GetUserByEmail(email string) (*User, error)

	// SaveUser creates or updates a user (upsert)
	SaveUser(user *User) error
}

// AccountStore manages per-provider accounts
type AccountStore interface {
	// SaveAccount creates or updates an account (upsert)
	SaveAccount(account *Account) error

	// GetAccount retrieves the account a provider holds for a user.
	// Absence is ErrNotFound.
	GetAccount(provider, userID string) (*Account, error)
}

// SessionStore manages session records
type SessionStore interface {
	// CreateSession persists a fully built session record
	CreateSession(session *Session) error

	// GetSession retrieves a live session by token. Expired or unknown
	// sessions are ErrNotFound.
	GetSession(token string) (*Session, error)

	// DeleteSession removes a session. Deleting an absent session is not
	// an error.
	DeleteSession(token string) error
}

// Store combines the store interfaces the service needs.
type Store interface {
	UserStore
	AccountStore
	SessionStore
}
