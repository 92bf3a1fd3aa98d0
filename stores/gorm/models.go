//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	oa "github.com/lanternhq/signon"
)

// UserModel is the GORM model for users
type UserModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Email     string    `gorm:"uniqueIndex;size:255"`
	Name      string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *oa.User {
	return &oa.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func UserToModel(u *oa.User) *UserModel {
	return &UserModel{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// AccountModel is the GORM model for per-provider accounts
type AccountModel struct {
	Provider     string    `gorm:"primaryKey;size:32"`
	UserID       string    `gorm:"primaryKey;size:64"`
	Subject      string    `gorm:"size:255;index"`
	PasswordHash string    `gorm:"size:255"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *oa.Account {
	return &oa.Account{
		Provider:     m.Provider,
		UserID:       m.UserID,
		Subject:      m.Subject,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func AccountToModel(a *oa.Account) *AccountModel {
	return &AccountModel{
		Provider:     a.Provider,
		UserID:       a.UserID,
		Subject:      a.Subject,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// SessionModel is the GORM model for sessions
type SessionModel struct {
	Token     string    `gorm:"primaryKey;size:64"`
	UserID    string    `gorm:"size:64;index"`
	IPAddress string    `gorm:"size:64"`
	UserAgent string    `gorm:"size:512"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"index"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

func (m *SessionModel) ToSession() *oa.Session {
	return &oa.Session{
		Token:     m.Token,
		UserID:    m.UserID,
		IPAddress: m.IPAddress,
		UserAgent: m.UserAgent,
		CreatedAt: m.CreatedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

func SessionToModel(s *oa.Session) *SessionModel {
	return &SessionModel{
		Token:     s.Token,
		UserID:    s.UserID,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}
