//go:build !wasm
// +build !wasm

package gorm

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	oa "github.com/lanternhq/signon"
)

// AutoMigrate runs database migrations for all signon tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&AccountModel{},
		&SessionModel{},
	)
}

// Store implements oa.Store using GORM. Works with any database GORM
// supports; run AutoMigrate once before use.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// =============================================================================
// UserStore
// =============================================================================

func (s *Store) CreateUser(user *oa.User) error {
	if err := s.db.Create(UserToModel(user)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s: %w", user.Email, oa.ErrEmailTaken)
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByID(userID string) (*oa.User, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *Store) GetUserByEmail(email string) (*oa.User, error) {
	var model UserModel
	if err := s.db.First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	return model.ToUser(), nil
}

func (s *Store) SaveUser(user *oa.User) error {
	return s.db.Save(UserToModel(user)).Error
}

// =============================================================================
// AccountStore
// =============================================================================

func (s *Store) SaveAccount(account *oa.Account) error {
	return s.db.Save(AccountToModel(account)).Error
}

func (s *Store) GetAccount(provider, userID string) (*oa.Account, error) {
	var model AccountModel
	err := s.db.First(&model, "provider = ? AND user_id = ?", provider, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}

// =============================================================================
// SessionStore
// =============================================================================

func (s *Store) CreateSession(session *oa.Session) error {
	return s.db.Create(SessionToModel(session)).Error
}

func (s *Store) GetSession(token string) (*oa.Session, error) {
	var model SessionModel
	if err := s.db.First(&model, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	session := model.ToSession()
	if session.IsExpired() {
		s.db.Delete(&SessionModel{}, "token = ?", token)
		return nil, oa.ErrNotFound
	}
	return session, nil
}

func (s *Store) DeleteSession(token string) error {
	return s.db.Delete(&SessionModel{}, "token = ?", token).Error
}

// PurgeExpiredSessions removes every session past its expiry. Run it
// periodically; GetSession already treats expired rows as absent.
func (s *Store) PurgeExpiredSessions() error {
	return s.db.Delete(&SessionModel{}, "expires_at < ?", time.Now()).Error
}
