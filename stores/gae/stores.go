//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	oa "github.com/lanternhq/signon"
)

// Kind constants for Datastore entities
const (
	KindUser    = "SignonUser"
	KindAccount = "SignonAccount"
	KindSession = "SignonSession"
)

// Store implements oa.Store using Google Cloud Datastore. All entities are
// name-keyed (user id, provider:userID, session token), so every read except
// the email lookup is a direct Get.
type Store struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewStore creates a Datastore-backed store. Pass a namespace to isolate
// tenants, or "" for the default namespace.
func NewStore(client *datastore.Client, namespace string) *Store {
	return &Store{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

// WithContext returns a copy of the store with the given context
func (s *Store) WithContext(ctx context.Context) *Store {
	return &Store{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *Store) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(user *oa.User) error {
	if existing, err := s.GetUserByEmail(user.Email); err == nil && existing != nil {
		return fmt.Errorf("%s: %w", user.Email, oa.ErrEmailTaken)
	}
	return s.SaveUser(user)
}

func (s *Store) GetUserByID(userID string) (*oa.User, error) {
	key := s.namespacedKey(KindUser, userID)
	var entity UserEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToUser(), nil
}

func (s *Store) GetUserByEmail(email string) (*oa.User, error) {
	query := datastore.NewQuery(KindUser).
		FilterField("email", "=", email).
		Limit(1)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(s.ctx, query)
	var entity UserEntity
	key, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, oa.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	entity.Key = key
	return entity.ToUser(), nil
}

func (s *Store) SaveUser(user *oa.User) error {
	key := s.namespacedKey(KindUser, user.ID)
	_, err := s.client.Put(s.ctx, key, UserToEntity(user, key))
	return err
}

// ============================================================================
// AccountStore
// ============================================================================

func accountKeyName(provider, userID string) string {
	return provider + ":" + userID
}

func (s *Store) SaveAccount(account *oa.Account) error {
	key := s.namespacedKey(KindAccount, accountKeyName(account.Provider, account.UserID))
	_, err := s.client.Put(s.ctx, key, AccountToEntity(account, key))
	return err
}

func (s *Store) GetAccount(provider, userID string) (*oa.Account, error) {
	key := s.namespacedKey(KindAccount, accountKeyName(provider, userID))
	var entity AccountEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	entity.Key = key
	return entity.ToAccount(), nil
}

// ============================================================================
// SessionStore
// ============================================================================

func (s *Store) CreateSession(session *oa.Session) error {
	key := s.namespacedKey(KindSession, session.Token)
	_, err := s.client.Put(s.ctx, key, SessionToEntity(session, key))
	return err
}

func (s *Store) GetSession(token string) (*oa.Session, error) {
	key := s.namespacedKey(KindSession, token)
	var entity SessionEntity
	if err := s.client.Get(s.ctx, key, &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, oa.ErrNotFound
		}
		return nil, err
	}
	entity.Key = key
	session := entity.ToSession()
	if session.IsExpired() {
		s.client.Delete(s.ctx, key)
		return nil, oa.ErrNotFound
	}
	return session, nil
}

func (s *Store) DeleteSession(token string) error {
	err := s.client.Delete(s.ctx, s.namespacedKey(KindSession, token))
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil
	}
	return err
}

// PurgeExpiredSessions removes sessions past their expiry, returning how
// many were deleted.
func (s *Store) PurgeExpiredSessions(before time.Time) (int, error) {
	query := datastore.NewQuery(KindSession).
		FilterField("expires_at", "<", before).
		KeysOnly()
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var keys []*datastore.Key
	it := s.client.Run(s.ctx, query)
	for {
		key, err := it.Next(nil)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.DeleteMulti(s.ctx, keys); err != nil {
		return 0, err
	}
	return len(keys), nil
}
