package stores

import (
	"encoding/json"
	"time"

	"github.com/alexedwards/scs/v2/memstore"

	oa "github.com/lanternhq/signon"
)

// MemorySessionStore keeps sessions in process memory with TTL eviction.
// Records are committed with their expiry and reaped by the memstore
// janitor, so an expired session disappears without any sweep of our own.
// Pair it with a durable user/account store when sessions may be lost on
// restart.
type MemorySessionStore struct {
	store *memstore.MemStore
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{store: memstore.New()}
}

// NewMemorySessionStoreWithCleanupInterval controls how often expired
// sessions are reaped.
func NewMemorySessionStoreWithCleanupInterval(interval time.Duration) *MemorySessionStore {
	return &MemorySessionStore{store: memstore.NewWithCleanupInterval(interval)}
}

func (s *MemorySessionStore) CreateSession(session *oa.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.store.Commit(session.Token, data, session.ExpiresAt)
}

func (s *MemorySessionStore) GetSession(token string) (*oa.Session, error) {
	data, found, err := s.store.Find(token)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, oa.ErrNotFound
	}
	var session oa.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	if session.IsExpired() {
		return nil, oa.ErrNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) DeleteSession(token string) error {
	return s.store.Delete(token)
}
