package stores

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	oa "github.com/lanternhq/signon"
)

// FSStore keeps users, accounts and sessions as JSON files under a storage
// directory. Suitable for development and small deployments; email
// uniqueness is enforced through an index file per email.
type FSStore struct {
	StoragePath string
}

func NewFSStore(storagePath string) *FSStore {
	return &FSStore{StoragePath: storagePath}
}

func (s *FSStore) userPath(userID string) string {
	return filepath.Join(s.StoragePath, "users", userID+".json")
}

// emailPath names the index file mapping an email to its user id. The email
// is hashed so arbitrary characters never reach the filesystem.
func (s *FSStore) emailPath(email string) string {
	sum := sha256.Sum256([]byte(email))
	return filepath.Join(s.StoragePath, "emails", hex.EncodeToString(sum[:])+".json")
}

func (s *FSStore) accountPath(provider, userID string) string {
	return filepath.Join(s.StoragePath, "accounts", provider+":"+userID+".json")
}

func (s *FSStore) sessionPath(token string) string {
	return filepath.Join(s.StoragePath, "sessions", token+".json")
}

type emailIndexEntry struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

func (s *FSStore) CreateUser(user *oa.User) error {
	indexPath := s.emailPath(user.Email)
	if _, err := os.Stat(indexPath); err == nil {
		return fmt.Errorf("%s: %w", user.Email, oa.ErrEmailTaken)
	}
	if err := writeRecord(indexPath, &emailIndexEntry{Email: user.Email, UserID: user.ID}); err != nil {
		return err
	}
	return writeRecord(s.userPath(user.ID), user)
}

func (s *FSStore) GetUserByID(userID string) (*oa.User, error) {
	var user oa.User
	if err := readRecord(s.userPath(userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FSStore) GetUserByEmail(email string) (*oa.User, error) {
	var entry emailIndexEntry
	if err := readRecord(s.emailPath(email), &entry); err != nil {
		return nil, err
	}
	return s.GetUserByID(entry.UserID)
}

func (s *FSStore) SaveUser(user *oa.User) error {
	if err := writeRecord(s.emailPath(user.Email), &emailIndexEntry{Email: user.Email, UserID: user.ID}); err != nil {
		return err
	}
	return writeRecord(s.userPath(user.ID), user)
}

// fsAccount adds the password hash to the serialized form; the public JSON
// tags on oa.Account deliberately drop it from API bodies.
type fsAccount struct {
	oa.Account
	PasswordHash string `json:"password_hash,omitempty"`
}

func (s *FSStore) SaveAccount(account *oa.Account) error {
	record := fsAccount{Account: *account, PasswordHash: account.PasswordHash}
	return writeRecord(s.accountPath(account.Provider, account.UserID), &record)
}

func (s *FSStore) GetAccount(provider, userID string) (*oa.Account, error) {
	var record fsAccount
	if err := readRecord(s.accountPath(provider, userID), &record); err != nil {
		return nil, err
	}
	account := record.Account
	account.PasswordHash = record.PasswordHash
	return &account, nil
}

func (s *FSStore) CreateSession(session *oa.Session) error {
	return writeRecord(s.sessionPath(session.Token), session)
}

func (s *FSStore) GetSession(token string) (*oa.Session, error) {
	var session oa.Session
	if err := readRecord(s.sessionPath(token), &session); err != nil {
		return nil, err
	}
	if session.IsExpired() {
		// Expired records are lazily reaped on read
		os.Remove(s.sessionPath(token))
		return nil, oa.ErrNotFound
	}
	return &session, nil
}

func (s *FSStore) DeleteSession(token string) error {
	if err := os.Remove(s.sessionPath(token)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func readRecord(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return oa.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, out)
}

func writeRecord(path string, record any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

// writeAtomicFile writes data to a file atomically by writing to a temp file first
func writeAtomicFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
