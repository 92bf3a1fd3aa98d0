// Package fs provides a file-backed credential store for the signon client,
// holding one JSON file of per-server credentials with user-only
// permissions.
package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/lanternhq/signon/client"
)

// DefaultFileName is the credential file created under the config directory.
const DefaultFileName = "credentials.json"

// FSCredentialStore stores server credentials in a single JSON file. Writes
// are batched in memory until Save, then flushed atomically with 0600
// permissions.
type FSCredentialStore struct {
	mu    sync.Mutex
	path  string
	creds map[string]*client.ServerCredential
	dirty bool
}

// NewFSCredentialStore opens (or lazily creates) the credential file at
// path. A missing file is an empty store, not an error.
func NewFSCredentialStore(path string) (*FSCredentialStore, error) {
	s := &FSCredentialStore{
		path:  path,
		creds: make(map[string]*client.ServerCredential),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &s.creds); err != nil {
		return nil, fmt.Errorf("corrupt credential file %s: %w", path, err)
	}
	return s, nil
}

// DefaultPath returns the conventional credential file location,
// $HOME/.config/signon/credentials.json.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "signon", DefaultFileName), nil
}

func (s *FSCredentialStore) GetCredential(serverURL string) (*client.ServerCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[serverURL]
	if !ok {
		return nil, nil
	}
	// Copy so callers cannot mutate the stored record
	out := *cred
	return &out, nil
}

func (s *FSCredentialStore) SetCredential(serverURL string, cred *client.ServerCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *cred
	s.creds[serverURL] = &copied
	s.dirty = true
	return nil
}

func (s *FSCredentialStore) RemoveCredential(serverURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, serverURL)
	s.dirty = true
	return nil
}

func (s *FSCredentialStore) ListServers() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	servers := make([]string, 0, len(s.creds))
	for serverURL := range s.creds {
		servers = append(servers, serverURL)
	}
	sort.Strings(servers)
	return servers, nil
}

// Save flushes pending changes to disk atomically.
func (s *FSCredentialStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace credentials: %w", err)
	}

	s.dirty = false
	return nil
}
