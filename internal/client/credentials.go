package client

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Credentials is the persisted session state for one server origin.
type Credentials struct {
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// CredentialStore persists one set of credentials. Load on a store holding
// nothing returns zero Credentials and no error; Clear is idempotent.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileStore keeps credentials as a JSON file under the user config dir, one
// file per server origin so sessions against different servers don't collide.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore for the given origin (scheme://host:port).
func NewFileStore(origin string) (*FileStore, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(origin))
	name := hex.EncodeToString(sum[:8]) + ".json"
	return &FileStore{path: filepath.Join(base, "curalink", "credentials", name)}, nil
}

func (s *FileStore) Load() (Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		// A corrupt file is treated as no session.
		return Credentials{}, nil
	}
	return creds, nil
}

func (s *FileStore) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore is an in-process CredentialStore for tests.
type MemStore struct {
	mu    sync.Mutex
	creds Credentials
	set   bool
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Credentials{}, nil
	}
	return s.creds, nil
}

func (s *MemStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.set = true
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	s.set = false
	return nil
}
