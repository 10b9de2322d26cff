package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"city-tours/internal/models"

	"gopkg.in/yaml.v3"
)

// StoredSession is the credential kept between runs
type StoredSession struct {
	AccessToken string           `yaml:"access_token"`
	ExpiresAt   time.Time        `yaml:"expires_at"`
	User        *models.AuthUser `yaml:"user,omitempty"`
}

// SessionStore persists the current credential. Load returns nil when nothing is stored.
type SessionStore interface {
	Load() (*StoredSession, error)
	Save(sess *StoredSession) error
	Clear() error
}

// FileSessionStore keeps the session in a YAML file readable only by its owner
type FileSessionStore struct {
	path string
}

// NewFileSessionStore creates a store backed by path
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

// Path returns the file location
func (s *FileSessionStore) Path() string {
	return s.path
}

// Load reads the stored session
func (s *FileSessionStore) Load() (*StoredSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess StoredSession
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session atomically with mode 0600
func (s *FileSessionStore) Save(sess *StoredSession) error {
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to save session file: %w", err)
	}
	return nil
}

// Clear removes the stored session
func (s *FileSessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}
