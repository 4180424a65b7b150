package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// Session is the authentication context handed to the client.
type Session struct {
	Token     string    `yaml:"token"`
	Username  string    `yaml:"username,omitempty"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// SessionStore persists a Session as a private YAML file. Writers hold an
// advisory lock on a sibling .lock file.
type SessionStore struct {
	path string
}

// DefaultSessionPath is <UserConfigDir>/busadmin/session.yaml.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "busadmin", "session.yaml"), nil
}

// NewSessionStore uses path, or the default location when path is empty.
func NewSessionStore(path string) (*SessionStore, error) {
	if path == "" {
		p, err := DefaultSessionPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &SessionStore{path: path}, nil
}

func (s *SessionStore) Path() string {
	return s.path
}

// Load returns the stored session, or an empty one if none was saved.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var sess Session
	if err := yaml.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}
	return &sess, nil
}

func (s *SessionStore) lock() (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	fl := flock.New(s.path + ".lock")
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock session file: %w", err)
	}
	return fl, nil
}

func (s *SessionStore) Save(sess *Session) error {
	if !sess.Authenticated() {
		return errors.New("refusing to save a session without token")
	}
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer fl.Unlock()
	data, err := yaml.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create session file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to protect session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Clear deletes the stored session. A missing file is not an error.
func (s *SessionStore) Clear() error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	fl, err := s.lock()
	if err != nil {
		return err
	}
	defer fl.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
