package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
)

var (
	// ErrNotFound is returned by Load for an unknown VM name
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyRunning is returned by Begin when the name belongs to a VM
	// recorded as running.
	ErrAlreadyRunning = errors.New("a VM with this name is already running")
)

const recordExt = ".json"

// Store keeps one JSON record per VM name under ~/.efivm/sessions/
type Store struct {
	dir string
}

// NewStore opens the store in the user's home directory
func NewStore() (*Store, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewStoreAt(filepath.Join(home, ".efivm", "sessions"))
}

// NewStoreAt opens a store rooted at dir
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// path maps a VM name to its record file. Names are validated so a record
// can never land outside the store directory.
func (s *Store) path(id string) (string, error) {
	if err := ValidateName(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+recordExt), nil
}

// Begin records the start of a launch. It refuses to replace the record of a
// VM that is still running under the same name; records in any other state
// are overwritten.
func (s *Store) Begin(sess *Session) error {
	prev, err := s.Load(sess.ID)
	switch {
	case err == nil && prev.Status == StatusRunning:
		return fmt.Errorf("%s: %w", sess.ID, ErrAlreadyRunning)
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}
	return s.Save(sess)
}

// Save writes sess atomically, replacing any previous record
func (s *Store) Save(sess *Session) error {
	path, err := s.path(sess.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Load reads the record of VM id
func (s *Store) Load(id string) (*Session, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// List returns every readable record, newest launch first
func (s *Store) List() ([]*Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Session{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	sessions := []*Session{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}

		sess, err := s.Load(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue // unreadable or foreign file
		}
		sessions = append(sessions, sess)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
	return sessions, nil
}

// Delete removes the record of VM id. A missing record is not an error.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// Dir returns the session storage directory
func (s *Store) Dir() string {
	return s.dir
}
