package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Store persists accounts by type. Load returns (nil, nil) when no account
// is stored under the type; errors are reserved for storage failures.
type Store interface {
	Load(t Type) (*Account, error)
	Save(a *Account, t Type) error
	Remove(t Type) error
}

// FileStore is a Store writing one JSON file per account type. Token
// material is sensitive: files are created 0600 inside a 0700 directory, and
// token values are never logged.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a file-backed store rooted at dir, creating the
// directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("account store directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create account store directory: %w", err)
	}

	return &FileStore{
		dir:    dir,
		logger: logger,
	}, nil
}

// Load reads the account stored under t.
func (s *FileStore) Load(t Type) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(t))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account file: %w", err)
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("failed to decode account file: %w", err)
	}

	return &acct, nil
}

// Save writes the account under t, replacing any previous one.
func (s *FileStore) Save(a *Account, t Type) error {
	if a == nil {
		return fmt.Errorf("cannot save a nil account")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode account: %w", err)
	}

	if err := os.WriteFile(s.path(t), data, 0o600); err != nil {
		return fmt.Errorf("failed to write account file: %w", err)
	}

	s.logger.Debug().
		Str("type", string(t)).
		Bool("has_user", a.IsUser()).
		Msg("Account saved")

	return nil
}

// Remove deletes the account stored under t. Removing an absent account is
// not an error.
func (s *FileStore) Remove(t Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(t))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove account file: %w", err)
	}

	s.logger.Debug().Str("type", string(t)).Msg("Account removed")
	return nil
}

func (s *FileStore) path(t Type) string {
	return filepath.Join(s.dir, string(t)+".json")
}
