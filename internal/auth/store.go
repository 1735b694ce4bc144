package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"granthx/internal/crypto"
)

// Store keeps the session token on disk, encrypted with a machine-bound key.
type Store struct {
	path string
	box  *crypto.Box
}

func NewStore(path string) *Store {
	// MachineKey is always 32 bytes, so NewBox cannot fail here
	box, _ := crypto.NewBox(crypto.MachineKey("granthx"))
	return &Store{path: path, box: box}
}

// DefaultStorePath is ~/.config/granthx/session.
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config dir error: %w", err)
	}
	return filepath.Join(dir, "granthx", "session"), nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Save(token string) error {
	enc, err := s.box.Seal(token)
	if err != nil {
		return fmt.Errorf("encrypt session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(enc), 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Load returns "" with no error when nothing is stored.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	token, err := s.box.Open(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("decrypt session: %w", err)
	}
	return token, nil
}

func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
