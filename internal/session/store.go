// Package session persists the bearer token and user profile between runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"
)

// state is the on-disk shape of the session file. At most one token is
// held at a time; presence does not imply validity.
type state struct {
	Token   string      `json:"auth_token"`
	Profile *model.User `json:"user_profile,omitempty"`
	SavedAt time.Time   `json:"saved_at"`
}

// Store holds the current session and mirrors every change to a
// durable state file. Writes are synchronous: when SetToken returns,
// the token is on disk.
type Store struct {
	path  string
	state state
}

// DefaultStatePath returns the session file location, honoring
// XDG_DATA_HOME and falling back to ~/.local/share.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(home, ".local", "share")
	}

	ledgerDir := filepath.Join(dataDir, "ledger")
	if err := os.MkdirAll(ledgerDir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(ledgerDir, "session.json"), nil
}

// NewStore opens the session store at path, loading any saved state.
// A missing or unreadable state file starts an empty session.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session state path is required")
	}

	s := &Store{path: path}
	data, err := os.ReadFile(path)
	if err != nil {
		// No saved session yet
		return s, nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		// Corrupt state file; treat as logged out rather than failing startup
		s.state = state{}
	}
	return s, nil
}

// SetToken replaces the held token and persists immediately. An empty
// token erases the stored credential.
func (s *Store) SetToken(token string) error {
	s.state.Token = token
	if token == "" {
		s.state.Profile = nil
	}
	return s.save()
}

// Token returns the current bearer token, or "" when logged out.
func (s *Store) Token() string {
	return s.state.Token
}

// IsAuthenticated reports whether a token is present. Presence is
// necessary but not sufficient; only the verify-token endpoint can
// confirm validity.
func (s *Store) IsAuthenticated() bool {
	return s.state.Token != ""
}

// SetProfile caches the user profile alongside the token.
func (s *Store) SetProfile(u *model.User) error {
	s.state.Profile = u
	return s.save()
}

// Profile returns the cached user profile, or nil if none is stored.
func (s *Store) Profile() *model.User {
	return s.state.Profile
}

// Logout clears the token and the cached profile.
func (s *Store) Logout() error {
	s.state = state{}
	return s.save()
}

func (s *Store) save() error {
	s.state.SavedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}
