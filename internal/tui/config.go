package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/insight-ledger/internal/api"
	"github.com/Veraticus/insight-ledger/internal/ledger"
	"github.com/Veraticus/insight-ledger/internal/session"
)

// AuthClient is the slice of the API client the screen shell needs for
// authentication. The concrete implementation is *api.Client.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
	VerifyToken(ctx context.Context) bool
}

// Config carries everything the TUI needs to run.
type Config struct {
	Auth    AuthClient
	Source  ledger.Source
	Session *session.Store
}

// Validate checks that required dependencies are present.
func (c Config) Validate() error {
	if c.Auth == nil {
		return fmt.Errorf("auth client is required")
	}
	if c.Source == nil {
		return fmt.Errorf("data source is required")
	}
	if c.Session == nil {
		return fmt.Errorf("session store is required")
	}
	return nil
}
