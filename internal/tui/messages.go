package tui

import (
	"github.com/Veraticus/insight-ledger/internal/api"
	"github.com/Veraticus/insight-ledger/internal/ledger"
)

// Splash screen messages.
type splashTimeoutMsg struct{}

type tokenVerifiedMsg struct {
	valid bool
}

// Authentication messages.
type authSucceededMsg struct {
	resp *api.AuthResponse
}

type authFailedMsg struct {
	err error
}

type biometricResultMsg struct {
	valid bool
}

// Dashboard messages.
type dashboardLoadedMsg struct {
	result *ledger.LoadResult
	err    error
}

type revealDoneMsg struct{}
