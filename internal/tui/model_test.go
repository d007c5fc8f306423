package tui

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/insight-ledger/internal/api"
	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/ledger"
	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/session"
)

type fakeAuth struct {
	loginErr    error
	registerErr error
	verified    bool
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*api.AuthResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.AuthResponse{Token: "tok"}, nil
}

func (f *fakeAuth) Register(_ context.Context, _, _, _ string) (*api.AuthResponse, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &api.AuthResponse{Token: "tok"}, nil
}

func (f *fakeAuth) VerifyToken(_ context.Context) bool { return f.verified }

type fakeSource struct {
	result *ledger.LoadResult
	err    error
}

func (f *fakeSource) Load(_ context.Context) (*ledger.LoadResult, error) {
	return f.result, f.err
}

func testSession(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return s
}

func testModel(t *testing.T) Model {
	t.Helper()
	return newModel(Config{
		Auth:    &fakeAuth{},
		Source:  &fakeSource{result: &ledger.LoadResult{}},
		Session: testSession(t),
	})
}

func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)
	return next, cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func fixtureTransactions(n int) []model.Transaction {
	txns := make([]model.Transaction, 0, n)
	base := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		category := "Food"
		if i%2 == 1 {
			category = "Transport"
		}
		txns = append(txns, model.Transaction{
			ID:       string(rune('A' + i)),
			Title:    "txn",
			Category: category,
			Type:     model.TypeExpense,
			Amount:   10,
			Date:     base.AddDate(0, 0, -i),
		})
	}
	return txns
}

func dashboardModel(t *testing.T, txns []model.Transaction) Model {
	t.Helper()
	m := testModel(t)
	m.screen = ledger.ScreenDashboard
	m, _ = apply(t, m, dashboardLoadedMsg{result: &ledger.LoadResult{
		Transactions: txns,
		Stats:        model.ComputeStats(txns),
	}})
	return m
}

func TestSplashTimeoutGoesToLogin(t *testing.T) {
	m := testModel(t)
	m, _ = apply(t, m, splashTimeoutMsg{})
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestSplashVerifiedTokenShortcutsToDashboard(t *testing.T) {
	m := testModel(t)
	m, cmd := apply(t, m, tokenVerifiedMsg{valid: true})
	assert.Equal(t, ledger.ScreenDashboard, m.screen)
	assert.NotNil(t, cmd, "dashboard entry should kick off a load")

	// The timer still fires afterwards; it must not bounce us back.
	m, _ = apply(t, m, splashTimeoutMsg{})
	assert.Equal(t, ledger.ScreenDashboard, m.screen)
}

func TestSplashInvalidTokenWaitsForTimer(t *testing.T) {
	m := testModel(t)
	m, _ = apply(t, m, tokenVerifiedMsg{valid: false})
	assert.Equal(t, ledger.ScreenSplash, m.screen)
	m, _ = apply(t, m, splashTimeoutMsg{})
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestLoginValidationStopsAtFirstFailure(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m.loginForm.inputs[loginFieldEmail].SetValue("no-at-sign")
	m.loginForm.inputs[loginFieldPassword].SetValue("Abcdefg1")

	m, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "Email must contain @ symbol", m.loginForm.errText)
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestLoginSuccessLandsOnDashboard(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m, cmd := apply(t, m, authSucceededMsg{resp: &api.AuthResponse{Token: "tok"}})
	assert.Equal(t, ledger.ScreenDashboard, m.screen)
	assert.NotNil(t, cmd)
}

func TestLoginFailureShowsMessage(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m.loginForm.submitting = true
	m, _ = apply(t, m, authFailedMsg{err: errors.New("Invalid email or password")})
	assert.False(t, m.loginForm.submitting)
	assert.Equal(t, "Invalid email or password", m.loginForm.errText)
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestRegisterSwitchAndBack(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, ledger.ScreenRegister, m.screen)
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestDashboardLoadPopulatesRows(t *testing.T) {
	m := dashboardModel(t, fixtureTransactions(12))
	assert.Len(t, m.transactions, 12)
	assert.Len(t, m.visibleRows(), 5)
	assert.Equal(t, []string{"Food", "Transport"}, m.categories)
}

func TestDashboardAuthErrorFallsBackToLogin(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenDashboard
	m, _ = apply(t, m, dashboardLoadedMsg{err: common.ErrAuthentication})
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestDashboardLoadResultIgnoredOffDashboard(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m, _ = apply(t, m, dashboardLoadedMsg{result: &ledger.LoadResult{
		Transactions: fixtureTransactions(3),
	}})
	assert.Equal(t, ledger.ScreenLogin, m.screen)
	assert.Empty(t, m.transactions)
}

func TestRevealShowsFiveMoreAfterDelay(t *testing.T) {
	m := dashboardModel(t, fixtureTransactions(12))

	m, cmd := apply(t, m, runeKey('m'))
	assert.True(t, m.revealing)
	require.NotNil(t, cmd)

	// A second trigger while the delay runs is a no-op.
	m, cmd = apply(t, m, runeKey('m'))
	assert.Nil(t, cmd)

	m, _ = apply(t, m, revealDoneMsg{})
	assert.False(t, m.revealing)
	assert.Len(t, m.visibleRows(), 10)

	m, _ = apply(t, m, runeKey('m'))
	m, _ = apply(t, m, revealDoneMsg{})
	assert.Len(t, m.visibleRows(), 12)

	// Everything visible: no further reveal.
	_, cmd = apply(t, m, runeKey('m'))
	assert.Nil(t, cmd)
}

func TestCategoryFilterCycleResetsReveal(t *testing.T) {
	m := dashboardModel(t, fixtureTransactions(12))
	m, _ = apply(t, m, runeKey('m'))
	m, _ = apply(t, m, revealDoneMsg{})
	require.Len(t, m.visibleRows(), 10)

	m, _ = apply(t, m, runeKey('f'))
	assert.Equal(t, "Food", m.filter.Category)
	assert.Len(t, m.visibleRows(), 5)

	m, _ = apply(t, m, runeKey('f'))
	assert.Equal(t, "Transport", m.filter.Category)
	m, _ = apply(t, m, runeKey('f'))
	assert.Equal(t, "", m.filter.Category)
}

func TestSearchTypingResetsReveal(t *testing.T) {
	m := dashboardModel(t, fixtureTransactions(12))
	m, _ = apply(t, m, runeKey('m'))
	m, _ = apply(t, m, revealDoneMsg{})
	require.Len(t, m.visibleRows(), 10)

	m, _ = apply(t, m, runeKey('/'))
	assert.True(t, m.searchFocused)
	m, _ = apply(t, m, runeKey('t'))
	assert.Equal(t, "t", m.filter.Search)
	assert.Len(t, m.visibleRows(), 5)

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.searchFocused)
}

func TestSignOutClearsTokenCloseKeepsIt(t *testing.T) {
	m := dashboardModel(t, nil)
	require.NoError(t, m.cfg.Session.SetToken("tok"))

	closed, _ := apply(t, m, runeKey('q'))
	assert.True(t, closed.quitting)
	assert.Equal(t, "tok", closed.cfg.Session.Token())

	m, _ = apply(t, m, runeKey('s'))
	assert.Equal(t, ledger.ScreenLogin, m.screen)
	assert.Empty(t, m.cfg.Session.Token())
}

func TestBiometricWithoutStoredTokenFails(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin

	_, cmd := apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	require.NotNil(t, cmd)
	msg := cmd()
	result, ok := msg.(biometricResultMsg)
	require.True(t, ok)
	assert.False(t, result.valid)

	m, _ = apply(t, m, biometricResultMsg{valid: false})
	assert.Equal(t, "Biometric sign-in unavailable. Use your password.", m.loginForm.errText)
	assert.Equal(t, ledger.ScreenLogin, m.screen)
}

func TestBiometricWithVerifiedTokenLandsOnDashboard(t *testing.T) {
	m := testModel(t)
	m.screen = ledger.ScreenLogin
	m, _ = apply(t, m, biometricResultMsg{valid: true})
	assert.Equal(t, ledger.ScreenDashboard, m.screen)
}
