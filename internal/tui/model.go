package tui

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/ledger"
	"github.com/Veraticus/insight-ledger/internal/model"
)

const (
	splashDuration = 3 * time.Second
	revealDelay    = 250 * time.Millisecond
)

// Model holds the screen shell state. Which screen is showing is
// decided entirely by ledger.Next; the model only carries the
// per-screen widgets and data.
type Model struct {
	cfg    Config
	keymap KeyMap
	screen ledger.Screen

	spinner spinner.Model

	loginForm    form
	registerForm form
	linkForm     form

	// Dashboard state.
	transactions  []model.Transaction
	stats         model.Stats
	filter        ledger.Filter
	pager         *ledger.Pager
	search        textinput.Model
	searchFocused bool
	categories    []string
	categoryIdx   int
	notice        string
	loadErr       error
	loading       bool
	revealing     bool
	offline       bool

	width    int
	height   int
	quitting bool
}

// newModel creates a model starting on the splash screen.
func newModel(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	search := textinput.New()
	search.Placeholder = "search category, id or title"
	search.CharLimit = 64
	search.Width = 40

	return Model{
		cfg:          cfg,
		keymap:       DefaultKeyMap(),
		screen:       ledger.ScreenSplash,
		spinner:      sp,
		loginForm:    newLoginForm(),
		registerForm: newRegisterForm(),
		linkForm:     newLinkForm(),
		pager:        ledger.NewPager(),
		search:       search,
	}
}

// Init starts the splash timer and, when a token is already stored,
// races a verification call against it.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		m.spinner.Tick,
		tea.Tick(splashDuration, func(time.Time) tea.Msg { return splashTimeoutMsg{} }),
	}
	if m.cfg.Session.IsAuthenticated() {
		cmds = append(cmds, m.verifyStoredToken())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.screen {
	case ledger.ScreenSplash:
		return m.updateSplash(msg)
	case ledger.ScreenLogin:
		return m.updateLogin(msg)
	case ledger.ScreenRegister:
		return m.updateRegister(msg)
	case ledger.ScreenLink:
		return m.updateLink(msg)
	case ledger.ScreenDashboard:
		return m.updateDashboard(msg)
	}
	return m, nil
}

// transition applies an event to the current screen and runs
// entry actions for the screen it lands on.
func (m *Model) transition(ev ledger.Event) tea.Cmd {
	next := ledger.Next(m.screen, ev)
	if next == m.screen {
		return nil
	}
	m.screen = next

	switch next {
	case ledger.ScreenLogin:
		m.loginForm.reset()
		return textinput.Blink
	case ledger.ScreenRegister:
		m.registerForm.reset()
		return textinput.Blink
	case ledger.ScreenLink:
		m.linkForm.reset()
		return textinput.Blink
	case ledger.ScreenDashboard:
		return m.startDashboardLoad()
	}
	return nil
}

func (m *Model) startDashboardLoad() tea.Cmd {
	m.loading = true
	m.loadErr = nil
	m.notice = ""
	return tea.Batch(m.spinner.Tick, m.loadDashboard())
}

func (m Model) updateSplash(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tokenVerifiedMsg:
		if msg.valid {
			return m, m.transition(ledger.EventTokenVerified)
		}
		// Invalid token: the client already cleared it. Wait out the
		// timer like a cold start.
		return m, nil
	case splashTimeoutMsg:
		return m, m.transition(ledger.EventSplashTimeout)
	}
	return m, nil
}

func (m Model) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loginForm.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keymap.Switch):
			return m, m.transition(ledger.EventGoToRegister)
		case key.Matches(msg, m.keymap.Biometric):
			return m, m.biometricSignIn()
		case key.Matches(msg, m.keymap.NextField):
			return m, m.loginForm.next()
		case key.Matches(msg, m.keymap.PrevField):
			return m, m.loginForm.prev()
		case key.Matches(msg, m.keymap.Submit):
			if !m.loginForm.validateAll() {
				return m, nil
			}
			m.loginForm.submitting = true
			return m, tea.Batch(m.spinner.Tick, m.login())
		}
		return m, m.loginForm.updateFocused(msg)

	case authSucceededMsg:
		m.loginForm.submitting = false
		return m, m.transition(ledger.EventLoginSucceeded)

	case authFailedMsg:
		m.loginForm.submitting = false
		m.loginForm.errText = userMessage(msg.err)
		return m, nil

	case biometricResultMsg:
		if msg.valid {
			return m, m.transition(ledger.EventBiometricLogin)
		}
		m.loginForm.errText = "Biometric sign-in unavailable. Use your password."
		return m, nil
	}
	return m, nil
}

func (m Model) updateRegister(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.registerForm.submitting {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Switch):
			return m, m.transition(ledger.EventBackToLogin)
		case key.Matches(msg, m.keymap.NextField):
			return m, m.registerForm.next()
		case key.Matches(msg, m.keymap.PrevField):
			return m, m.registerForm.prev()
		case key.Matches(msg, m.keymap.Submit):
			if !m.registerForm.validateAll() {
				return m, nil
			}
			m.registerForm.submitting = true
			return m, tea.Batch(m.spinner.Tick, m.register())
		}
		return m, m.registerForm.updateFocused(msg)

	case authSucceededMsg:
		m.registerForm.submitting = false
		return m, m.transition(ledger.EventRegisterSucceeded)

	case authFailedMsg:
		m.registerForm.submitting = false
		m.registerForm.errText = userMessage(msg.err)
		return m, nil
	}
	return m, nil
}

func (m Model) updateLink(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keymap.Back):
		// Esc abandons the form and returns to the dashboard.
		return m, m.transition(ledger.EventAccountLinked)
	case key.Matches(keyMsg, m.keymap.NextField):
		return m, m.linkForm.next()
	case key.Matches(keyMsg, m.keymap.PrevField):
		return m, m.linkForm.prev()
	case key.Matches(keyMsg, m.keymap.Submit):
		if !m.linkForm.validateAll() {
			return m, nil
		}
		return m, m.transition(ledger.EventAccountLinked)
	}
	return m, m.linkForm.updateFocused(keyMsg)
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if errors.Is(msg.err, common.ErrAuthentication) {
				return m, m.transition(ledger.EventSessionInvalid)
			}
			m.loadErr = msg.err
			return m, nil
		}
		m.transactions = msg.result.Transactions
		m.stats = msg.result.Stats
		m.notice = msg.result.Notice
		m.offline = msg.result.Offline
		m.categories = categoriesOf(msg.result.Transactions)
		m.categoryIdx = 0
		m.filter.Category = ""
		m.pager.Reset()
		return m, nil

	case revealDoneMsg:
		m.revealing = false
		m.pager.Reveal(len(m.filtered()))
		return m, nil

	case tea.KeyMsg:
		return m.handleDashboardKey(msg)
	}
	return m, nil
}

func (m Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchFocused {
		switch {
		case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Submit):
			m.searchFocused = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != m.filter.Search {
			m.filter.Search = m.search.Value()
			m.pager.Reset()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		cmd := m.transition(ledger.EventClose)
		return m, tea.Batch(cmd, tea.Quit)
	case key.Matches(msg, m.keymap.SignOut):
		if err := m.cfg.Session.Logout(); err != nil {
			m.loadErr = err
			return m, nil
		}
		return m, m.transition(ledger.EventSignOut)
	case key.Matches(msg, m.keymap.Search):
		m.searchFocused = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keymap.CycleFilter):
		m.cycleCategory()
		return m, nil
	case key.Matches(msg, m.keymap.Refresh):
		return m, m.startDashboardLoad()
	case key.Matches(msg, m.keymap.LinkAccount):
		return m, m.transition(ledger.EventGoToLink)
	case key.Matches(msg, m.keymap.More):
		if m.revealing || !m.pager.CanReveal(len(m.filtered())) {
			return m, nil
		}
		m.revealing = true
		return m, tea.Tick(revealDelay, func(time.Time) tea.Msg { return revealDoneMsg{} })
	}
	return m, nil
}

// cycleCategory steps the exact-category filter through "" plus every
// category present in the loaded data. Changing it resets the pager.
func (m *Model) cycleCategory() {
	if len(m.categories) == 0 {
		return
	}
	m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
	if m.categoryIdx == 0 {
		m.filter.Category = ""
	} else {
		m.filter.Category = m.categories[m.categoryIdx-1]
	}
	m.pager.Reset()
}

func (m Model) filtered() []model.Transaction {
	return m.filter.Apply(m.transactions)
}

// visibleRows returns the filtered rows the pager currently exposes.
func (m Model) visibleRows() []model.Transaction {
	rows := m.filtered()
	return rows[:m.pager.Visible(len(rows))]
}

func categoriesOf(txns []model.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range txns {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	sort.Strings(out)
	return out
}

// userMessage surfaces an error the way the CLI does: the typed user
// error's message when there is one, otherwise the raw error text.
func userMessage(err error) string {
	var ue *common.UserError
	if errors.As(err, &ue) {
		return ue.UserMessage
	}
	return err.Error()
}

// Commands.

func (m Model) verifyStoredToken() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), splashDuration)
		defer cancel()
		return tokenVerifiedMsg{valid: m.cfg.Auth.VerifyToken(ctx)}
	}
}

func (m Model) biometricSignIn() tea.Cmd {
	// Stub: succeeds only when a stored token still verifies.
	if !m.cfg.Session.IsAuthenticated() {
		return func() tea.Msg { return biometricResultMsg{valid: false} }
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return biometricResultMsg{valid: m.cfg.Auth.VerifyToken(ctx)}
	}
}

func (m Model) login() tea.Cmd {
	email := m.loginForm.value(loginFieldEmail)
	password := m.loginForm.value(loginFieldPassword)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := m.cfg.Auth.Login(ctx, email, password)
		if err != nil {
			return authFailedMsg{err: err}
		}
		return authSucceededMsg{resp: resp}
	}
}

func (m Model) register() tea.Cmd {
	name := m.registerForm.value(registerFieldName)
	email := m.registerForm.value(registerFieldEmail)
	password := m.registerForm.value(registerFieldPassword)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resp, err := m.cfg.Auth.Register(ctx, name, email, password)
		if err != nil {
			return authFailedMsg{err: err}
		}
		return authSucceededMsg{resp: resp}
	}
}

func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err := m.cfg.Source.Load(ctx)
		return dashboardLoadedMsg{result: result, err: err}
	}
}
