package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/insight-ledger/internal/ledger"
	"github.com/Veraticus/insight-ledger/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Width(18)
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	expenseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	appFrame = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.screen {
	case ledger.ScreenSplash:
		body = m.viewSplash()
	case ledger.ScreenLogin:
		body = m.viewForm("Sign in to Insight Ledger", m.loginForm,
			"Enter submit • Tab next field • Ctrl+B biometric • Ctrl+T register • Ctrl+C quit")
	case ledger.ScreenRegister:
		body = m.viewForm("Create your account", m.registerForm,
			"Enter submit • Tab next field • Esc back to sign in • Ctrl+C quit")
	case ledger.ScreenLink:
		body = m.viewForm("Link a bank account", m.linkForm,
			"Enter submit • Tab next field • Esc back • Ctrl+C quit")
	case ledger.ScreenDashboard:
		body = m.viewDashboard()
	}
	return appFrame.Render(body)
}

func (m Model) viewSplash() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Insight Ledger"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("your passbook, everywhere"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString(" checking session...")
	return b.String()
}

func (m Model) viewForm(title string, f form, help string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			b.WriteString(focusedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	if f.submitting {
		b.WriteString("\n")
		b.WriteString(m.spinner.View())
		b.WriteString(" working...")
	} else if f.errText != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(f.errText))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m Model) viewDashboard() string {
	var b strings.Builder
	title := "Insight Ledger"
	if m.offline {
		title += "  (offline)"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if m.loading {
		b.WriteString(m.spinner.View())
		b.WriteString(" loading transactions...")
		return b.String()
	}
	if m.loadErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load transactions: %v", m.loadErr)))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("r retry • s sign out • q close"))
		return b.String()
	}

	b.WriteString(m.viewStats())
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString(m.viewFilterLine())
	b.WriteString("\n\n")
	b.WriteString(m.viewRows())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("/ search • f category • m more • r refresh • l link account • s sign out • q close"))
	return b.String()
}

func (m Model) viewStats() string {
	return fmt.Sprintf("%s   %s   %s   %d transactions",
		incomeStyle.Render(fmt.Sprintf("in %.2f", m.stats.TotalIncome)),
		expenseStyle.Render(fmt.Sprintf("out %.2f", m.stats.TotalExpenses)),
		fmt.Sprintf("net %.2f", m.stats.NetAmount),
		m.stats.TotalTransactions,
	)
}

func (m Model) viewFilterLine() string {
	category := m.filter.Category
	if category == "" {
		category = "All"
	}
	line := fmt.Sprintf("Category: %s", category)
	if m.searchFocused {
		return line + "   Search: " + m.search.View()
	}
	if m.filter.Search != "" {
		return line + "   Search: " + m.filter.Search
	}
	return line
}

func (m Model) viewRows() string {
	filtered := m.filtered()
	if len(filtered) == 0 {
		return dimStyle.Render("No transactions match.")
	}

	now := time.Now()
	var b strings.Builder
	for _, t := range m.visibleRows() {
		b.WriteString(m.viewRow(t, now))
		b.WriteString("\n")
	}

	remaining := len(filtered) - m.pager.Visible(len(filtered))
	switch {
	case m.revealing:
		b.WriteString(dimStyle.Render(fmt.Sprintf("%s loading more...", m.spinner.View())))
	case remaining > 0:
		b.WriteString(dimStyle.Render(fmt.Sprintf("m: show %d more", remaining)))
	}
	return b.String()
}

func (m Model) viewRow(t model.Transaction, now time.Time) string {
	amount := incomeStyle.Render(fmt.Sprintf("+%.2f", t.Amount))
	if t.Type == model.TypeExpense {
		amount = expenseStyle.Render(fmt.Sprintf("-%.2f", t.Amount))
	}
	return fmt.Sprintf("%-12s %-28s %-20s %12s  %s",
		t.Date.Format("2006-01-02"),
		truncate(t.Title, 28),
		truncate(t.Category, 20),
		amount,
		dimStyle.Render(model.RelativeTime(t.Date, now)),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
