// Package model defines the core types shared across the application.
package model

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType classifies a transaction by the direction money moved.
type TransactionType string

// Transaction direction values.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction is the normalized client-side shape of a passbook entry.
// Amounts are always non-negative; the sign lives in Type.
type Transaction struct {
	Date        time.Time
	ID          string
	Title       string
	Category    string
	Description string
	Type        TransactionType
	Amount      float64
}

// BackendTransaction mirrors the wire shape served by the passbook API.
// Amount carries a sign: non-negative is income, negative is expense.
type BackendTransaction struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"`
	TransactionType string  `json:"transaction_type"`
	Description     string  `json:"description"`
	Date            string  `json:"date"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// Normalize converts a backend record to the client shape: the amount
// sign moves into Type, the underscore-separated backend type becomes
// a capitalized category label.
func Normalize(b BackendTransaction) Transaction {
	txType := TypeIncome
	amount := b.Amount
	if amount < 0 {
		txType = TypeExpense
		amount = -amount
	}

	return Transaction{
		ID:          fmt.Sprintf("%d", b.ID),
		Title:       b.Title,
		Amount:      amount,
		Type:        txType,
		Category:    CategoryLabel(b.TransactionType),
		Date:        parseBackendDate(b.Date),
		Description: b.Description,
	}
}

// CategoryLabel turns a backend transaction type like "grocery_shopping"
// into a display label like "Grocery Shopping".
func CategoryLabel(transactionType string) string {
	words := strings.Split(transactionType, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// parseBackendDate accepts the date formats the backend emits: a bare
// date or a full RFC 3339 timestamp. A zero time marks unparseable input.
func parseBackendDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RelativeTime renders a timestamp as a human label relative to now
// ("Just now", "2 hours ago"). Recomputed at read time, never stored.
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return pluralize(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralize(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralize(int(diff.Hours()/24), "day")
	default:
		return t.Format("Jan 2, 2006")
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
