package ledger

import (
	"strings"

	"github.com/Veraticus/insight-ledger/internal/model"
)

// Filter derives the displayed subset of the transaction list. The
// search term matches case-insensitively against category, ID and
// title; Category, when set, must match exactly.
type Filter struct {
	Search   string
	Category string
}

// Apply returns the transactions passing both filter conditions, in
// their original order. An empty filter returns the full list.
func (f Filter) Apply(txns []model.Transaction) []model.Transaction {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]model.Transaction, 0, len(txns))
	for _, t := range txns {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t model.Transaction, search string) bool {
	return strings.Contains(strings.ToLower(t.Category), search) ||
		strings.Contains(strings.ToLower(t.ID), search) ||
		strings.Contains(strings.ToLower(t.Title), search)
}
