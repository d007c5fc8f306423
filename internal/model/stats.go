package model

// Stats aggregates a transaction list. Derived, never persisted;
// recomputed whenever the list is replaced.
type Stats struct {
	TransactionTypes  map[string]int `json:"transaction_types"`
	TotalTransactions int            `json:"total_transactions"`
	TotalIncome       float64        `json:"total_income"`
	TotalExpenses     float64        `json:"total_expenses"`
	NetAmount         float64        `json:"net_amount"`
}

// ComputeStats derives aggregate statistics from a normalized
// transaction list. Counts are keyed by category label. The result
// matches the server-side computation for the same input set.
func ComputeStats(txns []Transaction) Stats {
	stats := Stats{
		TotalTransactions: len(txns),
		TransactionTypes:  make(map[string]int),
	}

	for _, t := range txns {
		switch t.Type {
		case TypeIncome:
			stats.TotalIncome += t.Amount
		case TypeExpense:
			stats.TotalExpenses += t.Amount
		}
		stats.TransactionTypes[t.Category]++
	}

	stats.NetAmount = stats.TotalIncome - stats.TotalExpenses
	return stats
}
