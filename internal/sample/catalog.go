// Package sample holds the fixed catalog of generated transactions
// used by the offline sample data source and by the backend's
// sample-data seeding.
package sample

import (
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"
)

type entry struct {
	title           string
	transactionType string
	description     string
	amount          float64
	daysAgo         int
}

// The catalog is fixed: 20 entries covering every transaction type,
// with dates expressed relative to the generation day.
var catalog = []entry{
	{"Monthly Salary", "salary", "Monthly salary payment", 5000.00, 5},
	{"Grocery Shopping", "grocery", "Weekly grocery shopping at Walmart", -150.75, 3},
	{"Internet Bill", "fees", "Monthly internet service bill", -89.99, 10},
	{"Gas Station", "transport", "Fuel for car", -45.50, 2},
	{"Movie Tickets", "entertainment", "Weekend movie with friends", -32.00, 1},
	{"Freelance Project", "salary", "Payment for web development project", 1200.00, 7},
	{"Electricity Bill", "fees", "Monthly electricity bill", -120.40, 12},
	{"Restaurant Dinner", "entertainment", "Dinner at the Italian place", -64.25, 4},
	{"Bus Pass", "transport", "Monthly public transport pass", -55.00, 14},
	{"Farmers Market", "grocery", "Vegetables and fruit", -38.60, 6},
	{"School Fees", "fees", "Quarterly school fee installment", -1200.00, 16},
	{"Stock Dividend", "other", "Quarterly dividend payout", 85.20, 18},
	{"Streaming Subscription", "entertainment", "Monthly streaming plan", -14.99, 8},
	{"Taxi Ride", "transport", "Airport drop", -28.75, 9},
	{"Supermarket Run", "grocery", "Household restock", -97.30, 11},
	{"Consulting Fee", "salary", "One-off consulting engagement", 800.00, 20},
	{"Gym Membership", "fees", "Monthly gym membership", -49.00, 22},
	{"Concert Tickets", "entertainment", "Live show downtown", -110.00, 24},
	{"Cashback Reward", "other", "Card cashback credit", 23.45, 26},
	{"Water Bill", "fees", "Monthly water utility", -41.10, 28},
}

// Transactions returns the catalog in the backend wire shape, with
// sequential IDs starting at 1 and dates anchored to now.
func Transactions(now time.Time) []model.BackendTransaction {
	txns := make([]model.BackendTransaction, 0, len(catalog))
	for i, e := range catalog {
		txns = append(txns, model.BackendTransaction{
			ID:              int64(i + 1),
			Title:           e.title,
			Amount:          e.amount,
			TransactionType: e.transactionType,
			Description:     e.description,
			Date:            now.AddDate(0, 0, -e.daysAgo).Format("2006-01-02"),
		})
	}
	return txns
}

// Count is the catalog size.
const Count = 20
