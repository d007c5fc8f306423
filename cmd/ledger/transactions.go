package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/insight-ledger/internal/model"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Manage transactions",
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(generateSampleCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			category, _ := cmd.Flags().GetString("category")
			search, _ := cmd.Flags().GetString("search")

			a, err := newApp()
			if err != nil {
				return err
			}

			txns, err := a.client.Transactions(cmd.Context())
			if err != nil {
				return err
			}

			txns = filterTransactions(txns, search, category)
			if len(txns) == 0 {
				fmt.Println("No transactions match.")
				return nil
			}

			now := time.Now()
			for _, t := range txns {
				sign := "+"
				if t.Type == model.TypeExpense {
					sign = "-"
				}
				fmt.Printf("%-8s %-12s %-28s %-20s %s%10.2f  %s\n",
					t.ID,
					t.Date.Format("2006-01-02"),
					t.Title,
					t.Category,
					sign, t.Amount,
					model.RelativeTime(t.Date, now),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringP("category", "c", "", "exact category filter")
	cmd.Flags().StringP("search", "s", "", "substring search over category, id and title")
	return cmd
}

func addTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title> <amount>",
		Short: "Add a transaction (negative amount = expense)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			txType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			created, err := a.client.CreateTransaction(cmd.Context(), model.BackendTransaction{
				Title:           args[0],
				Amount:          amount,
				TransactionType: txType,
				Description:     description,
				Date:            date,
			})
			if err != nil {
				return err
			}

			slog.Info("Transaction created", "id", created.ID, "title", created.Title)
			return nil
		},
	}

	cmd.Flags().StringP("type", "t", "general", "transaction type key (e.g. grocery_shopping)")
	cmd.Flags().StringP("description", "d", "", "description")
	cmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func updateTransactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id> <title> <amount>",
		Short: "Replace a transaction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}
			amount, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			txType, _ := cmd.Flags().GetString("type")
			description, _ := cmd.Flags().GetString("description")
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			updated, err := a.client.UpdateTransaction(cmd.Context(), id, model.BackendTransaction{
				Title:           args[1],
				Amount:          amount,
				TransactionType: txType,
				Description:     description,
				Date:            date,
			})
			if err != nil {
				return err
			}

			slog.Info("Transaction updated", "id", updated.ID, "title", updated.Title)
			return nil
		},
	}

	cmd.Flags().StringP("type", "t", "general", "transaction type key")
	cmd.Flags().StringP("description", "d", "", "description")
	cmd.Flags().String("date", "", "date (YYYY-MM-DD, default today)")
	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}

			a, err := newApp()
			if err != nil {
				return err
			}

			if err := a.client.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}

			slog.Info("Transaction deleted", "id", id)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show transaction statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			stats, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Transactions: %d\n", stats.TotalTransactions)
			fmt.Printf("Income:       %.2f\n", stats.TotalIncome)
			fmt.Printf("Expenses:     %.2f\n", stats.TotalExpenses)
			fmt.Printf("Net:          %.2f\n", stats.NetAmount)
			if len(stats.TransactionTypes) > 0 {
				fmt.Println("By category:")
				for category, count := range stats.TransactionTypes {
					fmt.Printf("  %-24s %d\n", category, count)
				}
			}
			return nil
		},
	}
}

func generateSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-sample",
		Short: "Seed the account with sample transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			message, err := a.client.GenerateSample(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("Sample data", "message", message)
			return nil
		},
	}
}
