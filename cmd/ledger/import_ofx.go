package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/model"
	"github.com/Veraticus/insight-ledger/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.

Examples:
  # Import a single file
  ledger import ~/Downloads/chase_jan_2024.qfx

  # Import multiple files
  ledger import ~/Downloads/chase_*.qfx

  # Preview without uploading
  ledger import --dry-run ~/Downloads/statement.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without uploading")
	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	// Expand globs and collect all files
	var allFiles []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			// If no glob matches, check if it's a direct file
			if _, err := os.Stat(pattern); err == nil {
				allFiles = append(allFiles, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
		} else {
			allFiles = append(allFiles, matches...)
		}
	}

	if len(allFiles) == 0 {
		return fmt.Errorf("no files found to import")
	}

	slog.Info("Importing OFX files", "file_count", len(allFiles), "dry_run", dryRun)

	parser := ofx.NewParser()
	ctx := cmd.Context()

	var requests []model.BackendTransaction
	for _, filePath := range allFiles {
		f, err := os.Open(filePath)
		if err != nil {
			slog.Error("Failed to open file", "file", filePath, "error", err)
			continue
		}

		txns, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", filePath, "error", err)
			continue
		}
		if len(txns) == 0 {
			slog.Warn("No transactions found in file", "file", filepath.Base(filePath))
			continue
		}

		requests = append(requests, txns...)
		slog.Info("Parsed file", "file", filepath.Base(filePath), "transactions", len(txns))
	}

	if len(requests) == 0 {
		slog.Warn("No transactions found in any file")
		return nil
	}

	if dryRun {
		for _, tx := range requests {
			fmt.Printf("%s  %-28s %-16s %10.2f\n", tx.Date, tx.Title, tx.TransactionType, tx.Amount)
		}
		slog.Info("Dry run complete, nothing uploaded", "transactions", len(requests))
		return nil
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(requests),
		progressbar.OptionSetDescription("Uploading transactions"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	var failed int
	for _, tx := range requests {
		if _, err := a.client.CreateTransaction(ctx, tx); err != nil {
			// A dead session fails every remaining upload; stop early.
			if errors.Is(err, common.ErrAuthentication) {
				return fmt.Errorf("upload aborted: %w", err)
			}
			failed++
			slog.Error("Failed to upload transaction", "title", tx.Title, "date", tx.Date, "error", err)
		}
		_ = bar.Add(1)
	}

	slog.Info("Import finished", "uploaded", len(requests)-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d transactions failed to upload", failed, len(requests))
	}
	return nil
}
