// Package cache persists the last successfully fetched transaction
// list for offline reads. It is a last-known-good mirror, not a sync
// target: snapshots are replaced wholesale, never merged.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/insight-ledger/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is a SQLite-backed snapshot cache keyed by transaction ID.
type Store struct {
	db     *sql.DB
	dbPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	amount      REAL NOT NULL,
	type        TEXT NOT NULL,
	category    TEXT NOT NULL,
	date        TIMESTAMP,
	description TEXT NOT NULL DEFAULT ''
);
`

// NewStore opens (or creates) the cache database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the entire persisted snapshot with txns in one
// transaction. Prior entries are always cleared first, so the cache
// reflects exactly the last successful fetch.
func (s *Store) SaveSnapshot(ctx context.Context, txns []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("failed to clear prior snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, title, amount, type, category, date, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range txns {
		if _, err := stmt.ExecContext(ctx,
			t.ID,
			t.Title,
			t.Amount,
			string(t.Type),
			t.Category,
			t.Date.UTC().Format(time.RFC3339),
			t.Description,
		); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// LoadSnapshot returns the last saved snapshot, newest first, or an
// empty list if nothing has been cached.
func (s *Store) LoadSnapshot(ctx context.Context) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount, type, category, date, description
		FROM transactions
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns := make([]model.Transaction, 0)
	for rows.Next() {
		var t model.Transaction
		var txType, date string
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount, &txType, &t.Category, &date, &t.Description); err != nil {
			return nil, fmt.Errorf("failed to scan cached transaction: %w", err)
		}
		t.Type = model.TransactionType(txType)
		if parsed, parseErr := time.Parse(time.RFC3339, date); parseErr == nil {
			t.Date = parsed
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot rows: %w", err)
	}

	return txns, nil
}
