package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/insight-ledger/internal/common"
	"github.com/Veraticus/insight-ledger/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is the backend's SQLite persistence layer: users and their
// transactions.
type Store struct {
	db *sql.DB
}

const storeSchema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS transactions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	title            TEXT NOT NULL,
	amount           REAL NOT NULL,
	transaction_type TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	date             TEXT NOT NULL,
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, date DESC);
`

// user is the storage shape of an account, including the password hash
// that never leaves this package.
type user struct {
	Username     string
	Email        string
	PasswordHash string
	ID           int64
}

func (u *user) public() *model.User {
	return &model.User{ID: u.ID, Username: u.Username, Email: u.Email}
}

// NewStore opens (or creates) the backend database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(storeSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createUser(ctx context.Context, username, email, passwordHash string) (*user, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)
	`, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new user id: %w", err)
	}
	return &user{ID: id, Username: username, Email: email, PasswordHash: passwordHash}, nil
}

func (s *Store) userByEmail(ctx context.Context, email string) (*user, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash FROM users WHERE email = ?
	`, email))
}

func (s *Store) userByID(ctx context.Context, id int64) (*user, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash FROM users WHERE id = ?
	`, id))
}

func (s *Store) scanUser(row *sql.Row) (*user, error) {
	var u user
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *Store) usernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users WHERE username = ? OR email = ?
	`, username, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return n > 0, nil
}

func (s *Store) createTransaction(ctx context.Context, userID int64, tx model.BackendTransaction) (*model.BackendTransaction, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, title, amount, transaction_type, description, date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, userID, tx.Title, tx.Amount, tx.TransactionType, tx.Description, tx.Date, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new transaction id: %w", err)
	}

	tx.ID = id
	tx.CreatedAt = now
	tx.UpdatedAt = now
	return &tx, nil
}

func (s *Store) transactionsForUser(ctx context.Context, userID int64) ([]model.BackendTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount, transaction_type, description, date, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	txns := make([]model.BackendTransaction, 0)
	for rows.Next() {
		var t model.BackendTransaction
		if err := rows.Scan(&t.ID, &t.Title, &t.Amount, &t.TransactionType, &t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *Store) updateTransaction(ctx context.Context, userID, id int64, tx model.BackendTransaction) (*model.BackendTransaction, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET title = ?, amount = ?, transaction_type = ?, description = ?, date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, tx.Title, tx.Amount, tx.TransactionType, tx.Description, tx.Date, now, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, common.ErrNotFound
	}

	tx.ID = id
	tx.UpdatedAt = now
	return &tx, nil
}

func (s *Store) deleteTransaction(ctx context.Context, userID, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND user_id = ?
	`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (s *Store) hasTransactions(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transactions WHERE user_id = ?
	`, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n > 0, nil
}
