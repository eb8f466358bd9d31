// Package sqlite persists burn accounting: per-wallet accounts, the
// processed-signature replay set, and the append-only burn event log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/landgame-labs/burngate/internal/domain"
)

// DB wraps the SQLite connection for burn accounting.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the database under dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "burngate.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer connection — serializes the credit transaction so the
	// processed-signature check and the balance update are one atomic unit.
	db.SetMaxOpenConns(1)

	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}

	return &DB{db: db}, nil
}

// Close closes the underlying connection.
func (s *DB) Close() error { return s.db.Close() }

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema migration statements.
// Each string is a single SQL statement (SQLite executes one at a time).
func Migrations() []string {
	return []string{
		// Per-wallet credit accounts
		`CREATE TABLE IF NOT EXISTS accounts (
			wallet_address TEXT PRIMARY KEY,
			burned_raw     INTEGER NOT NULL DEFAULT 0 CHECK(burned_raw >= 0),
			created_at     TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
		)`,

		// Replay set: one row per credited transaction signature.
		// The primary key is the idempotence guard.
		`CREATE TABLE IF NOT EXISTS processed_transactions (
			signature      TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			processed_at   TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_wallet ON processed_transactions(wallet_address)`,

		// Append-only audit log of accepted burns
		`CREATE TABLE IF NOT EXISTS burn_events (
			id             TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			signature      TEXT NOT NULL UNIQUE,
			amount_raw     INTEGER NOT NULL,
			credits_earned TEXT NOT NULL,
			recorded_at    TEXT NOT NULL,
			verified       INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_wallet ON burn_events(wallet_address)`,
	}
}

// ─── Credit Operations ──────────────────────────────────────────────────────

// CreditIfNew atomically credits the event's amount to the wallet unless the
// signature was processed before. The replay-set insert, the account upsert,
// and the audit row all commit in one transaction.
func (s *DB) CreditIfNew(ctx context.Context, event domain.BurnEvent) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin credit tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO processed_transactions (signature, wallet_address)
		VALUES (?, ?)
	`, event.Signature, event.WalletAddress)
	if err != nil {
		return 0, false, fmt.Errorf("record signature: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if inserted == 0 {
		// Replay — report the unchanged balance.
		raw, err := balanceTx(ctx, tx, event.WalletAddress)
		if err != nil {
			return 0, false, err
		}
		return raw, false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts (wallet_address, burned_raw)
		VALUES (?, ?)
		ON CONFLICT(wallet_address) DO UPDATE SET
			burned_raw = burned_raw + excluded.burned_raw,
			updated_at = datetime('now')
	`, event.WalletAddress, event.AmountRaw)
	if err != nil {
		return 0, false, fmt.Errorf("credit account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO burn_events (id, wallet_address, signature, amount_raw, credits_earned, recorded_at, verified)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`, event.ID, event.WalletAddress, event.Signature, event.AmountRaw,
		event.CreditsEarned.String(), event.RecordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, false, fmt.Errorf("record burn event: %w", err)
	}

	total, err := balanceTx(ctx, tx, event.WalletAddress)
	if err != nil {
		return 0, false, err
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit credit tx: %w", err)
	}
	return total, true, nil
}

func balanceTx(ctx context.Context, tx *sql.Tx, wallet string) (int64, error) {
	var raw int64
	err := tx.QueryRowContext(ctx, `
		SELECT burned_raw FROM accounts WHERE wallet_address = ?
	`, wallet).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return raw, err
}

// GetBalance returns the wallet's total burned base units, 0 when unknown.
func (s *DB) GetBalance(ctx context.Context, walletAddress string) (int64, error) {
	var raw int64
	err := s.db.QueryRowContext(ctx, `
		SELECT burned_raw FROM accounts WHERE wallet_address = ?
	`, walletAddress).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return raw, err
}

// HasProcessed reports whether a signature was already credited.
func (s *DB) HasProcessed(ctx context.Context, signature string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM processed_transactions WHERE signature = ?
	`, signature).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// ─── Audit Log Operations ───────────────────────────────────────────────────

// BurnHistory returns the wallet's accepted burn events, newest first.
func (s *DB) BurnHistory(ctx context.Context, walletAddress string, limit int) ([]domain.BurnEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet_address, signature, amount_raw, credits_earned, recorded_at, verified
		FROM burn_events WHERE wallet_address = ?
		ORDER BY recorded_at DESC LIMIT ?
	`, walletAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.BurnEvent
	for rows.Next() {
		var e domain.BurnEvent
		var credits, recorded string
		var verified int
		if err := rows.Scan(&e.ID, &e.WalletAddress, &e.Signature, &e.AmountRaw, &credits, &recorded, &verified); err != nil {
			return nil, err
		}
		e.CreditsEarned, err = decimal.NewFromString(credits)
		if err != nil {
			return nil, fmt.Errorf("corrupt credits value %q: %w", credits, err)
		}
		e.RecordedAt, _ = time.Parse(time.RFC3339, recorded)
		e.Verified = verified == 1
		events = append(events, e)
	}
	return events, rows.Err()
}

// ProcessedSignatures returns recently credited signatures, newest first.
func (s *DB) ProcessedSignatures(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signature FROM processed_transactions
		ORDER BY processed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sigs []string
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, rows.Err()
}

var _ domain.AccountStore = (*DB)(nil)
