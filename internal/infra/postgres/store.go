// Package postgres implements the burn accounting store on PostgreSQL.
// It mirrors the SQLite store behind the same domain.AccountStore interface;
// the daemon picks a driver from configuration.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/landgame-labs/burngate/internal/domain"
)

// Store wraps the PostgreSQL connection for burn accounting.
type Store struct {
	db *sql.DB
}

// Open connects with the given DSN and applies migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS accounts (
			wallet_address TEXT PRIMARY KEY,
			burned_raw     BIGINT NOT NULL DEFAULT 0 CHECK (burned_raw >= 0),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS processed_transactions (
			signature      TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			processed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_wallet ON processed_transactions (wallet_address)`,
		`CREATE TABLE IF NOT EXISTS burn_events (
			id             TEXT PRIMARY KEY,
			wallet_address TEXT NOT NULL,
			signature      TEXT NOT NULL UNIQUE,
			amount_raw     BIGINT NOT NULL,
			credits_earned NUMERIC NOT NULL,
			recorded_at    TIMESTAMPTZ NOT NULL,
			verified       BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_wallet ON burn_events (wallet_address)`,
	}
}

// CreditIfNew atomically credits the event's amount unless the signature was
// processed before. ON CONFLICT DO NOTHING on the replay set is the guard.
func (s *Store) CreditIfNew(ctx context.Context, event domain.BurnEvent) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin credit tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO processed_transactions (signature, wallet_address)
		VALUES ($1, $2)
		ON CONFLICT (signature) DO NOTHING
	`, event.Signature, event.WalletAddress)
	if err != nil {
		return 0, false, fmt.Errorf("record signature: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if inserted == 0 {
		raw, err := s.GetBalance(ctx, event.WalletAddress)
		return raw, false, err
	}

	var total int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO accounts (wallet_address, burned_raw)
		VALUES ($1, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET
			burned_raw = accounts.burned_raw + EXCLUDED.burned_raw,
			updated_at = now()
		RETURNING burned_raw
	`, event.WalletAddress, event.AmountRaw).Scan(&total)
	if err != nil {
		return 0, false, fmt.Errorf("credit account: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO burn_events (id, wallet_address, signature, amount_raw, credits_earned, recorded_at, verified)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, event.ID, event.WalletAddress, event.Signature, event.AmountRaw,
		event.CreditsEarned, event.RecordedAt.UTC())
	if err != nil {
		return 0, false, fmt.Errorf("record burn event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit credit tx: %w", err)
	}
	return total, true, nil
}

// GetBalance returns the wallet's total burned base units, 0 when unknown.
func (s *Store) GetBalance(ctx context.Context, walletAddress string) (int64, error) {
	var raw int64
	err := s.db.QueryRowContext(ctx, `
		SELECT burned_raw FROM accounts WHERE wallet_address = $1
	`, walletAddress).Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return raw, err
}

// HasProcessed reports whether a signature was already credited.
func (s *Store) HasProcessed(ctx context.Context, signature string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM processed_transactions WHERE signature = $1
	`, signature).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// BurnHistory returns the wallet's accepted burn events, newest first.
func (s *Store) BurnHistory(ctx context.Context, walletAddress string, limit int) ([]domain.BurnEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, wallet_address, signature, amount_raw, credits_earned, recorded_at, verified
		FROM burn_events WHERE wallet_address = $1
		ORDER BY recorded_at DESC LIMIT $2
	`, walletAddress, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.BurnEvent
	for rows.Next() {
		var e domain.BurnEvent
		if err := rows.Scan(&e.ID, &e.WalletAddress, &e.Signature, &e.AmountRaw,
			&e.CreditsEarned, &e.RecordedAt, &e.Verified); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ProcessedSignatures returns recently credited signatures, newest first.
func (s *Store) ProcessedSignatures(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT signature FROM processed_transactions
		ORDER BY processed_at DESC LIMIT $1
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

var _ domain.AccountStore = (*Store)(nil)
