// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Account Types ──────────────────────────────────────────────────────────

// Account is the per-wallet credit record. One exists per wallet address that
// has at least one accepted burn; wallets never seen read as a zero balance.
type Account struct {
	WalletAddress string    `json:"wallet_address"`
	BurnedRaw     int64     `json:"burned_raw"` // lifetime burned amount in token base units
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BurnEvent is a single accepted burn report. Events are append-only: written
// exactly once, after on-chain verification, and never mutated.
type BurnEvent struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"wallet_address"`
	Signature     string          `json:"signature"` // transaction reference, unique across all events
	AmountRaw     int64           `json:"amount_raw"`
	CreditsEarned decimal.Decimal `json:"credits_earned"`
	RecordedAt    time.Time       `json:"recorded_at"`
	Verified      bool            `json:"verified"`
}

// ─── Burn Report Types ──────────────────────────────────────────────────────

// BurnReport is a client's claim that it burned tokens in a given transaction.
// The claimed amount is used for validation only; the credited amount always
// comes from the chain record.
type BurnReport struct {
	WalletAddress string
	Signature     string
	ClaimedAmount float64
}

// Complete reports whether all required fields are present.
func (r BurnReport) Complete() bool {
	return r.WalletAddress != "" && r.Signature != "" && r.ClaimedAmount > 0
}
