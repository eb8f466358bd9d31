package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// AccountStore abstracts persistent burn accounting.
type AccountStore interface {
	// CreditIfNew atomically records the event and credits its amount to the
	// wallet's account, unless the event's signature was processed before.
	// The processed-signature check and the credit are one atomic unit, so
	// concurrent duplicate submissions yield exactly one credit.
	// Returns the wallet's total burned base units after the call.
	CreditIfNew(ctx context.Context, event BurnEvent) (totalRaw int64, applied bool, err error)

	// GetBalance returns the wallet's total burned base units.
	// Unknown wallets read as 0 — reads never create accounts.
	GetBalance(ctx context.Context, walletAddress string) (int64, error)

	// HasProcessed reports whether a transaction signature was already credited.
	HasProcessed(ctx context.Context, signature string) (bool, error)

	// BurnHistory returns the wallet's accepted burn events, newest first.
	BurnHistory(ctx context.Context, walletAddress string, limit int) ([]BurnEvent, error)

	// ProcessedSignatures returns recently processed signatures, newest first
	// (for warming the replay prefilter at startup).
	ProcessedSignatures(ctx context.Context, limit int) ([]string, error)

	Close() error
}

// BurnVerifier confirms against the ledger that a transaction is a finalized,
// successful burn of the expected token by the claimed signer, and returns the
// burned amount as recorded on chain.
type BurnVerifier interface {
	VerifyBurn(ctx context.Context, signature, claimedSigner string) (amountRaw uint64, err error)
}

// RateLimiter bounds request volume per client identity.
type RateLimiter interface {
	Allow(clientKey string) bool
}

// EventPublisher emits accepted burn events to downstream consumers.
// Publishing is best-effort; failures must not fail the burn report.
type EventPublisher interface {
	PublishBurnEvent(ctx context.Context, event BurnEvent) error
}
