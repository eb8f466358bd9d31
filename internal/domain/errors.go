package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Request errors
	ErrMissingFields = errors.New("missing required fields")
	ErrRateLimited   = errors.New("too many requests")

	// Chain verification errors
	ErrTxNotFound        = errors.New("transaction not found or not finalized")
	ErrTxFailed          = errors.New("transaction execution failed on chain")
	ErrNoBurnInstruction = errors.New("no burn instruction found for expected token")
	ErrSignerMismatch    = errors.New("transaction signer does not match wallet")

	// Accounting errors
	ErrAlreadyProcessed = errors.New("transaction already processed")

	// Infrastructure errors
	ErrChainQuery = errors.New("ledger query failed")
	ErrStorage    = errors.New("storage operation failed")
)
