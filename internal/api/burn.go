package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/landgame-labs/burngate/internal/app/burnservice"
	"github.com/landgame-labs/burngate/internal/domain"
)

// ─── Burn API ───────────────────────────────────────────────────────────────
//
// POST /api/burn-tokens  — report a burn transaction, credit on verification
// GET  /api/get-balances — query a wallet's virtual-credit balance
// GET  /api/burn-history — list a wallet's accepted burns, newest first

// BurnAPI exposes the burn verification service over HTTP.
type BurnAPI struct {
	svc *burnservice.Service
}

// NewBurnAPI creates the burn API handlers.
func NewBurnAPI(svc *burnservice.Service) *BurnAPI {
	return &BurnAPI{svc: svc}
}

// burnRequest is the burn report submitted by the game client.
type burnRequest struct {
	Signature     string  `json:"transactionSignature"`
	WalletAddress string  `json:"publicKey"`
	AmountBurned  float64 `json:"amountBurned"`
}

// HandleBurnTokens processes a burn report.
// POST /api/burn-tokens
func (b *BurnAPI) HandleBurnTokens(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	balance, err := b.svc.SubmitBurn(r.Context(), clientKey(r), domain.BurnReport{
		WalletAddress: req.WalletAddress,
		Signature:     req.Signature,
		ClaimedAmount: req.AmountBurned,
	})
	if err != nil {
		status, code, msg := statusForError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"virtualBalance": json.Number(balance.String()),
	})
}

// HandleGetBalances returns a wallet's virtual-credit balance.
// Unknown wallets report a balance of 0, not an error.
// GET /api/get-balances?walletAddress=...
func (b *BurnAPI) HandleGetBalances(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("walletAddress")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}

	balance, err := b.svc.GetBalance(r.Context(), wallet)
	if err != nil {
		status, code, msg := statusForError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"virtualBalance": json.Number(balance.String()),
	})
}

// HandleBurnHistory lists a wallet's accepted burn events, newest first.
// GET /api/burn-history?walletAddress=...&limit=20
func (b *BurnAPI) HandleBurnHistory(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("walletAddress")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "walletAddress is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := b.svc.BurnHistory(r.Context(), wallet, limit)
	if err != nil {
		status, code, msg := statusForError(err)
		writeError(w, status, code, msg)
		return
	}

	type historyEntry struct {
		Signature     string      `json:"transactionSignature"`
		AmountBurned  int64       `json:"amountBurned"`
		CreditsEarned json.Number `json:"creditsEarned"`
		Timestamp     string      `json:"timestamp"`
	}
	out := make([]historyEntry, 0, len(events))
	for _, ev := range events {
		out = append(out, historyEntry{
			Signature:     ev.Signature,
			AmountBurned:  ev.AmountRaw,
			CreditsEarned: json.Number(ev.CreditsEarned.String()),
			Timestamp:     ev.RecordedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"walletAddress": wallet,
		"burns":         out,
	})
}

// statusForError maps service errors to HTTP status, machine-readable code,
// and client-facing message. Internal failures never leak detail.
func statusForError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "bad_request", "transactionSignature, publicKey and amountBurned are required"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited", "too many requests, try again later"
	case errors.Is(err, domain.ErrTxNotFound):
		return http.StatusBadRequest, "tx_not_found", "transaction not found on chain"
	case errors.Is(err, domain.ErrTxFailed):
		return http.StatusBadRequest, "tx_failed", "transaction execution failed on chain"
	case errors.Is(err, domain.ErrNoBurnInstruction):
		return http.StatusBadRequest, "no_burn_instruction", "transaction contains no qualifying burn"
	case errors.Is(err, domain.ErrSignerMismatch):
		return http.StatusBadRequest, "signer_mismatch", "transaction was not signed by the provided wallet"
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusBadRequest, "already_processed", "transaction has already been credited"
	default:
		return http.StatusInternalServerError, "internal_error", "internal error"
	}
}
