// Package burnservice orchestrates burn-report processing: rate limiting,
// on-chain verification, and idempotent credit accounting.
//
// Stages are ordered so the irreversible mutation — crediting — is strictly
// last; a rejection at any stage leaves accounts untouched:
//
//	Received → RateChecked → ChainVerified → Credited → Responded
package burnservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/landgame-labs/burngate/internal/domain"
	"github.com/landgame-labs/burngate/internal/infra/observability"
	"github.com/landgame-labs/burngate/internal/infra/replayfilter"
)

// Service processes burn reports and serves balance queries.
type Service struct {
	limiter   domain.RateLimiter
	verifier  domain.BurnVerifier
	store     domain.AccountStore
	publisher domain.EventPublisher // nil when eventing is disabled
	seen      *replayfilter.Filter  // nil disables the prefilter
	convert   domain.Converter
	log       *logrus.Logger
}

// New creates the service. publisher and seen may be nil.
func New(limiter domain.RateLimiter, verifier domain.BurnVerifier, store domain.AccountStore,
	publisher domain.EventPublisher, seen *replayfilter.Filter, convert domain.Converter,
	log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		limiter:   limiter,
		verifier:  verifier,
		store:     store,
		publisher: publisher,
		seen:      seen,
		convert:   convert,
		log:       log,
	}
}

// SubmitBurn processes one burn report and returns the wallet's updated
// virtual-credit balance. clientKey identifies the caller for rate limiting.
//
// The credited amount is always the amount verified on chain — the client's
// claimed amount is validated for presence but never trusted for crediting.
func (s *Service) SubmitBurn(ctx context.Context, clientKey string, report domain.BurnReport) (decimal.Decimal, error) {
	if !report.Complete() {
		observability.BurnRequests.WithLabelValues("bad_request").Inc()
		return decimal.Zero, domain.ErrMissingFields
	}

	if !s.limiter.Allow(clientKey) {
		observability.BurnRequests.WithLabelValues("rate_limited").Inc()
		return decimal.Zero, domain.ErrRateLimited
	}

	// Replay prefilter: a hit is only a hint and is confirmed against the
	// store, so a false positive cannot reject a fresh transaction.
	if s.seen != nil && s.seen.MaybeSeen(report.Signature) {
		processed, err := s.store.HasProcessed(ctx, report.Signature)
		if err != nil {
			return decimal.Zero, s.storageFailure("replay lookup", report, err)
		}
		if processed {
			observability.ReplayPrefilterHits.Inc()
			observability.BurnRequests.WithLabelValues("already_processed").Inc()
			return decimal.Zero, domain.ErrAlreadyProcessed
		}
	}

	start := time.Now()
	amountRaw, err := s.verifier.VerifyBurn(ctx, report.Signature, report.WalletAddress)
	observability.VerifyDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		observability.BurnRequests.WithLabelValues(verifyOutcome(err)).Inc()
		if errors.Is(err, domain.ErrChainQuery) {
			s.log.WithError(err).WithField("signature", report.Signature).Error("ledger query failed")
		}
		return decimal.Zero, err
	}

	event := domain.BurnEvent{
		ID:            uuid.NewString(),
		WalletAddress: report.WalletAddress,
		Signature:     report.Signature,
		AmountRaw:     int64(amountRaw),
		CreditsEarned: s.convert.Credits(int64(amountRaw)),
		RecordedAt:    time.Now().UTC(),
		Verified:      true,
	}

	totalRaw, applied, err := s.store.CreditIfNew(ctx, event)
	if err != nil {
		return decimal.Zero, s.storageFailure("credit", report, err)
	}
	if s.seen != nil {
		s.seen.Add(report.Signature)
	}
	if !applied {
		observability.BurnRequests.WithLabelValues("already_processed").Inc()
		return decimal.Zero, domain.ErrAlreadyProcessed
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBurnEvent(ctx, event); err != nil {
			// Best-effort: the credit is committed; only the feed missed it.
			s.log.WithError(err).WithField("signature", event.Signature).Warn("publish burn event failed")
		}
	}

	observability.BurnRequests.WithLabelValues("accepted").Inc()
	observability.CreditsAwarded.Add(event.CreditsEarned.InexactFloat64())
	s.log.WithFields(logrus.Fields{
		"wallet":    event.WalletAddress,
		"signature": event.Signature,
		"amount":    event.AmountRaw,
		"credits":   event.CreditsEarned.String(),
	}).Info("burn credited")

	return s.convert.Credits(totalRaw), nil
}

// GetBalance returns the wallet's virtual-credit balance, 0 when unknown.
// Read-only: it never creates an account.
func (s *Service) GetBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	observability.BalanceQueries.Inc()
	raw, err := s.store.GetBalance(ctx, walletAddress)
	if err != nil {
		s.log.WithError(err).WithField("wallet", walletAddress).Error("balance lookup failed")
		return decimal.Zero, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return s.convert.Credits(raw), nil
}

// BurnHistory returns the wallet's accepted burn events, newest first.
func (s *Service) BurnHistory(ctx context.Context, walletAddress string, limit int) ([]domain.BurnEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	events, err := s.store.BurnHistory(ctx, walletAddress, limit)
	if err != nil {
		s.log.WithError(err).WithField("wallet", walletAddress).Error("history lookup failed")
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return events, nil
}

// Converter exposes the credit conversion for callers that render balances.
func (s *Service) Converter() domain.Converter { return s.convert }

func (s *Service) storageFailure(op string, report domain.BurnReport, err error) error {
	observability.BurnRequests.WithLabelValues("error").Inc()
	s.log.WithError(err).WithFields(logrus.Fields{
		"op":        op,
		"wallet":    report.WalletAddress,
		"signature": report.Signature,
	}).Error("storage operation failed")
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}

func verifyOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrTxNotFound):
		return "tx_not_found"
	case errors.Is(err, domain.ErrTxFailed):
		return "tx_failed"
	case errors.Is(err, domain.ErrNoBurnInstruction):
		return "no_burn_instruction"
	case errors.Is(err, domain.ErrSignerMismatch):
		return "signer_mismatch"
	default:
		return "error"
	}
}
