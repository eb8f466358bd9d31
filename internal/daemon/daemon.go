package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/landgame-labs/burngate/internal/api"
	"github.com/landgame-labs/burngate/internal/app/burnservice"
	"github.com/landgame-labs/burngate/internal/domain"
	"github.com/landgame-labs/burngate/internal/infra/kafka"
	"github.com/landgame-labs/burngate/internal/infra/postgres"
	"github.com/landgame-labs/burngate/internal/infra/ratelimit"
	"github.com/landgame-labs/burngate/internal/infra/replayfilter"
	"github.com/landgame-labs/burngate/internal/infra/solana"
	"github.com/landgame-labs/burngate/internal/infra/sqlite"
)

// warmLimit caps how many processed signatures are loaded into the replay
// prefilter at startup.
const warmLimit = 100_000

// Run starts the burn gateway and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg Config, log *logrus.Logger) error {
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	seen := replayfilter.New(replayfilter.DefaultConfig())
	sigs, err := store.ProcessedSignatures(ctx, warmLimit)
	if err != nil {
		return fmt.Errorf("warm replay filter: %w", err)
	}
	seen.Warm(sigs)
	log.WithField("signatures", len(sigs)).Info("replay filter warmed")

	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimitWindow())
	if cfg.RateLimit.CleanupSeconds > 0 {
		limiter.StartCleanup(ctx, time.Duration(cfg.RateLimit.CleanupSeconds)*time.Second)
	}

	verifier, err := solana.NewVerifier(cfg.Solana.RPCURL, cfg.Solana.Mint, cfg.VerifyTimeout())
	if err != nil {
		return fmt.Errorf("init verifier: %w", err)
	}

	var publisher domain.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer kp.Close()
		publisher = kp
		log.WithFields(logrus.Fields{
			"brokers": cfg.Kafka.Brokers,
			"topic":   cfg.Kafka.Topic,
		}).Info("burn event feed enabled")
	}

	svc := burnservice.New(limiter, verifier, store, publisher, seen,
		domain.NewConverter(cfg.Credits.BaseUnitsPerCredit), log)

	server := api.NewServer(api.NewBurnAPI(svc))
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.ListenAddr(),
			"storage": cfg.Storage.Driver,
			"mint":    cfg.Solana.Mint,
			"ratio":   cfg.Credits.BaseUnitsPerCredit,
		}).Info("burn gateway listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openStore builds the account store for the configured driver.
func openStore(cfg Config) (domain.AccountStore, error) {
	switch cfg.Storage.Driver {
	case "sqlite":
		return sqlite.Open(cfg.Storage.Path)
	case "postgres":
		return postgres.Open(cfg.Storage.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
