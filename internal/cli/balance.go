package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/landgame-labs/burngate/internal/daemon"
	"github.com/landgame-labs/burngate/internal/domain"
	"github.com/landgame-labs/burngate/internal/infra/postgres"
	"github.com/landgame-labs/burngate/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
}

// ─── balance ────────────────────────────────────────────────────────────────

var balanceCmd = &cobra.Command{
	Use:   "balance WALLET_ADDRESS",
	Short: "Show a wallet's virtual-credit balance",
	Long:  `Look up a wallet's virtual-credit balance directly in the configured store.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	cfg, store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	raw, err := store.GetBalance(ctx, args[0])
	if err != nil {
		return fmt.Errorf("balance lookup: %w", err)
	}

	convert := domain.NewConverter(cfg.Credits.BaseUnitsPerCredit)
	fmt.Fprintf(os.Stdout, "Wallet:  %s\n", args[0])
	fmt.Fprintf(os.Stdout, "Burned:  %d base units\n", raw)
	fmt.Fprintf(os.Stdout, "Credits: %s\n", convert.Credits(raw))
	return nil
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history WALLET_ADDRESS",
	Short: "Show a wallet's accepted burns",
	Long:  `List a wallet's accepted burn events, newest first.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	events, err := store.BurnHistory(ctx, args[0], 50)
	if err != nil {
		return fmt.Errorf("history lookup: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No burns recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "Burns for %s (%d):\n", args[0], len(events))
	for _, ev := range events {
		fmt.Fprintf(os.Stdout, "  %s  %12d units  %8s credits  %s\n",
			ev.RecordedAt.UTC().Format(time.RFC3339), ev.AmountRaw, ev.CreditsEarned, ev.Signature)
	}
	return nil
}

// openConfiguredStore loads the config and opens the account store it names.
// Load errors are tolerated: read-only commands work from defaults even when
// the daemon config is incomplete (e.g. no mint configured yet).
func openConfiguredStore() (daemon.Config, domain.AccountStore, error) {
	cfg, _ := daemon.Load(configPath)

	var store domain.AccountStore
	var err error
	switch cfg.Storage.Driver {
	case "postgres":
		store, err = postgres.Open(cfg.Storage.DSN)
	default:
		store, err = sqlite.Open(cfg.Storage.Path)
	}
	if err != nil {
		return cfg, nil, fmt.Errorf("open store: %w", err)
	}
	return cfg, store, nil
}
