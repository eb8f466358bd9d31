package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/landgame-labs/burngate/internal/daemon"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("json-logs", false, "Emit logs as JSON")
	serveCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the burn gateway HTTP server",
	Long: `Start the HTTP API that accepts burn reports, verifies them against
the Solana ledger, and serves virtual-credit balances. The server runs
until interrupted and shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	cfg, err := daemon.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return daemon.Run(ctx, cfg, log)
}

// newLogger builds the process logger from the serve flags.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if jsonLogs, _ := cmd.Flags().GetBool("json-logs"); jsonLogs {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	levelStr, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
