// Package cli implements the burngate command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "burngate",
	Short: "Token-burn verification and credit accounting gateway",
	Long: `burngate verifies reported token burns against the Solana ledger and
maintains an idempotent virtual-credit ledger for game wallets. Run
'burngate serve' to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Local overrides for development; deployment platforms inject
		// real env vars directly.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "Path to the TOML config file")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// defaultConfigPath returns ~/.burngate/config.toml, or a relative path
// when the home directory cannot be determined.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".burngate", "config.toml")
}
