package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/logging"
)

// rootCmd represents the base command for the fsen-admin application
var rootCmd = &cobra.Command{
	Use:   "fsen-admin",
	Short: "Administration tools for the Fachschaften portal",
	Long: `fsen-admin exports contact, permission and payout request data of the
student councils (Fachschaften) from the portal API and sends personalised
mails to them.

Typical workflow:
  fsen-admin export --categories finanzen --open-afsg "WiSe 24/25" > data.tsv
  fsen-admin send data.tsv template.txt --dry-run out/
  fsen-admin send data.tsv template.txt

Settings are read from a .env file in the working directory when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		logging.Setup(cmd.ErrOrStderr(), logLevel)
		return nil
	},
}

var (
	// version will be set by main
	version = "dev"

	logLevel string
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application. SIGINT and
// SIGTERM cancel the command context.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "fsen-admin version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
