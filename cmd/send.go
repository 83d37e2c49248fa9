package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/auth"
	"github.com/datendrehschei/fsen-admin/internal/config"
	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/journal"
	"github.com/datendrehschei/fsen-admin/internal/logging"
	"github.com/datendrehschei/fsen-admin/internal/mail"
	"github.com/datendrehschei/fsen-admin/internal/mailmerge"
	"github.com/datendrehschei/fsen-admin/internal/template"
)

type sendFlags struct {
	dryRunDir         string
	configFile        string
	expandPermissions bool
	journalFile       string
	stateDir          string
}

// stampPath is the dry-run stamp location for the flags.
func (f sendFlags) stampPath() string {
	if f.stateDir == "" {
		return mail.DefaultStampPath()
	}
	return filepath.Join(f.stateDir, mail.StampFileName)
}

func newSendCmd() *cobra.Command {
	var flags sendFlags

	cmd := &cobra.Command{
		Use:   "send DATA_FILE TEMPLATE_FILE",
		Short: "Send one personalised mail per row of an export",
		Long: `Send one mail per row of DATA_FILE (the output of fsen-admin export) to the
addresses in its addresses column. TEMPLATE_FILE holds the subject on the
first line, an empty second line and the body from the third line on.
{column} placeholders are replaced by the row's values; with
--expand-permissions {permissions} holds a readable list of the group's
permissions.

With --dry-run DIR every mail is written to DIR/<fs_id>.eml instead. A real
send is only possible within 30 minutes after a dry run. Real sends are paced
by send_delay from the config and a copy of each mail is stored in the sent
folder via IMAP.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd.Context(), flags, args[0], args[1], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.dryRunDir, "dry-run", "", "Write the mails as .eml files to DIR instead of sending them")
	cmd.Flags().StringVar(&flags.configFile, "config", "", fmt.Sprintf("Mail config file (default: %s; FSEN_* environment variables override)", config.DefaultPath))
	cmd.Flags().BoolVar(&flags.expandPermissions, "expand-permissions", false, "Provide {permissions} from the permissions_json column")
	cmd.Flags().StringVar(&flags.journalFile, "journal", "", "Record every mail in this SQLite journal")
	cmd.Flags().StringVar(&flags.stateDir, "state-dir", "", fmt.Sprintf("Directory of the dry-run stamp (default: %s)", filepath.Dir(mail.DefaultStampPath())))

	return cmd
}

func runSend(ctx context.Context, flags sendFlags, dataFile, templateFile string, out io.Writer) error {
	logger := logging.WithCommand(slog.Default(), "send")

	cfg, err := config.LoadMail(flags.configFile)
	if err != nil {
		return err
	}
	tmpl, err := template.Load(templateFile)
	if err != nil {
		return err
	}
	rows, err := mailmerge.LoadRows(dataFile)
	if err != nil {
		return err
	}
	if flags.expandPermissions {
		if err := mailmerge.ExpandPermissions(rows); err != nil {
			return err
		}
	}
	// Catch missing placeholders before anything is sent.
	for i, row := range rows {
		if _, _, err := tmpl.Render(row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	provider, instrConfig, shutdown, err := startInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	sender, err := mail.NewSender(ctx, mail.Options{
		Config:    cfg,
		DryRunDir: flags.dryRunDir,
		Gate:      mail.NewGate(mail.NewFileStampStore(flags.stampPath()), nil),
		Password:  auth.NewTerminalPrompter(cfg.Host),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := sender.Close(); err != nil {
			logger.Warn("failed to close mail connections", logging.Err(err))
		}
	}()

	opts := []mailmerge.Option{
		mailmerge.WithSendDelay(cfg.SendDelay),
		mailmerge.WithAudit(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)),
		mailmerge.WithMetrics(provider.Metrics()),
		mailmerge.WithLogger(logger),
	}
	if flags.journalFile != "" {
		j, err := journal.Open(flags.journalFile)
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, mailmerge.WithJournal(j))
	}

	return mailmerge.NewRunner(sender, tmpl, out, opts...).Run(ctx, rows)
}
