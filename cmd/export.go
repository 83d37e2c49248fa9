package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/auth"
	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/logging"
	"github.com/datendrehschei/fsen-admin/internal/report"
)

// Environment variables read by the export and serve commands.
const (
	envAPIURL   = "FSEN_API_URL"
	envTokenKey = "FSEN_TOKEN_KEY"
)

type exportFlags struct {
	categories         []string
	financialYearStart string
	openAFSG           string
	noAFSG             string
	permissions        bool
	source             string
	excludeUsers       []string
	api                apiFlags
	maxLoginAttempts   uint
}

// apiFlags locate the portal API and the token cache.
type apiFlags struct {
	url       string
	tokenFile string
}

func (f *apiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "api-url", "", fmt.Sprintf("Portal API base URL (default: $%s or %s)", envAPIURL, fsapi.DefaultBaseURL))
	cmd.Flags().StringVar(&f.tokenFile, "token-file", "", fmt.Sprintf("Token cache file (default: %s)", auth.DefaultTokenPath()))
}

func (f apiFlags) baseURL() string {
	if f.url != "" {
		return f.url
	}
	if env := os.Getenv(envAPIURL); env != "" {
		return env
	}
	return fsapi.DefaultBaseURL
}

// tokenStore opens the token cache, encrypted when FSEN_TOKEN_KEY is set.
func (f apiFlags) tokenStore(logger *slog.Logger) (*auth.FileStore, error) {
	path := f.tokenFile
	if path == "" {
		path = auth.DefaultTokenPath()
	}

	var enc *auth.TokenEncryption
	if raw := os.Getenv(envTokenKey); raw != "" {
		key, err := auth.EncryptionKeyFromBase64(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envTokenKey, err)
		}
		enc, err = auth.NewTokenEncryption(key)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", envTokenKey, err)
		}
	}

	store := auth.NewFileStore(path, enc)
	if !store.Encrypted() {
		logger.Warn("API token is cached unencrypted; set "+envTokenKey+" (see fsen-admin keygen)",
			slog.String("path", path))
	}
	return store, nil
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export group contacts, permissions and payout requests as TSV",
		Long: `Export one row per student council with the addresses of the requested
usage categories, tab-separated on stdout.

Columns: fs_id, fs_name, addresses, then permissions_json with --permissions
and request_id with --open-afsg.

The API token is cached between runs. When it is missing or no longer
accepted, username and password are prompted for on the terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&flags.categories, "categories", "c", nil, "Address usage categories: finanzen, fsl, kontakt (repeatable or comma-separated)")
	cmd.Flags().StringVar(&flags.financialYearStart, "financial-year-start", "", "Only groups whose financial year starts on this marker")
	cmd.Flags().StringVar(&flags.openAFSG, "open-afsg", "", "Only groups with an open payout request in SEMESTER; adds request_id")
	cmd.Flags().StringVar(&flags.noAFSG, "no-afsg", "", "Only groups without any payout request in SEMESTER")
	cmd.Flags().BoolVar(&flags.permissions, "permissions", false, "Add the permissions_json column")
	cmd.Flags().StringVar(&flags.source, "source", report.SourceProtected, "Group dataset: protected or public")
	cmd.Flags().StringSliceVar(&flags.excludeUsers, "exclude-user", []string{fsapi.DefaultExcludedUser}, "Users left out of the permission lists")
	cmd.Flags().UintVar(&flags.maxLoginAttempts, "max-login-attempts", 0, "Give up after this many rejected logins (0: keep asking)")
	flags.api.register(cmd)
	_ = cmd.MarkFlagRequired("categories")

	return cmd
}

func runExport(ctx context.Context, flags exportFlags, out io.Writer) error {
	logger := logging.WithCommand(slog.Default(), "export")

	categories, err := report.ParseCategories(flags.categories)
	if err != nil {
		return err
	}
	opts := report.ExportOptions{
		Options: report.Options{
			Categories:          categories,
			FinancialYearStart:  flags.financialYearStart,
			OpenRequestSemester: flags.openAFSG,
			NoRequestSemester:   flags.noAFSG,
			IncludePermissions:  flags.permissions,
		},
		Source:       flags.source,
		ExcludeUsers: flags.excludeUsers,
	}
	// Fail on bad flag combinations before asking for a password.
	if err := opts.Validate(); err != nil {
		return err
	}

	provider, _, shutdown, err := startInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer shutdown()
	metrics := provider.Metrics()

	store, err := flags.api.tokenStore(logger)
	if err != nil {
		return err
	}

	baseURL := flags.api.baseURL()
	apiOpts := []fsapi.Option{fsapi.WithMetrics(metrics), fsapi.WithLogger(logger)}
	authenticator := auth.New(
		store,
		fsapi.NewValidator(baseURL, apiOpts...),
		auth.NewPasswordGrant(fsapi.TokenURL(baseURL), nil),
		auth.WithPrompter(auth.NewTerminalPrompter(apiHost(baseURL))),
		auth.WithRetryPolicy(auth.RetryPolicy{MaxAttempts: flags.maxLoginAttempts}),
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
	)

	ctx, span := instrumentation.StartSpan(ctx, "export")
	defer span.End()

	token, err := authenticator.Token(ctx)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	rows, err := report.Export(ctx, fsapi.NewClient(baseURL, token, apiOpts...), opts, logger)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}
	metrics.RecordReportRows(ctx, len(rows))

	if err := report.NewWriter(out, opts.Options).WriteAll(rows); err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to write report: %w", err)
	}
	instrumentation.SetSpanSuccess(span)
	return nil
}

// apiHost returns the host shown in the login prompt.
func apiHost(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(baseURL, "/")
	}
	return u.Host
}
