package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/datendrehschei/fsen-admin/internal/logging"
	"github.com/datendrehschei/fsen-admin/internal/resources"
	"github.com/datendrehschei/fsen-admin/internal/server"
	"github.com/datendrehschei/fsen-admin/internal/tools/mail_tools"
	"github.com/datendrehschei/fsen-admin/internal/tools/report_tools"
)

type serveFlags struct {
	api         apiFlags
	metricsAddr string
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout exposing the
read-only parts of fsen-admin to AI assistants:

  fsen_export_report  the export, returned as TSV text
  fsen_preview_mail   the rendered .eml of a mail merge row

The server cannot prompt for credentials. Run fsen-admin export once in a
terminal so that a valid API token is cached. Nothing is ever sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	flags.api.register(cmd)
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address (requires METRICS_EXPORTER=prometheus)")

	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	logger := logging.WithCommand(slog.Default(), "serve")

	provider, _, shutdown, err := startInstrumentation(ctx)
	if err != nil {
		return err
	}
	defer shutdown()

	if flags.metricsAddr != "" {
		metricsServer, err := server.NewMetricsServer(flags.metricsAddr, provider, logger)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		if err := metricsServer.Listen(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Serve(); err != nil {
				logger.Error("metrics server stopped", logging.Err(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	store, err := flags.api.tokenStore(logger)
	if err != nil {
		return err
	}
	serverContext := server.NewServerContext(ctx, flags.api.baseURL(), store,
		server.WithMetrics(provider.Metrics()),
		server.WithLogger(logger),
	)
	defer func() { _ = serverContext.Shutdown() }()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	logger.Info("starting MCP server on stdio")
	return runStdioServer(ctx, mcpSrv)
}

// newMCPServer creates the MCP server with every tool and resource registered.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer("fsen-admin", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	registrations := []struct {
		name     string
		register func(*mcpserver.MCPServer, *server.ServerContext) error
	}{
		{name: "report", register: report_tools.RegisterReportTools},
		{name: "mail", register: mail_tools.RegisterMailTools},
		{name: "resource", register: resources.RegisterResources},
	}
	for _, r := range registrations {
		if err := r.register(mcpSrv, sc); err != nil {
			return nil, fmt.Errorf("failed to register %s handlers: %w", r.name, err)
		}
	}
	return mcpSrv, nil
}

// runStdioServer serves until stdin closes or ctx is cancelled.
func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
