package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/logging"
)

// instrumentationShutdownTimeout bounds the final metrics push.
const instrumentationShutdownTimeout = 10 * time.Second

// startInstrumentation creates the provider from the environment. The returned
// function flushes it, pushing metrics to the Pushgateway when configured.
func startInstrumentation(ctx context.Context) (*instrumentation.Provider, instrumentation.Config, func(), error) {
	cfg := instrumentation.DefaultConfig()
	cfg.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, cfg)
	if err != nil {
		return nil, cfg, nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	shutdown := func() {
		// The command context may already be cancelled by a signal.
		ctx, cancel := context.WithTimeout(context.Background(), instrumentationShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			slog.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}
	return provider, cfg, shutdown, nil
}
