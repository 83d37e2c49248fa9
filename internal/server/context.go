package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/datendrehschei/fsen-admin/internal/auth"
	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/instrumentation"
	"github.com/datendrehschei/fsen-admin/internal/report"
)

// ServerContext holds the state shared by all MCP tool handlers.
type ServerContext struct {
	ctx     context.Context
	cancel  context.CancelFunc
	apiURL  string
	store   auth.TokenStore
	api     report.API
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	mu      sync.RWMutex

	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithMetrics records tool invocations and API requests.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

// WithLogger sets the logger handed to tools.
func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = l }
}

// NewServerContext creates a new server context. Tools log in with the token
// cached in store; an empty apiURL uses fsapi.DefaultBaseURL.
func NewServerContext(ctx context.Context, apiURL string, store auth.TokenStore, opts ...Option) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	if apiURL == "" {
		apiURL = fsapi.DefaultBaseURL
	}

	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		apiURL: apiURL,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// APIURL returns the portal API base URL.
func (sc *ServerContext) APIURL() string {
	return sc.apiURL
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// SetAPI replaces the portal client, mainly for tests.
func (sc *ServerContext) SetAPI(api report.API) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.api = api
}

// APIClient returns a portal client authenticated with the cached token.
// The stdio transport has no terminal, so a missing or rejected token yields
// auth.ErrLoginRequired instead of a prompt.
func (sc *ServerContext) APIClient(ctx context.Context) (report.API, error) {
	sc.mu.RLock()
	api, shutdown := sc.api, sc.shutdown
	sc.mu.RUnlock()

	if shutdown {
		return nil, fmt.Errorf("server is shutting down")
	}
	if api != nil {
		return api, nil
	}

	opts := []fsapi.Option{fsapi.WithMetrics(sc.metrics), fsapi.WithLogger(sc.logger)}
	authenticator := auth.New(
		sc.store,
		fsapi.NewValidator(sc.apiURL, opts...),
		auth.NewPasswordGrant(fsapi.TokenURL(sc.apiURL), nil),
		auth.WithLogger(sc.logger),
		auth.WithMetrics(sc.metrics),
	)
	token, err := authenticator.Token(ctx)
	if err != nil {
		return nil, err
	}
	return fsapi.NewClient(sc.apiURL, token, opts...), nil
}

// IsShutdown returns true if the server is shutting down
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. It is safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
