package instrumentation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, config Config) *Provider {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, config)
	require.NoError(t, err)
	return provider
}

func TestNewProvider_Disabled(t *testing.T) {
	provider := newTestProvider(t, Config{ServiceName: "test-service", Enabled: false})

	assert.False(t, provider.Enabled())
	require.NotNil(t, provider.Metrics())
	assert.Nil(t, provider.Gatherer())
	assert.NoError(t, provider.Push(context.Background()))
	assert.NoError(t, provider.Shutdown(context.Background()))

	// no-op recorder must not panic
	provider.Metrics().RecordMail(context.Background(), ModeLive, StatusSuccess)
	provider.Tracer("test").Start(context.Background(), "noop")
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: true, MetricsExporter: "graphite"})
	assert.Error(t, err)
}

func TestProvider_PrometheusGathersRecordedMetrics(t *testing.T) {
	provider := newTestProvider(t, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx := context.Background()
	m := provider.Metrics()
	m.RecordAPIRequest(ctx, "groups", StatusSuccess, 120*time.Millisecond)
	m.RecordLoginAttempt(ctx, LoginResultCached)
	m.RecordReportRows(ctx, 3)
	m.RecordMail(ctx, ModeDryRun, StatusSuccess)
	m.RecordToolInvocation(ctx, "fsen_export_report", StatusError, time.Second)

	families, err := provider.Gatherer().Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, " ")
	for _, want := range []string{"fsen_api_requests", "fsen_login_attempts", "fsen_report_rows", "fsen_mails", "mcp_tool_invocations"} {
		assert.Contains(t, joined, want)
	}
}

func TestProvider_PushesToPushgateway(t *testing.T) {
	var pushes atomic.Int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	provider := newTestProvider(t, Config{
		ServiceName:     "test-service",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		PushgatewayURL:  srv.URL,
		PushJob:         "fsen-admin-test",
	})

	provider.Metrics().RecordMail(context.Background(), ModeLive, StatusSuccess)
	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Equal(t, int32(1), pushes.Load())
	assert.Equal(t, "/metrics/job/fsen-admin-test", path.Load())
}

func TestProvider_StdoutTracing(t *testing.T) {
	provider := newTestProvider(t, Config{
		ServiceName:       "test-service",
		Enabled:           true,
		MetricsExporter:   ExporterPrometheus,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := StartAPISpan(context.Background(), "groups")
	assert.NotEmpty(t, GetTraceID(ctx))
	SetSpanSuccess(span)
	span.End()
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordAPIRequest(ctx, "groups", StatusSuccess, time.Millisecond)
	m.RecordLoginAttempt(ctx, LoginResultSuccess)
	m.RecordReportRows(ctx, 1)
	m.RecordMail(ctx, ModeLive, StatusError)
	m.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
}
