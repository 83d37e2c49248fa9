package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrMode      = "mode"
	attrTool      = "tool"
)

// Metrics provides methods for recording observability metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	// Portal API metrics
	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram

	// Authentication metrics
	loginAttemptsTotal metric.Int64Counter

	// Export metrics
	reportRowsTotal metric.Int64Counter

	// Mail merge metrics
	mailsTotal metric.Int64Counter

	// MCP tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.apiRequestsTotal, err = meter.Int64Counter(
		"fsen_api_requests_total",
		metric.WithDescription("Total number of portal API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fsen_api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"fsen_api_request_duration_seconds",
		metric.WithDescription("Portal API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fsen_api_request_duration_seconds histogram: %w", err)
	}

	m.loginAttemptsTotal, err = meter.Int64Counter(
		"fsen_login_attempts_total",
		metric.WithDescription("Total number of API login attempts by result"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fsen_login_attempts_total counter: %w", err)
	}

	m.reportRowsTotal, err = meter.Int64Counter(
		"fsen_report_rows_total",
		metric.WithDescription("Total number of report rows written by the export"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fsen_report_rows_total counter: %w", err)
	}

	m.mailsTotal, err = meter.Int64Counter(
		"fsen_mails_total",
		metric.WithDescription("Total number of mail merge messages by mode and status"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fsen_mails_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordAPIRequest records a portal API request.
//
// Parameters:
//   - operation: logical API operation (groups, permissions, payout_requests, ...)
//   - status: "success" or "error"
//   - duration: time taken for the request
func (m *Metrics) RecordAPIRequest(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.apiRequestsTotal == nil || m.apiRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.apiRequestsTotal.Add(ctx, 1, attrs)
	m.apiRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLoginAttempt records an authentication outcome.
// Result should be one of: "success", "rejected", "cached"
func (m *Metrics) RecordLoginAttempt(ctx context.Context, result string) {
	if m == nil || m.loginAttemptsTotal == nil {
		return
	}
	m.loginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordReportRows records how many rows an export wrote.
func (m *Metrics) RecordReportRows(ctx context.Context, n int) {
	if m == nil || m.reportRowsTotal == nil {
		return
	}
	m.reportRowsTotal.Add(ctx, int64(n))
}

// RecordMail records one mail merge message.
// Mode is "dry-run" or "live"; status is "success" or "error".
func (m *Metrics) RecordMail(ctx context.Context, mode, status string) {
	if m == nil || m.mailsTotal == nil {
		return
	}
	m.mailsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMode, mode),
		attribute.String(attrStatus, status),
	))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
