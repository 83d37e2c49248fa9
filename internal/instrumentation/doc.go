// Package instrumentation provides OpenTelemetry instrumentation for fsen-admin runs.
//
// fsen-admin is a batch CLI, so metrics are collected for the lifetime of a single
// command and flushed at the end: with the prometheus exporter they can be pushed to
// a Pushgateway, with otlp they are exported to a collector.
//
// # Metrics
//
//   - fsen_api_requests_total / fsen_api_request_duration_seconds: portal API calls
//     by operation and status
//   - fsen_login_attempts_total: login outcomes (success, rejected, cached)
//   - fsen_report_rows_total: rows written by the export
//   - fsen_mails_total: mail merge messages by mode (dry-run, live) and status
//   - mcp_tool_invocations_total / mcp_tool_duration_seconds: MCP tool calls
//
// # Tracing
//
// Spans are created for portal API calls (fsapi.<operation>), each mail merge
// message and MCP tool invocations (tool.<name>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - PROMETHEUS_PUSHGATEWAY_URL: push metrics here when the run ends
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_PII: delivery audit log
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(context.Background())
//
//	provider.Metrics().RecordMail(ctx, instrumentation.ModeDryRun, instrumentation.StatusSuccess)
package instrumentation
