// Package server holds the state shared by the MCP tools of fsen-admin serve.
//
// # Key Components
//
// ServerContext carries the API base URL, the token store and the
// instrumentation handles. APIClient authenticates with the cached token only;
// the stdio transport cannot prompt, so operators log in once with
// fsen-admin export before starting the server.
//
// MetricsServer optionally exposes the Prometheus registry of the
// instrumentation provider on /metrics, plus /healthz, for the lifetime of the
// server.
package server
