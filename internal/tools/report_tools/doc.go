// Package report_tools exposes the data export as the fsen_export_report MCP
// tool. Arguments mirror the flags of fsen-admin export; the result is the
// same tab-separated text the command prints.
package report_tools
