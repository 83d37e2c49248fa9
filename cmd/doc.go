// Package cmd implements the command-line interface for fsen-admin.
//
// This package provides the following commands:
//   - export: Write the tab-separated group report from the portal API
//   - send: Mail merge a report with a template, as dry run or for real
//   - history: List the send journal
//   - serve: Start the MCP server to provide tools for AI assistants
//   - keygen: Print a key for encrypting the cached API token
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
