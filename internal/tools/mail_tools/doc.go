// Package mail_tools exposes a read-only preview of the mail merge as the
// fsen_preview_mail MCP tool.
package mail_tools
