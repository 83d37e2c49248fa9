// Package resources provides the read-only MCP resources of fsen-admin serve:
// a reference of categories, report columns, template fields and permission
// labels, and the login status of the cached API token.
package resources
