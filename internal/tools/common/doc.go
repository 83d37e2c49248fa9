// Package common provides shared helpers for the MCP tool packages: the
// instrumentation wrapper every tool is registered through and the error
// result convention.
package common
