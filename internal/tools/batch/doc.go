// Package batch holds argument and result helpers for MCP tools that accept
// one or many items per call.
//
// Tool arguments such as categories or group ids may arrive as a single string,
// a comma separated string or a JSON array; Strings normalises all three.
// Process and Format report per-item success or failure so one bad item does
// not hide the others.
package batch
