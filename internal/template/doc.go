// Package template loads and renders mail-merge templates.
//
// A template file has the subject pattern on its first line, an empty second
// line and the body pattern from the third line on:
//
//	Finanzen der {fs_name}
//
//	Hallo {fs_name},
//	...
//
// Placeholders name columns of the data file. Rendering fails with
// *MissingPlaceholderError when a row lacks a referenced column.
package template
