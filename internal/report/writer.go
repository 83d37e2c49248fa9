package report

import (
	"bufio"
	"io"
	"strings"
)

// Column names of the TSV export. Templates refer to them as placeholders.
const (
	ColumnGroupID     = "fs_id"
	ColumnGroupName   = "fs_name"
	ColumnAddresses   = "addresses"
	ColumnPermissions = "permissions_json"
	ColumnRequestID   = "request_id"
)

// Columns returns the header for opts.
func Columns(opts Options) []string {
	cols := []string{ColumnGroupID, ColumnGroupName, ColumnAddresses}
	if opts.IncludePermissions {
		cols = append(cols, ColumnPermissions)
	}
	if opts.OpenRequestSemester != "" {
		cols = append(cols, ColumnRequestID)
	}
	return cols
}

// Tabs and line breaks inside values would shift columns.
var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// Writer writes report rows as tab-separated values. Values are written
// without quoting.
type Writer struct {
	w    *bufio.Writer
	cols []string
}

// NewWriter returns a Writer for the columns selected by opts.
func NewWriter(w io.Writer, opts Options) *Writer {
	return &Writer{w: bufio.NewWriter(w), cols: Columns(opts)}
}

// WriteHeader writes the header line.
func (w *Writer) WriteHeader() error {
	return w.line(w.cols)
}

// Write writes one row.
func (w *Writer) Write(r Row) error {
	values := make([]string, 0, len(w.cols))
	for _, c := range w.cols {
		var v string
		switch c {
		case ColumnGroupID:
			v = r.GroupID
		case ColumnGroupName:
			v = r.GroupName
		case ColumnAddresses:
			v = r.Addresses
		case ColumnPermissions:
			v = r.PermissionsJSON
		case ColumnRequestID:
			v = r.RequestID
		}
		values = append(values, cellReplacer.Replace(v))
	}
	return w.line(values)
}

// WriteAll writes the header and all rows, then flushes.
func (w *Writer) WriteAll(rows []Row) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) line(values []string) error {
	if _, err := w.w.WriteString(strings.Join(values, "\t")); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}
