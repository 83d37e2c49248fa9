package mailmerge

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/datendrehschei/fsen-admin/internal/permissions"
	"github.com/datendrehschei/fsen-admin/internal/report"
)

// ColumnPermissionLabels is the field added by ExpandPermissions.
const ColumnPermissionLabels = "permissions"

// Row is one line of the data file keyed by header column.
type Row map[string]string

// LoadRows reads a tab-separated data file with a header line.
func LoadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadRows parses tab-separated data with a header line. Every row must have
// as many fields as the header.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("data file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExpandPermissions adds the formatted permission block of each row's
// permissions_json column as the "permissions" field.
func ExpandPermissions(rows []Row) error {
	for i, row := range rows {
		raw, ok := row[report.ColumnPermissions]
		if !ok {
			return fmt.Errorf("row %d: column %q missing; export with --permissions", i+1, report.ColumnPermissions)
		}
		text, err := permissions.ExpandJSON(raw)
		if err != nil {
			return fmt.Errorf("row %d (fs_id %s): %w", i+1, row[report.ColumnGroupID], err)
		}
		row[ColumnPermissionLabels] = text
	}
	return nil
}

// Find returns the first row of group fsID.
func Find(rows []Row, fsID string) (Row, bool) {
	for _, row := range rows {
		if row[report.ColumnGroupID] == fsID {
			return row, true
		}
	}
	return nil, false
}
