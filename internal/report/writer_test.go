package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datendrehschei/fsen-admin/internal/fsapi"
)

func TestColumns(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"base", Options{}, []string{"fs_id", "fs_name", "addresses"}},
		{"permissions", Options{IncludePermissions: true}, []string{"fs_id", "fs_name", "addresses", "permissions_json"}},
		{"open request", Options{OpenRequestSemester: "S"}, []string{"fs_id", "fs_name", "addresses", "request_id"}},
		{"no request adds no column", Options{NoRequestSemester: "S"}, []string{"fs_id", "fs_name", "addresses"}},
		{"all", Options{IncludePermissions: true, OpenRequestSemester: "S"}, []string{"fs_id", "fs_name", "addresses", "permissions_json", "request_id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Columns(tt.opts))
		})
	}
}

func TestWriter_TwoGroups(t *testing.T) {
	in := Input{Groups: map[string]fsapi.Group{
		"2": {ID: "2", Name: "FS Physik", EmailAddresses: []fsapi.EmailAddress{
			{Address: "info@phys", Usages: []string{"kontakt"}},
		}},
		"1": {ID: "1", Name: "FS Informatik", EmailAddresses: []fsapi.EmailAddress{
			{Address: "b@x", Usages: []string{"finanzen"}},
			{Address: "a@x", Usages: []string{"finanzen"}},
		}},
	}}
	opts := Options{Categories: []string{"finanzen"}}

	rows, err := Build(in, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, opts).WriteAll(rows))
	assert.Equal(t, "fs_id\tfs_name\taddresses\n"+
		"1\tFS Informatik\ta@x,b@x\n"+
		"2\tFS Physik\t\n", buf.String())
}

func TestWriter_OptionalColumns(t *testing.T) {
	opts := Options{Categories: []string{"finanzen"}, IncludePermissions: true, OpenRequestSemester: "S"}
	var buf bytes.Buffer
	w := NewWriter(&buf, opts)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write(Row{GroupID: "7", GroupName: "FS\tMathe", Addresses: "m@x", PermissionsJSON: "[]", RequestID: "r7"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, "fs_id\tfs_name\taddresses\tpermissions_json\trequest_id\n"+
		"7\tFS Mathe\tm@x\t[]\tr7\n", buf.String())
}
