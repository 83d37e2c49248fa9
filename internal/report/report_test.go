package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/permissions"
)

func addr(address string, usages ...string) fsapi.EmailAddress {
	return fsapi.EmailAddress{Address: address, Usages: usages}
}

func TestAddressSet(t *testing.T) {
	addresses := []fsapi.EmailAddress{
		addr("b@x", "finanzen"),
		addr("a@x", "finanzen", "kontakt"),
		addr("c@x", "fsl"),
		addr("a@x", "kontakt"),
		addr("d@x", "Finanzen"),
	}

	tests := []struct {
		name       string
		categories []string
		want       []string
	}{
		{"single category", []string{"finanzen"}, []string{"a@x", "b@x"}},
		{"address matching two categories appears once", []string{"finanzen", "kontakt"}, []string{"a@x", "b@x"}},
		{"all categories", []string{"finanzen", "fsl", "kontakt"}, []string{"a@x", "b@x", "c@x"}},
		{"case-sensitive", []string{"fsl"}, []string{"c@x"}},
		{"no match", []string{"unknown"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddressSet(addresses, tt.categories))
		})
	}
}

func TestOpenRequest(t *testing.T) {
	requests := []fsapi.PayoutRequest{
		{ID: "r1", Group: "1", Semester: "WiSe23", Status: "ABGELEHNT"},
		{ID: "r2", Group: "1", Semester: "WiSe23", Status: fsapi.StatusFiled},
		{ID: "r3", Group: "1", Semester: "SoSe24", Status: fsapi.StatusSubmitted},
		{ID: "r4", Group: "2", Semester: "WiSe23", Status: "ABGELEHNT"},
	}

	tests := []struct {
		name     string
		group    string
		semester string
		want     string
	}{
		{"filed request", "1", "WiSe23", "r2"},
		{"submitted request", "1", "SoSe24", "r3"},
		{"only rejected request", "2", "WiSe23", ""},
		{"no request", "3", "WiSe23", ""},
		{"semester unset", "1", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OpenRequest(tt.group, requests, tt.semester))
		})
	}
}

func TestHasNoRequest(t *testing.T) {
	requests := []fsapi.PayoutRequest{
		{ID: "r1", Group: "1", Semester: "WiSe23", Status: "ABGELEHNT"},
		{ID: "r2", Group: "2", Semester: "SoSe24", Status: fsapi.StatusSubmitted},
	}

	assert.False(t, HasNoRequest("1", requests, "WiSe23"), "a rejected request still counts")
	assert.True(t, HasNoRequest("2", requests, "WiSe23"))
	assert.True(t, HasNoRequest("3", requests, "WiSe23"))
	assert.False(t, HasNoRequest("3", requests, ""), "semester unset")
}

func TestBuild_FinancialYearFilter(t *testing.T) {
	in := Input{Groups: map[string]fsapi.Group{
		"1": {ID: "1", Name: "A", FinancialYearStart: "01.10."},
		"2": {ID: "2", Name: "B", FinancialYearStart: "01.04."},
		"3": {ID: "3", Name: "C", FinancialYearStart: "01.10. "},
	}}

	rows, err := Build(in, Options{Categories: []string{"finanzen"}, FinancialYearStart: "01.10."})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].GroupID)

	rows, err = Build(in, Options{Categories: []string{"finanzen"}})
	require.NoError(t, err)
	assert.Len(t, rows, 3, "no filter keeps every group")
}

func TestBuild_RequestFilters(t *testing.T) {
	in := Input{
		Groups: map[string]fsapi.Group{
			"1": {ID: "1", Name: "A"},
			"2": {ID: "2", Name: "B"},
			"3": {ID: "3", Name: "C"},
		},
		Requests: []fsapi.PayoutRequest{
			{ID: "r1", Group: "1", Semester: "S", Status: fsapi.StatusSubmitted},
			{ID: "r2", Group: "2", Semester: "S", Status: "ABGELEHNT"},
		},
	}

	rows, err := Build(in, Options{Categories: []string{"kontakt"}, OpenRequestSemester: "S"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].GroupID)
	assert.Equal(t, "r1", rows[0].RequestID)

	rows, err = Build(in, Options{Categories: []string{"kontakt"}, NoRequestSemester: "S"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].GroupID)

	rows, err = Build(in, Options{Categories: []string{"kontakt"}, OpenRequestSemester: "S", NoRequestSemester: "S"})
	require.NoError(t, err)
	assert.Empty(t, rows, "both filters on the same semester exclude every group")
}

func TestBuild_RequestFiltersUseMapKey(t *testing.T) {
	in := Input{
		Groups: map[string]fsapi.Group{
			"a": {Name: "A"},
			"b": {Name: "B"},
		},
		Requests: []fsapi.PayoutRequest{
			{ID: "r1", Group: "a", Semester: "S", Status: fsapi.StatusFiled},
		},
	}

	rows, err := Build(in, Options{Categories: []string{"kontakt"}, NoRequestSemester: "S"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].GroupID)

	rows, err = Build(in, Options{Categories: []string{"kontakt"}, OpenRequestSemester: "S"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].GroupID)
}

func TestBuild_Permissions(t *testing.T) {
	in := Input{
		Groups: map[string]fsapi.Group{
			"1": {ID: "1", Name: "A"},
			"2": {ID: "2", Name: "B"},
		},
		Permissions: map[string][]permissions.Permission{
			"1": {{Group: "1", ReadPublicData: true, Username: "adam", FullName: "Adam A"}},
		},
	}

	rows, err := Build(in, Options{Categories: []string{"kontakt"}, IncludePermissions: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `[{"fs":"1","read_public_data":true,"write_public_data":false,"read_protected_data":false,"write_protected_data":false,"submit_payout_request":false,"locked":false,"username":"adam","full_name":"Adam A"}]`, rows[0].PermissionsJSON)
	assert.Equal(t, "[]", rows[1].PermissionsJSON)
}

func TestBuild_InvalidCategory(t *testing.T) {
	_, err := Build(Input{}, Options{Categories: []string{"sport"}})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = Build(Input{}, Options{})
	assert.ErrorIs(t, err, ErrNoCategories)
}

func TestParseCategories(t *testing.T) {
	got, err := ParseCategories([]string{"finanzen,kontakt", "finanzen", " fsl "})
	require.NoError(t, err)
	assert.Equal(t, []string{"finanzen", "kontakt", "fsl"}, got)

	_, err = ParseCategories([]string{"finanzen,sport"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = ParseCategories([]string{","})
	assert.ErrorIs(t, err, ErrNoCategories)
}
