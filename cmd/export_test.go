package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datendrehschei/fsen-admin/internal/report"
)

const cmdTestToken = "cached-token"

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	routes := map[string]string{
		"/api/v1/user/me": `{"username": "finanzreferat"}`,
		"/api/v1/data": `{
			"1": {"base": {"data": {"name": "FS Informatik", "financial_year_start": "01.10."}},
			      "protected": {"data": {"email_addresses": [
			        {"address": "b@x", "usages": ["finanzen"]},
			        {"address": "a@x", "usages": ["finanzen", "kontakt"]}]}}},
			"2": {"base": {"data": {"name": "FS Physik", "financial_year_start": null}},
			      "protected": {"data": {"email_addresses": [{"address": "p@x", "usages": ["kontakt"]}]}}}
		}`,
		"/api/v1/payout-request/afsg": `[{"request_id": "A-1", "fs": "1", "semester": "2024-SoSe", "status": "GESTELLT"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+cmdTestToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("INSTRUMENTATION_ENABLED", "false")
	t.Setenv(envTokenKey, "")
	t.Setenv(envAPIURL, "")
}

func cachedTokenFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte(cmdTestToken), 0o600))
	return path
}

func TestRunExport(t *testing.T) {
	quietEnv(t)
	srv := newPortal(t)

	tests := []struct {
		name  string
		flags exportFlags
		want  string
	}{
		{
			name:  "addresses only",
			flags: exportFlags{categories: []string{"finanzen"}},
			want:  "fs_id\tfs_name\taddresses\n1\tFS Informatik\ta@x,b@x\n2\tFS Physik\t\n",
		},
		{
			name:  "open request filter",
			flags: exportFlags{categories: []string{"finanzen,kontakt"}, openAFSG: "2024-SoSe"},
			want:  "fs_id\tfs_name\taddresses\trequest_id\n1\tFS Informatik\ta@x,b@x\tA-1\n",
		},
		{
			name:  "no request filter",
			flags: exportFlags{categories: []string{"kontakt"}, noAFSG: "2024-SoSe"},
			want:  "fs_id\tfs_name\taddresses\n2\tFS Physik\tp@x\n",
		},
		{
			name:  "financial year filter",
			flags: exportFlags{categories: []string{"kontakt"}, financialYearStart: "01.10."},
			want:  "fs_id\tfs_name\taddresses\n1\tFS Informatik\ta@x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.flags.api = apiFlags{url: srv.URL + "/api/v1", tokenFile: cachedTokenFile(t)}

			var out bytes.Buffer
			require.NoError(t, runExport(context.Background(), tt.flags, &out))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunExport_InvalidFlags(t *testing.T) {
	quietEnv(t)

	tests := []struct {
		name    string
		flags   exportFlags
		wantErr error
	}{
		{name: "unknown category", flags: exportFlags{categories: []string{"mensa"}}, wantErr: report.ErrUnknownCategory},
		{name: "no category", flags: exportFlags{}, wantErr: report.ErrNoCategories},
		{
			name:    "public source with request filter",
			flags:   exportFlags{categories: []string{"fsl"}, source: report.SourcePublic, openAFSG: "2024-SoSe"},
			wantErr: report.ErrRequestFilterUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No server: validation has to fail before any request.
			tt.flags.api = apiFlags{url: "http://127.0.0.1:1", tokenFile: filepath.Join(t.TempDir(), "token")}
			err := runExport(context.Background(), tt.flags, &bytes.Buffer{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAPIFlags_BaseURL(t *testing.T) {
	t.Setenv(envAPIURL, "")
	assert.Equal(t, "https://fsen.datendrehschei.be/api/v1", apiFlags{}.baseURL())

	t.Setenv(envAPIURL, "http://env.test/api")
	assert.Equal(t, "http://env.test/api", apiFlags{}.baseURL())
	assert.Equal(t, "http://flag.test", apiFlags{url: "http://flag.test"}.baseURL())
}

func TestAPIFlags_TokenStoreEncryption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	t.Setenv(envTokenKey, "")
	store, err := apiFlags{tokenFile: path}.tokenStore(discardLogger())
	require.NoError(t, err)
	assert.False(t, store.Encrypted())

	t.Setenv(envTokenKey, "AAECAwQFBgcICQoLDA0ODxAREhMUFRYXGBkaGxwdHh8=")
	store, err = apiFlags{tokenFile: path}.tokenStore(discardLogger())
	require.NoError(t, err)
	assert.True(t, store.Encrypted())

	t.Setenv(envTokenKey, "not base64!")
	_, err = apiFlags{tokenFile: path}.tokenStore(discardLogger())
	assert.ErrorContains(t, err, envTokenKey)
}

func TestAPIHost(t *testing.T) {
	assert.Equal(t, "fsen.datendrehschei.be", apiHost("https://fsen.datendrehschei.be/api/v1"))
	assert.Equal(t, "localhost:8080", apiHost("http://localhost:8080"))
	assert.Equal(t, "weird", apiHost("weird/"))
}
