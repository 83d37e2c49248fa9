package mail_tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datendrehschei/fsen-admin/internal/config"
	"github.com/datendrehschei/fsen-admin/internal/mail"
	"github.com/datendrehschei/fsen-admin/internal/mailmerge"
	"github.com/datendrehschei/fsen-admin/internal/server"
	"github.com/datendrehschei/fsen-admin/internal/template"
	"github.com/datendrehschei/fsen-admin/internal/tools/batch"
)

type fixture struct {
	data, tmpl, config string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}
	perms := `[{"fs":"42","read_public_data":true,"write_public_data":false,"read_protected_data":false,"write_protected_data":false,"submit_payout_request":false,"locked":false,"username":"anna","full_name":"Anna"}]`
	return fixture{
		data: write("data.tsv", "fs_id\tfs_name\taddresses\tpermissions_json\n"+
			"42\tFS Informatik\ta@x,b@x\t"+perms+"\n"+
			"7\tFS Physik\tp@x\t[]\n"),
		tmpl:   write("template.txt", "Unterlagen {fs_name}\n\nHallo {fs_name},\n{permissions}\n"),
		config: write("config.json", `{"from_name": "Finanzreferat", "mail_user": "fin@example.org", "mail_host": "mail.example.org"}`),
	}
}

func callTool(t *testing.T, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolPreviewMail
	req.Params.Arguments = args

	result, err := handlePreviewMail(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func fixClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestRegisterMailTools(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	sc := server.NewServerContext(context.Background(), "", nil, server.WithLogger(slog.New(slog.DiscardHandler)))
	defer func() { _ = sc.Shutdown() }()
	assert.NoError(t, RegisterMailTools(s, sc))
}

func TestPreviewMail(t *testing.T) {
	fixClock(t)
	f := newFixture(t)

	result := callTool(t, map[string]any{
		"data_file":          f.data,
		"template_file":      f.tmpl,
		"fs_id":              "42",
		"expand_permissions": true,
		"config_file":        f.config,
	})
	require.False(t, result.IsError, resultText(t, result))

	eml := resultText(t, result)
	assert.Contains(t, eml, "From: \"Finanzreferat\" <fin@example.org>\r\n")
	assert.Contains(t, eml, "To: a@x, b@x\r\n")
	assert.Contains(t, eml, "Subject: Unterlagen FS Informatik\r\n")
	assert.Contains(t, eml, "Date: Tue, 01 Oct 2024 12:00:00 +0000\r\n")
	assert.Contains(t, eml, "Content-Transfer-Encoding: quoted-printable\r\n")
	assert.Contains(t, eml, "anna")
}

var messageIDLine = regexp.MustCompile(`Message-ID: [^\r]*\r\n`)

func TestPreviewMail_MatchesDryRunOutput(t *testing.T) {
	fixClock(t)
	f := newFixture(t)

	cfg, err := config.LoadMail(f.config)
	require.NoError(t, err)
	tmpl, err := template.Load(f.tmpl)
	require.NoError(t, err)
	rows, err := mailmerge.LoadRows(f.data)
	require.NoError(t, err)
	require.NoError(t, mailmerge.ExpandPermissions(rows))

	preview, err := renderRow(cfg, tmpl, rows, "42")
	require.NoError(t, err)

	dir := t.TempDir()
	sender, err := mail.NewSender(context.Background(), mail.Options{
		Config:    cfg,
		DryRunDir: filepath.Join(dir, "out"),
		Gate:      mail.NewGate(mail.NewFileStampStore(filepath.Join(dir, "stamp")), now),
		Now:       now,
		Logger:    slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	row, ok := mailmerge.Find(rows, "42")
	require.True(t, ok)
	subject, body, err := tmpl.Render(row)
	require.NoError(t, err)
	require.NoError(t, sender.Send(context.Background(), "42", sender.Compose(row["addresses"], subject, body)))
	require.NoError(t, sender.Close())

	written, err := os.ReadFile(filepath.Join(dir, "out", "42.eml"))
	require.NoError(t, err)

	assert.Equal(t,
		messageIDLine.ReplaceAllString(string(written), ""),
		messageIDLine.ReplaceAllString(preview, ""))
}

func TestPreviewMail_SeveralGroups(t *testing.T) {
	f := newFixture(t)

	result := callTool(t, map[string]any{
		"data_file":          f.data,
		"template_file":      f.tmpl,
		"fs_id":              []any{"7", "99"},
		"expand_permissions": true,
		"config_file":        f.config,
	})
	require.False(t, result.IsError)

	var summary batch.Summary
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Contains(t, summary.Results[0].Result, "Subject: Unterlagen FS Physik")
	assert.Equal(t, `no row with fs_id "99"`, summary.Results[1].Error)
}

func TestPreviewMail_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{
			name: "missing data file",
			args: map[string]any{"template_file": f.tmpl, "fs_id": "42", "config_file": f.config},
			want: "data_file is required",
		},
		{
			name: "unknown group",
			args: map[string]any{"data_file": f.data, "template_file": f.tmpl, "fs_id": "99", "config_file": f.config},
			want: `no row with fs_id "99"`,
		},
		{
			name: "missing placeholder without expansion",
			args: map[string]any{"data_file": f.data, "template_file": f.tmpl, "fs_id": "42", "config_file": f.config},
			want: "permissions",
		},
		{
			name: "missing config",
			args: map[string]any{"data_file": f.data, "template_file": f.tmpl, "fs_id": "42", "config_file": filepath.Join(t.TempDir(), "nope.json")},
			want: "failed to read config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := callTool(t, tt.args)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}
