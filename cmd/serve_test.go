package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datendrehschei/fsen-admin/internal/server"
	"github.com/datendrehschei/fsen-admin/internal/tools/mail_tools"
	"github.com/datendrehschei/fsen-admin/internal/tools/report_tools"
)

func TestNewMCPServer_RegistersTools(t *testing.T) {
	sc := server.NewServerContext(context.Background(), "", nil)
	defer func() { _ = sc.Shutdown() }()

	mcpSrv, err := newMCPServer(sc)
	require.NoError(t, err)

	tools := mcpSrv.ListTools()
	assert.Len(t, tools, 2)
	assert.Contains(t, tools, report_tools.ToolExportReport)
	assert.Contains(t, tools, mail_tools.ToolPreviewMail)
}

func TestGenerateDocs(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, generateDocs(context.Background(), &out))

	doc := out.String()
	assert.True(t, strings.HasPrefix(doc, "# MCP Tools Reference\n"))
	assert.Contains(t, doc, "- [Mail Tools](#mail-tools)\n")
	assert.Contains(t, doc, "- [Report Tools](#report-tools)\n")
	assert.Contains(t, doc, "### fsen_export_report\n")
	assert.Contains(t, doc, "- `categories` (string, required): ")
	assert.Contains(t, doc, "- `permissions` (boolean, optional): ")
	assert.Contains(t, doc, "### fsen_preview_mail\n")
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := map[string]string{
		"fsen_export_report": "Report Tools",
		"fsen_preview_mail":  "Mail Tools",
		"fsen_unknown":       "Other",
		"single":             "Other",
	}
	for name, want := range tests {
		assert.Equal(t, want, getCategoryFromToolName(name), name)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "fsen-admin version "+version+"\n", out.String())
}

func TestKeygenCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newKeygenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Len(t, strings.TrimSpace(out.String()), 44)
}
