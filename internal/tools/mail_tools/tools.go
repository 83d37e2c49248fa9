package mail_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/datendrehschei/fsen-admin/internal/config"
	"github.com/datendrehschei/fsen-admin/internal/mail"
	"github.com/datendrehschei/fsen-admin/internal/mailmerge"
	"github.com/datendrehschei/fsen-admin/internal/report"
	"github.com/datendrehschei/fsen-admin/internal/server"
	"github.com/datendrehschei/fsen-admin/internal/template"
	"github.com/datendrehschei/fsen-admin/internal/tools/batch"
	"github.com/datendrehschei/fsen-admin/internal/tools/common"
)

// ToolPreviewMail is the name of the preview tool.
const ToolPreviewMail = "fsen_preview_mail"

// now is replaced in tests.
var now = time.Now

// RegisterMailTools registers the mail merge tools with the MCP server.
// Nothing here sends mail or touches the dry-run stamp.
func RegisterMailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	previewTool := mcp.NewTool(ToolPreviewMail,
		mcp.WithDescription("Render the mail merge message of one or more groups as .eml text, exactly as a dry run would write it. Does not send anything and does not count as a dry run."),
		mcp.WithString("data_file",
			mcp.Required(),
			mcp.Description("Path to the tab-separated data file produced by fsen-admin export"),
		),
		mcp.WithString("template_file",
			mcp.Required(),
			mcp.Description("Path to the template: subject line, blank line, body. Placeholders are {column}."),
		),
		mcp.WithString("fs_id",
			mcp.Required(),
			mcp.Description("Group id (fs_id column) to render; several ids may be given comma separated"),
		),
		mcp.WithBoolean("expand_permissions",
			mcp.Description("Add the {permissions} field built from the permissions_json column (default: false)"),
		),
		mcp.WithString("config_file",
			mcp.Description(fmt.Sprintf("Mail config providing the sender (default: %s and FSEN_* environment)", config.DefaultPath)),
		),
	)

	s.AddTool(previewTool, common.InstrumentedToolHandler(ToolPreviewMail, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handlePreviewMail(ctx, request)
	}))

	return nil
}

func handlePreviewMail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	dataFile, ok := args["data_file"].(string)
	if !ok || dataFile == "" {
		return mcp.NewToolResultError("data_file is required"), nil
	}
	templateFile, ok := args["template_file"].(string)
	if !ok || templateFile == "" {
		return mcp.NewToolResultError("template_file is required"), nil
	}
	ids, err := batch.Strings(args["fs_id"], "fs_id")
	if err != nil {
		return common.ErrorResult(err)
	}
	expand, _ := args["expand_permissions"].(bool)
	configFile, _ := args["config_file"].(string)

	cfg, err := config.LoadMail(configFile)
	if err != nil {
		return common.ErrorResult(err)
	}
	tmpl, err := template.Load(templateFile)
	if err != nil {
		return common.ErrorResult(err)
	}
	rows, err := mailmerge.LoadRows(dataFile)
	if err != nil {
		return common.ErrorResult(err)
	}
	if expand {
		if err := mailmerge.ExpandPermissions(rows); err != nil {
			return common.ErrorResult(err)
		}
	}

	render := func(_ context.Context, fsID string) (string, error) {
		return renderRow(cfg, tmpl, rows, fsID)
	}

	if len(ids) == 1 {
		eml, err := render(ctx, ids[0])
		if err != nil {
			return common.ErrorResult(err)
		}
		return mcp.NewToolResultText(eml), nil
	}

	out, err := batch.Format(batch.Process(ctx, ids, render))
	if err != nil {
		return common.ErrorResult(err)
	}
	return mcp.NewToolResultText(out), nil
}

// renderRow builds the message of group fsID the way the sender composes it.
func renderRow(cfg config.Mail, tmpl *template.Template, rows []mailmerge.Row, fsID string) (string, error) {
	row, ok := mailmerge.Find(rows, fsID)
	if !ok {
		return "", fmt.Errorf("no row with %s %q", report.ColumnGroupID, fsID)
	}

	subject, body, err := tmpl.Render(row)
	if err != nil {
		return "", err
	}

	msg := mail.Compose(cfg, row[report.ColumnAddresses], subject, body, now())
	data, err := msg.Bytes()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
