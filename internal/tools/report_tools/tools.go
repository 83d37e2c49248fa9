package report_tools

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/datendrehschei/fsen-admin/internal/fsapi"
	"github.com/datendrehschei/fsen-admin/internal/report"
	"github.com/datendrehschei/fsen-admin/internal/server"
	"github.com/datendrehschei/fsen-admin/internal/tools/batch"
	"github.com/datendrehschei/fsen-admin/internal/tools/common"
)

// ToolExportReport is the name of the export tool.
const ToolExportReport = "fsen_export_report"

// RegisterReportTools registers the report tools with the MCP server
func RegisterReportTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	exportTool := mcp.NewTool(ToolExportReport,
		mcp.WithDescription("Export a tab-separated report of student councils (Fachschaften) with the addresses of the requested usage categories. Uses the token cached by `fsen-admin export`."),
		mcp.WithString("categories",
			mcp.Required(),
			mcp.Description("Address usage categories, comma separated: finanzen, fsl, kontakt"),
		),
		mcp.WithString("financial_year_start",
			mcp.Description("Only include groups whose financial year starts on this marker (exact match)"),
		),
		mcp.WithString("open_afsg",
			mcp.Description("Only include groups with an open payout request in this semester, and add its request_id"),
		),
		mcp.WithString("no_afsg",
			mcp.Description("Only include groups without any payout request in this semester"),
		),
		mcp.WithBoolean("permissions",
			mcp.Description("Add the permissions_json column (default: false)"),
		),
		mcp.WithString("source",
			mcp.Description("Group dataset: 'protected' (default) or 'public'. Request filters need 'protected'."),
			mcp.Enum(report.SourceProtected, report.SourcePublic),
		),
		mcp.WithString("exclude_user",
			mcp.Description(fmt.Sprintf("Users left out of the permission lists, comma separated (default: %s)", fsapi.DefaultExcludedUser)),
		),
	)

	s.AddTool(exportTool, common.InstrumentedToolHandler(ToolExportReport, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExportReport(ctx, request, sc)
	}))

	return nil
}

// exportOptions maps tool arguments onto report.ExportOptions.
func exportOptions(args map[string]any) (report.ExportOptions, error) {
	var opts report.ExportOptions

	raw, err := batch.Strings(args["categories"], "categories")
	if err != nil {
		return opts, err
	}
	opts.Categories, err = report.ParseCategories(raw)
	if err != nil {
		return opts, err
	}

	opts.FinancialYearStart, _ = args["financial_year_start"].(string)
	opts.OpenRequestSemester, _ = args["open_afsg"].(string)
	opts.NoRequestSemester, _ = args["no_afsg"].(string)
	opts.IncludePermissions, _ = args["permissions"].(bool)
	opts.Source, _ = args["source"].(string)

	opts.ExcludeUsers, err = batch.OptionalStrings(args, "exclude_user")
	if err != nil {
		return opts, err
	}
	if opts.ExcludeUsers == nil {
		opts.ExcludeUsers = []string{fsapi.DefaultExcludedUser}
	}

	return opts, opts.Validate()
}

func handleExportReport(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	opts, err := exportOptions(request.GetArguments())
	if err != nil {
		return common.ErrorResult(err)
	}

	api, err := sc.APIClient(ctx)
	if err != nil {
		return common.ErrorResult(fmt.Errorf("failed to authenticate: %w", err))
	}

	rows, err := report.Export(ctx, api, opts, sc.Logger())
	if err != nil {
		return common.ErrorResult(err)
	}
	sc.Metrics().RecordReportRows(ctx, len(rows))

	var buf bytes.Buffer
	if err := report.NewWriter(&buf, opts.Options).WriteAll(rows); err != nil {
		return common.ErrorResult(fmt.Errorf("failed to write report: %w", err))
	}
	return mcp.NewToolResultText(buf.String()), nil
}
