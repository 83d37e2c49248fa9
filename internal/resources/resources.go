package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/datendrehschei/fsen-admin/internal/mail"
	"github.com/datendrehschei/fsen-admin/internal/mailmerge"
	"github.com/datendrehschei/fsen-admin/internal/permissions"
	"github.com/datendrehschei/fsen-admin/internal/report"
	"github.com/datendrehschei/fsen-admin/internal/server"
)

// Resource URIs.
const (
	URIReference  = "fsen://reference"
	URIAuthStatus = "fsen://auth/status"
)

// RegisterResources registers the fsen-admin resources with the MCP server
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	referenceResource := mcp.NewResource(
		URIReference,
		"Export and mail merge reference",
		mcp.WithResourceDescription("Usage categories, report columns, template fields and permission labels"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(referenceResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleReference(ctx, request)
	})

	authResource := mcp.NewResource(
		URIAuthStatus,
		"Portal login status",
		mcp.WithResourceDescription("Whether a valid API token is cached for the export tool"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(authResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAuthStatus(ctx, request, sc)
	})

	return nil
}

type capabilityLabel struct {
	Field string `json:"field"`
	Label string `json:"label"`
}

type reference struct {
	Categories       []string          `json:"categories"`
	Columns          []string          `json:"columns"`
	TemplateFields   []string          `json:"template_fields"`
	Capabilities     []capabilityLabel `json:"capabilities"`
	DryRunWindowMins int               `json:"dry_run_window_minutes"`
}

func handleReference(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	all := report.Options{IncludePermissions: true, OpenRequestSemester: "*"}
	ref := reference{
		Categories:       report.Categories,
		Columns:          report.Columns(all),
		TemplateFields:   append(report.Columns(all), mailmerge.ColumnPermissionLabels),
		DryRunWindowMins: int(mail.DryRunWindow.Minutes()),
	}
	for _, c := range permissions.Capabilities {
		ref.Capabilities = append(ref.Capabilities, capabilityLabel{Field: c.Field, Label: c.Label})
	}
	return jsonContents(request.Params.URI, ref)
}

type authStatus struct {
	APIURL        string `json:"api_url"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}

func handleAuthStatus(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	status := authStatus{APIURL: sc.APIURL()}
	if _, err := sc.APIClient(ctx); err != nil {
		status.Error = err.Error()
	} else {
		status.Authenticated = true
	}
	return jsonContents(request.Params.URI, status)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
