package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

// Tool argument shapes. The SDK derives the input schemas from these.

type emptyArgs struct{}

type schemaTableArgs struct {
	DatasetTable string `json:"dataset_table" jsonschema:"Fully qualified dataset.table identifier, e.g. Flowdata.daily_orders_aggregation"`
}

type queryArgs struct {
	Query string `json:"query" jsonschema:"SQL query to run against the analytics backend"`
}

type uploadDashboardArgs struct {
	Title string `json:"title" jsonschema:"Dashboard title"`
	Html  string `json:"html" jsonschema:"Complete self-contained HTML document for the dashboard"`
}

type dashboardIDArgs struct {
	ID string `json:"id" jsonschema:"Dashboard identifier returned by upload_dashboard or list_dashboards"`
}

type userLookupArgs struct {
	Email string `json:"email" jsonschema:"Email address of the user to look up"`
}

// toolDef binds a tool name to its registration. The slice returned by
// toolDefs is the closed registry: a tool name in a policy file that is
// not listed here grants nothing.
type toolDef struct {
	name     string
	register func(srv *mcp.Server, role string)
}

func (s *Server) toolDefs() []toolDef {
	return []toolDef{
		{rbac.ToolGetSchemaTableView, s.registerGetSchemaTableView},
		{rbac.ToolExecuteQuery, s.registerExecuteQuery},
		{rbac.ToolUploadDashboard, s.registerUploadDashboard},
		{rbac.ToolListDashboards, s.registerListDashboards},
		{rbac.ToolGetDashboard, s.registerGetDashboard},
		{rbac.ToolGetUserData, s.registerGetUserData},
		{rbac.ToolListMyPermissions, s.registerListMyPermissions},
	}
}

func (s *Server) registerGetSchemaTableView(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolGetSchemaTableView,
		Description: "Get the schema (field names and types) of a single dataset.table from the analytics catalog",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args schemaTableArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.getSchemaTableView(ctx, role, args)
		return res, nil, err
	})
}

func (s *Server) getSchemaTableView(ctx context.Context, role string, args schemaTableArgs) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolGetSchemaTableView); res != nil {
		return res, nil
	}
	if !s.store.HasSchemaPermission(role, args.DatasetTable) {
		s.observe(rbac.ToolGetSchemaTableView, role, outcomeDenied)
		s.logger.Warn("schema access denied", "role", role, "table", args.DatasetTable)
		return textError(fmt.Sprintf("Access denied: Your role '%s' does not have permission to access table '%s'.", role, args.DatasetTable)), nil
	}

	schema, err := s.client.GetTableSchema(ctx, args.DatasetTable)
	if err != nil {
		s.observe(rbac.ToolGetSchemaTableView, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(s.filterTableSchema(role, schema))
	if err != nil {
		s.observe(rbac.ToolGetSchemaTableView, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolGetSchemaTableView, role, outcomeOK)
	return res, nil
}

func (s *Server) registerExecuteQuery(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolExecuteQuery,
		Description: "Execute a read-only SQL query against the analytics backend and return rows as JSON",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args queryArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.executeQuery(ctx, role, args)
		return res, nil, err
	})
}

func (s *Server) executeQuery(ctx context.Context, role string, args queryArgs) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolExecuteQuery); res != nil {
		return res, nil
	}

	tables := extractDatasetTables(args.Query)
	rules := s.store.GetPermissionSet(role).Schema
	if rules != nil && len(tables) == 0 {
		// A role with table restrictions may only run queries whose
		// target tables can be identified. Fail safe.
		s.observe(rbac.ToolExecuteQuery, role, outcomeDenied)
		return textError(fmt.Sprintf("Access denied: Your role '%s' may only run queries that reference tables by their qualified dataset.table name.", role)), nil
	}
	for _, table := range tables {
		if !s.store.HasSchemaPermission(role, table) {
			s.observe(rbac.ToolExecuteQuery, role, outcomeDenied)
			s.logger.Warn("query table denied", "role", role, "table", table)
			return textError(fmt.Sprintf("Access denied: Your role '%s' does not have permission to query table '%s'.", role, table)), nil
		}
	}

	// The budget protects the backend call, so denied queries above do
	// not charge it.
	if !s.limiter.Allow(role) {
		s.observe(rbac.ToolExecuteQuery, role, outcomeLimited)
		return textError(fmt.Sprintf("Rate limit exceeded: role '%s' has used its query budget for this minute. Try again shortly.", role)), nil
	}

	result, err := s.client.ExecuteQuery(ctx, args.Query)
	if err != nil {
		s.observe(rbac.ToolExecuteQuery, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(s.filterQueryResult(role, tables, result))
	if err != nil {
		s.observe(rbac.ToolExecuteQuery, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolExecuteQuery, role, outcomeOK)
	return res, nil
}

func (s *Server) registerUploadDashboard(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolUploadDashboard,
		Description: "Upload a self-contained HTML dashboard and get back its id",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args uploadDashboardArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.uploadDashboard(ctx, role, args)
		return res, nil, err
	})
}

func (s *Server) uploadDashboard(ctx context.Context, role string, args uploadDashboardArgs) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolUploadDashboard); res != nil {
		return res, nil
	}
	if args.Title == "" || args.Html == "" {
		return textError("Both 'title' and 'html' are required."), nil
	}

	dashboard, err := s.client.UploadDashboard(ctx, args.Title, args.Html)
	if err != nil {
		s.observe(rbac.ToolUploadDashboard, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(dashboard)
	if err != nil {
		s.observe(rbac.ToolUploadDashboard, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolUploadDashboard, role, outcomeOK)
	return res, nil
}

func (s *Server) registerListDashboards(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolListDashboards,
		Description: "List stored dashboards with their ids and titles",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.listDashboards(ctx, role)
		return res, nil, err
	})
}

func (s *Server) listDashboards(ctx context.Context, role string) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolListDashboards); res != nil {
		return res, nil
	}

	dashboards, err := s.client.ListDashboards(ctx)
	if err != nil {
		s.observe(rbac.ToolListDashboards, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(dashboards)
	if err != nil {
		s.observe(rbac.ToolListDashboards, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolListDashboards, role, outcomeOK)
	return res, nil
}

func (s *Server) registerGetDashboard(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolGetDashboard,
		Description: "Fetch a stored dashboard, including its HTML, by id",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args dashboardIDArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.getDashboard(ctx, role, args)
		return res, nil, err
	})
}

func (s *Server) getDashboard(ctx context.Context, role string, args dashboardIDArgs) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolGetDashboard); res != nil {
		return res, nil
	}

	dashboard, err := s.client.GetDashboard(ctx, args.ID)
	if err != nil {
		s.observe(rbac.ToolGetDashboard, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(dashboard)
	if err != nil {
		s.observe(rbac.ToolGetDashboard, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolGetDashboard, role, outcomeOK)
	return res, nil
}

func (s *Server) registerGetUserData(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolGetUserData,
		Description: "Look up a user record by email address",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args userLookupArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.getUserData(ctx, role, args)
		return res, nil, err
	})
}

func (s *Server) getUserData(ctx context.Context, role string, args userLookupArgs) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolGetUserData); res != nil {
		return res, nil
	}

	user, err := s.client.GetUserData(ctx, args.Email)
	if err != nil {
		s.observe(rbac.ToolGetUserData, role, outcomeError)
		return nil, err
	}
	res, err := jsonResult(user)
	if err != nil {
		s.observe(rbac.ToolGetUserData, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolGetUserData, role, outcomeOK)
	return res, nil
}

func (s *Server) registerListMyPermissions(srv *mcp.Server, role string) {
	mcp.AddTool(srv, &mcp.Tool{
		Name:        rbac.ToolListMyPermissions,
		Description: "Show the tools and resources available to your current role",
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
		res, err := s.listMyPermissions(role)
		return res, nil, err
	})
}

// permissionsSummary is what list_my_permissions reports back to the
// caller.
type permissionsSummary struct {
	Role        string   `json:"role"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
	Resources   []string `json:"resources,omitempty"`
}

func (s *Server) listMyPermissions(role string) (*mcp.CallToolResult, error) {
	if res := s.checkTool(role, rbac.ToolListMyPermissions); res != nil {
		return res, nil
	}

	ps := s.store.GetPermissionSet(role)
	summary := permissionsSummary{
		Role:        role,
		Description: s.store.GetRoleDescription(role),
		Tools:       s.store.ListAllowedTools(role),
		Resources:   ps.Resources,
	}
	res, err := jsonResult(summary)
	if err != nil {
		s.observe(rbac.ToolListMyPermissions, role, outcomeError)
		return nil, err
	}
	s.observe(rbac.ToolListMyPermissions, role, outcomeOK)
	return res, nil
}
