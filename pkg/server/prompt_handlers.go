package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/prompts"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

// Prompt names.
const (
	PromptBuildDashboard = "build_dashboard"
	PromptExploreSchema  = "explore_schema"
)

// registerPrompts adds guided prompts gated by the tools they drive: a
// role that cannot upload dashboards gets no dashboard-building prompt.
func (s *Server) registerPrompts(srv *mcp.Server, role string) {
	if s.store.HasToolPermission(role, rbac.ToolUploadDashboard) {
		srv.AddPrompt(&mcp.Prompt{
			Name:        PromptBuildDashboard,
			Description: "Step-by-step workflow for building and uploading a Chart.js dashboard from a table",
			Arguments: []*mcp.PromptArgument{
				{Name: "dataset_table", Description: "Fully qualified dataset.table to visualize", Required: true},
				{Name: "chart_type", Description: "Chart.js chart type, defaults to bar"},
				{Name: "title", Description: "Dashboard title"},
			},
		}, s.buildDashboardPromptHandler(role))
	}
	if s.store.HasToolPermission(role, rbac.ToolGetSchemaTableView) {
		srv.AddPrompt(&mcp.Prompt{
			Name:        PromptExploreSchema,
			Description: "Guided tour of the tables and fields visible to your role",
			Arguments: []*mcp.PromptArgument{
				{Name: "dataset_table", Description: "Optional table to focus on"},
			},
		}, s.exploreSchemaPromptHandler(role))
	}
}

func (s *Server) buildDashboardPromptHandler(role string) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArguments(req)
		text, err := s.prompts.BuildDashboardPrompt(prompts.Context{
			Role:         role,
			DatasetTable: args["dataset_table"],
			ChartType:    args["chart_type"],
			Title:        args["title"],
		})
		if err != nil {
			return nil, err
		}
		return userPrompt("Build a dashboard from "+args["dataset_table"], text), nil
	}
}

func (s *Server) exploreSchemaPromptHandler(role string) mcp.PromptHandler {
	return func(_ context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		args := promptArguments(req)
		text, err := s.prompts.BuildSchemaPrompt(prompts.Context{
			Role:         role,
			DatasetTable: args["dataset_table"],
		})
		if err != nil {
			return nil, err
		}
		return userPrompt("Explore the analytics schema", text), nil
	}
}

func promptArguments(req *mcp.GetPromptRequest) map[string]string {
	if req == nil || req.Params == nil {
		return map[string]string{}
	}
	return req.Params.Arguments
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
