package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

// Resource URIs.
const (
	SchemaCatalogURI    = "schema://catalog"
	DashboardCatalogURI = "dashboards://catalog"
)

const resourceMIMEType = "application/json"

// registerResources adds the catalog resources the role may read. Like
// tools, resources are filtered at registration time and the handlers
// re-check on read.
func (s *Server) registerResources(srv *mcp.Server, role string) {
	if s.store.HasResourcePermission(role, rbac.ResourceSchemaCatalog) {
		srv.AddResource(&mcp.Resource{
			URI:         SchemaCatalogURI,
			Name:        rbac.ResourceSchemaCatalog,
			Title:       "Schema Catalog",
			Description: "All tables visible to your role, with their fields",
			MIMEType:    resourceMIMEType,
		}, s.schemaCatalogHandler(role))
	}
	if s.store.HasResourcePermission(role, rbac.ResourceDashboardCatalog) {
		srv.AddResource(&mcp.Resource{
			URI:         DashboardCatalogURI,
			Name:        rbac.ResourceDashboardCatalog,
			Title:       "Dashboard Catalog",
			Description: "Stored dashboards with their ids and titles",
			MIMEType:    resourceMIMEType,
		}, s.dashboardCatalogHandler(role))
	}
}

// schemaCatalogHandler serves the table catalog narrowed to what the
// role may see: tables outside its schema rules are dropped and field
// filters are applied to the rest.
func (s *Server) schemaCatalogHandler(role string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req != nil && req.Params != nil && req.Params.URI != SchemaCatalogURI {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if !s.store.HasResourcePermission(role, rbac.ResourceSchemaCatalog) {
			return nil, fmt.Errorf("access denied: role '%s' may not read the schema catalog", role)
		}

		tables, err := s.client.GetSchema(ctx)
		if err != nil {
			return nil, err
		}
		visible := make([]backend.TableSchema, 0, len(tables))
		for i := range tables {
			if !s.store.HasSchemaPermission(role, tables[i].DatasetTable) {
				continue
			}
			visible = append(visible, *s.filterTableSchema(role, &tables[i]))
		}
		return catalogResult(SchemaCatalogURI, visible)
	}
}

func (s *Server) dashboardCatalogHandler(role string) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req != nil && req.Params != nil && req.Params.URI != DashboardCatalogURI {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		if !s.store.HasResourcePermission(role, rbac.ResourceDashboardCatalog) {
			return nil, fmt.Errorf("access denied: role '%s' may not read the dashboard catalog", role)
		}

		dashboards, err := s.client.ListDashboards(ctx)
		if err != nil {
			return nil, err
		}
		return catalogResult(DashboardCatalogURI, dashboards)
	}
}

func catalogResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: resourceMIMEType,
				Text:     string(data),
			},
		},
	}, nil
}
