package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

func catalogStore() *rbac.Store {
	return rbac.NewStore(map[string]rbac.PermissionSet{
		rbac.RoleGuest: {},
		"vendor_viewer": {
			Tools:     []string{rbac.ToolGetSchemaTableView},
			Resources: []string{rbac.ResourceSchemaCatalog},
			Schema: &rbac.SchemaRules{
				Allowed: []string{"Vendor.*"},
				FieldFilters: map[string]rbac.FieldFilter{
					"Vendor.Revenue": {
						Mode:   rbac.FilterExclude,
						Fields: []string{"Sourcing___Shipped_Revenue"},
					},
				},
			},
		},
	})
}

func catalogBackend() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/schema", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tables": []backend.TableSchema{
				{
					DatasetTable: "Users.accounts",
					Fields:       []backend.Field{{Name: "Email", Type: "STRING"}},
				},
				{
					DatasetTable: "Vendor.Revenue",
					Fields: []backend.Field{
						{Name: "Day", Type: "DATE"},
						{Name: "Sourcing___Shipped_Revenue", Type: "FLOAT"},
					},
				},
				{
					DatasetTable: "Vendor.availability_summary",
					Fields:       []backend.Field{{Name: "In_Stock", Type: "FLOAT"}},
				},
			},
		})
	})
	return mux
}

func readCatalog(t *testing.T, handler mcp.ResourceHandler, uri string) []backend.TableSchema {
	t.Helper()
	res, err := handler(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var tables []backend.TableSchema
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &tables))
	return tables
}

// The schema catalog is narrowed per role: tables outside the schema
// rules are dropped entirely and field filters apply to the rest.
func TestSchemaCatalogNarrowedByRole(t *testing.T) {
	s := newTestServerWithStore(t, catalogBackend(), catalogStore())

	tables := readCatalog(t, s.schemaCatalogHandler("vendor_viewer"), SchemaCatalogURI)

	byName := make(map[string][]backend.Field, len(tables))
	for _, table := range tables {
		byName[table.DatasetTable] = table.Fields
	}

	assert.NotContains(t, byName, "Users.accounts")
	assert.Contains(t, byName, "Vendor.availability_summary")

	revenue, ok := byName["Vendor.Revenue"]
	require.True(t, ok)
	names := make([]string, 0, len(revenue))
	for _, f := range revenue {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"Day"}, names)
}

func TestSchemaCatalogDeniedWithoutResourcePermission(t *testing.T) {
	s := newTestServerWithStore(t, catalogBackend(), catalogStore())

	_, err := s.schemaCatalogHandler(rbac.RoleGuest)(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: SchemaCatalogURI},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestSchemaCatalogUnknownURI(t *testing.T) {
	s := newTestServerWithStore(t, catalogBackend(), catalogStore())

	_, err := s.schemaCatalogHandler("vendor_viewer")(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "schema://other"},
	})
	require.Error(t, err)
}
