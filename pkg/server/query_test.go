package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

func TestExtractDatasetTables(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			"simple select",
			"SELECT * FROM Flowdata.daily_orders_aggregation",
			[]string{"Flowdata.daily_orders_aggregation"},
		},
		{
			"backtick quoted",
			"SELECT * FROM `Flowdata.daily_orders_aggregation`",
			[]string{"Flowdata.daily_orders_aggregation"},
		},
		{
			"join deduplicates",
			"SELECT * FROM products.items a JOIN products.items b ON a.id = b.id",
			[]string{"products.items", "a.id", "b.id"},
		},
		{
			"numeric literal is not a table",
			"SELECT price * 1.5 FROM products.items",
			[]string{"products.items"},
		},
		{
			"no qualified reference",
			"SELECT 1",
			nil,
		},
		{
			"first seen order",
			"SELECT * FROM Vendor.availability_summary, products.items",
			[]string{"Vendor.availability_summary", "products.items"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractDatasetTables(tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func revenueFilterStore() *rbac.Store {
	return rbac.NewStore(map[string]rbac.PermissionSet{
		rbac.RoleGuest: {Tools: []string{rbac.ToolListMyPermissions}},
		"vendor_viewer": {
			Tools: []string{rbac.ToolExecuteQuery, rbac.ToolGetSchemaTableView},
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

func TestFilterQueryResult(t *testing.T) {
	s := &Server{store: revenueFilterStore()}

	result := &backend.QueryResult{
		Columns: []string{"Day", "Sourcing___Shipped_Revenue", "Units"},
		Rows: [][]any{
			{"2026-01-01", 120.5, 3},
			{"2026-01-02", 98.0, 2},
		},
		TotalRows: 2,
	}

	filtered := s.filterQueryResult("vendor_viewer", []string{"Vendor.Revenue"}, result)
	assert.Equal(t, []string{"Day", "Units"}, filtered.Columns)
	assert.Equal(t, [][]any{{"2026-01-01", 3}, {"2026-01-02", 2}}, filtered.Rows)
	assert.Equal(t, 2, filtered.TotalRows)

	// Tables without a filter pass through untouched.
	same := s.filterQueryResult("vendor_viewer", []string{"Vendor.availability_summary"}, result)
	assert.Same(t, result, same)
}

func TestFilterTableSchema(t *testing.T) {
	s := &Server{store: revenueFilterStore()}

	schema := &backend.TableSchema{
		DatasetTable: "Vendor.Revenue",
		Fields: []backend.Field{
			{Name: "Day", Type: "DATE"},
			{Name: "Sourcing___Shipped_Revenue", Type: "FLOAT"},
			{Name: "Units", Type: "INTEGER"},
		},
	}

	filtered := s.filterTableSchema("vendor_viewer", schema)
	names := make([]string, len(filtered.Fields))
	for i, f := range filtered.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"Day", "Units"}, names)

	// No filter for the role means the schema is returned as-is.
	same := s.filterTableSchema(rbac.RoleGuest, schema)
	assert.Same(t, schema, same)
}
