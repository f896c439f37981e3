package server

import (
	"regexp"
	"strings"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
)

// datasetTableRe matches qualified dataset.table identifiers. Backticks
// are stripped before matching so `Flowdata.orders` and Flowdata.orders
// extract the same. Numeric literals never match because both sides
// must start with a letter or underscore.
var datasetTableRe = regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*\b`)

// extractDatasetTables returns the qualified identifiers referenced by a
// query, deduplicated in first-seen order. Column references through a
// table alias can also match; over-extraction only ever tightens the
// permission check, never loosens it.
func extractDatasetTables(query string) []string {
	cleaned := strings.ReplaceAll(query, "`", "")
	matches := datasetTableRe.FindAllString(cleaned, -1)

	seen := make(map[string]struct{}, len(matches))
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		tables = append(tables, m)
	}
	return tables
}

// filterQueryResult drops columns hidden by the role's field filters for
// any of the referenced tables. Rows are rebuilt to stay aligned with
// the surviving columns.
func (s *Server) filterQueryResult(role string, tables []string, result *backend.QueryResult) *backend.QueryResult {
	visible := result.Columns
	for _, table := range tables {
		filter, ok := s.store.GetFieldFilter(role, table)
		if !ok {
			continue
		}
		visible = filter.Apply(visible)
	}
	if len(visible) == len(result.Columns) {
		return result
	}

	keep := make([]int, 0, len(visible))
	visibleSet := make(map[string]struct{}, len(visible))
	for _, name := range visible {
		visibleSet[name] = struct{}{}
	}
	for i, name := range result.Columns {
		if _, ok := visibleSet[name]; ok {
			keep = append(keep, i)
		}
	}

	filtered := &backend.QueryResult{
		Columns:   visible,
		Rows:      make([][]any, 0, len(result.Rows)),
		TotalRows: result.TotalRows,
	}
	for _, row := range result.Rows {
		out := make([]any, 0, len(keep))
		for _, i := range keep {
			if i < len(row) {
				out = append(out, row[i])
			}
		}
		filtered.Rows = append(filtered.Rows, out)
	}
	return filtered
}

// filterTableSchema drops fields hidden by the role's filter for the
// table, if one is configured.
func (s *Server) filterTableSchema(role string, schema *backend.TableSchema) *backend.TableSchema {
	filter, ok := s.store.GetFieldFilter(role, schema.DatasetTable)
	if !ok {
		return schema
	}

	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = f.Name
	}
	visible := filter.Apply(names)
	if len(visible) == len(schema.Fields) {
		return schema
	}

	visibleSet := make(map[string]struct{}, len(visible))
	for _, name := range visible {
		visibleSet[name] = struct{}{}
	}
	out := &backend.TableSchema{
		DatasetTable: schema.DatasetTable,
		Description:  schema.Description,
		Fields:       make([]backend.Field, 0, len(visible)),
	}
	for _, f := range schema.Fields {
		if _, ok := visibleSet[f.Name]; ok {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}
