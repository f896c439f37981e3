package rbac

// Tool names exposed by the proxy. The tool registry in pkg/server and the
// permission table below both draw from these constants, so there is a
// single source of truth for valid tool names.
const (
	ToolGetSchemaTableView = "get_schema_table_view"
	ToolExecuteQuery       = "execute_query"
	ToolUploadDashboard    = "upload_dashboard"
	ToolListDashboards     = "list_dashboards"
	ToolGetDashboard       = "get_dashboard"
	ToolGetUserData        = "get_user_data"
	ToolListMyPermissions  = "list_my_permissions"
)

// Resource names exposed by the proxy.
const (
	ResourceSchemaCatalog    = "schema_catalog"
	ResourceDashboardCatalog = "dashboard_catalog"
)

// Roles with a compiled-in policy. Role strings are open-ended: any string
// absent from the store resolves to the FallbackRole policy on lookup.
const (
	RoleAdmin          = "admin"
	RoleAnalyst        = "analyst"
	RoleViewer         = "viewer"
	RoleGuest          = "guest"
	RoleNoRoleAssigned = "no_role_assigned"
)

// FallbackRole is the policy used when a role string is not present in the
// store. This is deliberately the most restrictive defined role, and is
// distinct from RoleNoRoleAssigned, which request handling assigns
// explicitly when no role could be resolved at all.
const FallbackRole = RoleGuest

// FilterMode selects between include and exclude field filtering.
type FilterMode string

const (
	FilterInclude FilterMode = "include"
	FilterExclude FilterMode = "exclude"
)

// FieldFilter restricts which fields of a table are visible to a role.
// Mode "include" keeps only the listed fields; mode "exclude" removes the
// listed fields from an otherwise full result.
type FieldFilter struct {
	Mode   FilterMode `yaml:"mode"`
	Fields []string   `yaml:"fields"`
}

// Apply returns the subset of fields visible under the filter, preserving
// the input order.
func (f FieldFilter) Apply(fields []string) []string {
	listed := make(map[string]bool, len(f.Fields))
	for _, name := range f.Fields {
		listed[name] = true
	}

	out := make([]string, 0, len(fields))
	for _, name := range fields {
		switch f.Mode {
		case FilterInclude:
			if listed[name] {
				out = append(out, name)
			}
		default:
			// FilterExclude
			if !listed[name] {
				out = append(out, name)
			}
		}
	}
	return out
}

// SchemaRules restrict which dataset.table identifiers a role may address.
// An empty Allowed list means no allow-list is configured; once Allowed is
// non-empty it is a closed world. Denied patterns always win over Allowed.
type SchemaRules struct {
	Allowed      []string               `yaml:"allowed"`
	Denied       []string               `yaml:"denied"`
	FieldFilters map[string]FieldFilter `yaml:"field_filters"`
}

// PermissionSet is the policy bound to a single role. A nil Schema means
// the role has no schema restriction beyond the tool gate itself.
type PermissionSet struct {
	Description string       `yaml:"description"`
	Tools       []string     `yaml:"tools"`
	Resources   []string     `yaml:"resources"`
	Schema      *SchemaRules `yaml:"schema"`
}

// clone returns a deep copy sharing no slices, maps, or Schema pointer
// with the receiver.
func (p PermissionSet) clone() PermissionSet {
	out := p
	out.Tools = append([]string(nil), p.Tools...)
	out.Resources = append([]string(nil), p.Resources...)
	if p.Schema == nil {
		return out
	}

	rules := SchemaRules{
		Allowed: append([]string(nil), p.Schema.Allowed...),
		Denied:  append([]string(nil), p.Schema.Denied...),
	}
	if p.Schema.FieldFilters != nil {
		rules.FieldFilters = make(map[string]FieldFilter, len(p.Schema.FieldFilters))
		for key, filter := range p.Schema.FieldFilters {
			filter.Fields = append([]string(nil), filter.Fields...)
			rules.FieldFilters[key] = filter
		}
	}
	out.Schema = &rules
	return out
}

func allTools() []string {
	return []string{
		ToolGetSchemaTableView,
		ToolExecuteQuery,
		ToolUploadDashboard,
		ToolListDashboards,
		ToolGetDashboard,
		ToolGetUserData,
		ToolListMyPermissions,
	}
}

func allResources() []string {
	return []string{ResourceSchemaCatalog, ResourceDashboardCatalog}
}

// defaultRolePermissions is the reference policy configuration.
func defaultRolePermissions() map[string]PermissionSet {
	return map[string]PermissionSet{
		RoleAdmin: {
			Description: "Full access to every tool, resource, and the complete schema catalog.",
			Tools:       allTools(),
			Resources:   allResources(),
		},
		RoleAnalyst: {
			Description: "Query and dashboard access across the catalog, except user data and the Users dataset.",
			Tools: []string{
				ToolGetSchemaTableView,
				ToolExecuteQuery,
				ToolUploadDashboard,
				ToolListDashboards,
				ToolGetDashboard,
				ToolListMyPermissions,
			},
			Resources: allResources(),
			Schema: &SchemaRules{
				Denied: []string{"Users.*"},
			},
		},
		RoleViewer: {
			Description: "Read-only access to a fixed set of curated tables and existing dashboards.",
			Tools: []string{
				ToolGetSchemaTableView,
				ToolExecuteQuery,
				ToolListDashboards,
				ToolGetDashboard,
			},
			Resources: []string{ResourceDashboardCatalog},
			Schema: &SchemaRules{
				Allowed: []string{
					"products.*",
					"Flowdata.daily_sku_performance_90d",
					"Flowdata.daily_orders_aggregation",
					"Vendor.availability_summary",
				},
				FieldFilters: map[string]FieldFilter{
					"Vendor.Revenue": {
						Mode:   FilterExclude,
						Fields: []string{"Sourcing___Shipped_Revenue"},
					},
				},
			},
		},
		RoleGuest: {
			Description: "May only inspect its own capabilities.",
			Tools:       []string{ToolListMyPermissions},
			Schema: &SchemaRules{
				Denied: []string{"*"},
			},
		},
		RoleNoRoleAssigned: {
			Description: "Permissive default applied when a request resolves to no role at all.",
			Tools:       allTools(),
			Resources:   allResources(),
		},
	}
}
