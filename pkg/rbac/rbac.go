// Package rbac implements the role-based access control model of the
// proxy: a static role -> permission table and pure evaluator functions
// answering tool, resource, and schema authorization queries.
//
// None of the evaluator functions return errors. "Not authorized" and
// "doesn't exist" collapse to the same denied result so callers never leak
// existence information to unauthorized clients.
package rbac

import (
	"sort"
	"strings"
)

// Store is an immutable role -> PermissionSet table. It is built once at
// startup and safe for concurrent use without locking.
type Store struct {
	roles map[string]PermissionSet
}

// NewStore builds a store from a role table. The table is deep-copied;
// later mutation of the argument, including its Schema rules and slices,
// does not affect the store.
func NewStore(roles map[string]PermissionSet) *Store {
	copied := make(map[string]PermissionSet, len(roles))
	for role, ps := range roles {
		copied[role] = ps.clone()
	}
	return &Store{roles: copied}
}

// Default returns a store holding the compiled-in reference policy.
func Default() *Store {
	return NewStore(defaultRolePermissions())
}

// GetPermissionSet returns the policy for role, falling back to the
// FallbackRole policy for any role absent from the table. Absence is an
// expected case, not an error.
func (s *Store) GetPermissionSet(role string) PermissionSet {
	if ps, ok := s.roles[role]; ok {
		return ps
	}
	return s.roles[FallbackRole]
}

// GetRoleDescription returns the human-readable description for a known
// role, or a generic string for unrecognized ones.
func (s *Store) GetRoleDescription(role string) string {
	if ps, ok := s.roles[role]; ok {
		return ps.Description
	}
	return "Unknown role"
}

// ListAllowedTools returns the tools the role may invoke, in the order
// declared in the policy table.
func (s *Store) ListAllowedTools(role string) []string {
	tools := s.GetPermissionSet(role).Tools
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}

// HasRole reports whether the role is defined in the store.
func (s *Store) HasRole(role string) bool {
	_, ok := s.roles[role]
	return ok
}

// Roles returns the sorted list of roles defined in the store.
func (s *Store) Roles() []string {
	out := make([]string, 0, len(s.roles))
	for role := range s.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// HasToolPermission reports whether the role may invoke the named tool.
// Exact string membership only; tool names are never pattern-matched.
func (s *Store) HasToolPermission(role, toolName string) bool {
	for _, name := range s.GetPermissionSet(role).Tools {
		if name == toolName {
			return true
		}
	}
	return false
}

// HasResourcePermission reports whether the role may read the named
// resource. Exact string membership only.
func (s *Store) HasResourcePermission(role, resourceName string) bool {
	for _, name := range s.GetPermissionSet(role).Resources {
		if name == resourceName {
			return true
		}
	}
	return false
}

// HasSchemaPermission reports whether the role may address the given
// dataset.table identifier. Evaluation order:
//
//  1. no schema rules -> allowed
//  2. any Denied match -> denied, even if an Allowed pattern also matches
//  3. non-empty Allowed -> allowed only on a match (closed world)
//  4. otherwise allowed
func (s *Store) HasSchemaPermission(role, datasetTable string) bool {
	rules := s.GetPermissionSet(role).Schema
	if rules == nil {
		return true
	}

	for _, pattern := range rules.Denied {
		if MatchPattern(datasetTable, pattern) {
			return false
		}
	}

	if len(rules.Allowed) > 0 {
		for _, pattern := range rules.Allowed {
			if MatchPattern(datasetTable, pattern) {
				return true
			}
		}
		return false
	}

	return true
}

// GetFieldFilter returns the field filter configured for the exact
// dataset.table key, if any. Field filter keys are never pattern-matched.
func (s *Store) GetFieldFilter(role, datasetTable string) (FieldFilter, bool) {
	rules := s.GetPermissionSet(role).Schema
	if rules == nil {
		return FieldFilter{}, false
	}
	filter, ok := rules.FieldFilters[datasetTable]
	return filter, ok
}

// MatchPattern reports whether a dataset.table identifier matches a
// configured pattern. Three forms are supported:
//
//   - "*" matches everything
//   - "<prefix>.*" matches identifiers whose dataset component equals
//     prefix exactly, followed by a dot. "Users.*" matches
//     "Users.Accounts" but not "UsersArchive.Accounts".
//   - anything else matches only on byte-for-byte equality
//
// No other wildcard forms are supported; callers needing finer patterns
// enumerate multiple entries.
func MatchPattern(datasetTable, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(datasetTable, prefix+".")
	}
	return datasetTable == pattern
}
