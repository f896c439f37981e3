package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

// RoleQueryParam and RoleHeader are the unauthenticated role channels.
// They identify, they do not authenticate; the policy decides what each
// role may do.
const (
	RoleQueryParam = "role"
	RoleHeader     = "X-User-Role"
)

// ResolveRole determines the caller's role for a single request.
// Precedence: bearer token lookup against the backend, then the role
// query parameter, then the X-User-Role header. Anything unresolved
// gets the no_role_assigned role.
func (s *Server) ResolveRole(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		ctx, cancel := context.WithTimeout(r.Context(), RoleLookupTimeout)
		defer cancel()

		user, err := s.client.LookupUserByToken(ctx, token)
		if err != nil {
			// Fall through to the weaker channels rather than failing
			// the request; the fallback policy bounds what they reach.
			s.logger.Warn("bearer token role lookup failed", "error", err)
		} else if user.Role != "" {
			return user.Role
		}
	}

	if role := r.URL.Query().Get(RoleQueryParam); role != "" {
		return role
	}
	if role := r.Header.Get(RoleHeader); role != "" {
		return role
	}
	return rbac.RoleNoRoleAssigned
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}
