package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

func TestResolveRoleQueryParam(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/mcp?role=analyst", nil)
	assert.Equal(t, "analyst", s.ResolveRole(req))
}

func TestResolveRoleHeader(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set(RoleHeader, "viewer")
	assert.Equal(t, "viewer", s.ResolveRole(req))
}

func TestResolveRoleQueryParamBeatsHeader(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/mcp?role=analyst", nil)
	req.Header.Set(RoleHeader, "viewer")
	assert.Equal(t, "analyst", s.ResolveRole(req))
}

func TestResolveRoleDefault(t *testing.T) {
	s := newTestServer(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	assert.Equal(t, rbac.RoleNoRoleAssigned, s.ResolveRole(req))
}

func TestResolveRoleBearerToken(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(backend.UserData{Email: "a@example.com", Role: "admin"})
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp?role=viewer", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	assert.Equal(t, "admin", s.ResolveRole(req), "token role wins over query param")
}

func TestResolveRoleBearerFailureFallsThrough(t *testing.T) {
	s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	req := httptest.NewRequest(http.MethodPost, "/mcp?role=viewer", nil)
	req.Header.Set("Authorization", "Bearer expired")
	assert.Equal(t, "viewer", s.ResolveRole(req))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer abc ")
	assert.Equal(t, "abc", bearerToken(req))
}
