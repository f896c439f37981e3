// Package server exposes the analytics backend as a role-scoped MCP
// surface. Every request gets its own mcp.Server built for the caller's
// resolved role: tools, resources, and prompts the role may not use are
// never registered, and every handler re-checks permission before doing
// work.
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/backend"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/prompts"
	"github.com/MLC-Digital-Transformation/remote-mcp-server/pkg/rbac"
)

const (
	// ServerName identifies the proxy in the MCP handshake.
	ServerName = "remote-mcp-server"

	// HealthCheckInterval is how often the backend is probed.
	HealthCheckInterval = 30 * time.Second

	// HealthCheckTimeout bounds a single health probe.
	HealthCheckTimeout = 5 * time.Second

	// RoleLookupTimeout bounds the bearer token lookup during role
	// resolution.
	RoleLookupTimeout = 5 * time.Second
)

// Server owns the role-scoped MCP surface and its supporting pieces.
type Server struct {
	store   *rbac.Store
	client  *backend.Client
	prompts *prompts.Registry
	limiter *QueryRateLimiter
	health  *HealthMonitor
	metrics *Metrics
	logger  *slog.Logger
	version string
}

// Options configures a Server. Store, Client, and Prompts are required.
type Options struct {
	Store            *rbac.Store
	Client           *backend.Client
	Prompts          *prompts.Registry
	Logger           *slog.Logger
	QueriesPerMinute int
	Version          string
	Registerer       prometheus.Registerer
}

// New creates a Server. The health monitor is created but not started;
// call StartHealthMonitor once the process is ready to probe.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	return &Server{
		store:   opts.Store,
		client:  opts.Client,
		prompts: opts.Prompts,
		limiter: NewQueryRateLimiter(opts.QueriesPerMinute, logger),
		health:  NewHealthMonitor(opts.Client, logger),
		metrics: NewMetrics(opts.Registerer),
		logger:  logger,
		version: opts.Version,
	}
}

// StartHealthMonitor begins periodic backend probing.
func (s *Server) StartHealthMonitor() {
	s.health.Start(HealthCheckInterval)
}

// StopHealthMonitor halts periodic backend probing.
func (s *Server) StopHealthMonitor() {
	s.health.Stop()
}

// BuildServer constructs an MCP server scoped to a single role. Only
// capabilities the role holds are registered, so a client listing tools
// sees exactly what it may call.
func (s *Server) BuildServer(role string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: s.version,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
		HasPrompts:   true,
	})

	for _, def := range s.toolDefs() {
		if !s.store.HasToolPermission(role, def.name) {
			continue
		}
		def.register(srv, role)
	}
	s.registerResources(srv, role)
	s.registerPrompts(srv, role)
	return srv
}

// observe records a tool call outcome. The role label is bounded to the
// roles defined in the store; arbitrary caller-supplied role strings
// collapse to "unknown" so they cannot mint unbounded metric series.
func (s *Server) observe(tool, role, outcome string) {
	if !s.store.HasRole(role) {
		role = "unknown"
	}
	s.metrics.observe(tool, role, outcome)
}

// checkTool is the invocation-time permission gate. Registration-time
// filtering already hides forbidden tools, but a handler must never
// trust that it was reached legitimately.
func (s *Server) checkTool(role, tool string) *mcp.CallToolResult {
	if s.store.HasToolPermission(role, tool) {
		return nil
	}
	s.observe(tool, role, outcomeDenied)
	s.logger.Warn("tool call denied", "role", role, "tool", tool)
	return textError(fmt.Sprintf("Access denied: Your role '%s' does not have permission to use the '%s' tool.", role, tool))
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func textError(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
