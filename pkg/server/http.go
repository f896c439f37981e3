package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the HTTP surface of the proxy: the MCP endpoint plus
// health and metrics.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	mcpHandler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		role := s.ResolveRole(r)
		s.logger.Debug("building role-scoped server", "role", role)
		return s.BuildServer(role)
	}, nil)

	router.Any("/mcp", gin.WrapH(mcpHandler))
	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

// requestLogger logs every request with a generated id.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		s.logger.Info("request",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) handleHealthz(c *gin.Context) {
	snapshot := s.health.Snapshot()
	status := http.StatusOK
	if !s.health.Serving() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":  snapshot.Status,
		"backend": snapshot,
	})
}
