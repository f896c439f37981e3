// Package backend is a thin typed client for the remote analytics API the
// proxy fronts: schema lookup, query execution, dashboards, and user data.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every backend call unless the configuration says
// otherwise.
const DefaultTimeout = 30 * time.Second

// Config holds the connection settings for the analytics backend.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the analytics backend over HTTP. It is safe for concurrent
// use.
type Client struct {
	config     Config
	logger     *slog.Logger
	httpClient *http.Client
}

// apiKeyRoundTripper injects the static backend API key into every request.
type apiKeyRoundTripper struct {
	base   http.RoundTripper
	apiKey string
}

func (t *apiKeyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.apiKey != "" {
		req.Header.Set("X-Api-Key", t.apiKey)
	}
	return t.base.RoundTrip(req)
}

// NewClient creates a backend client. BaseURL is used as-is apart from a
// trailing-slash trim.
func NewClient(config Config, logger *slog.Logger) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
			Transport: &apiKeyRoundTripper{
				base:   http.DefaultTransport,
				apiKey: config.APIKey,
			},
		},
	}
}

// doJSON performs a request and decodes the JSON response into out. A
// non-2xx status surfaces the response body in the error.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out any, headers map[string]string) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetSchema fetches the full table catalog.
func (c *Client) GetSchema(ctx context.Context) ([]TableSchema, error) {
	var result struct {
		Tables []TableSchema `json:"tables"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/schema", nil, &result, nil); err != nil {
		return nil, err
	}
	c.logger.Debug("fetched schema catalog", "tables", len(result.Tables))
	return result.Tables, nil
}

// GetTableSchema fetches the schema for a single dataset.table.
func (c *Client) GetTableSchema(ctx context.Context, datasetTable string) (*TableSchema, error) {
	var result TableSchema
	path := "/api/schema/" + url.PathEscape(datasetTable)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExecuteQuery runs a SQL query on the backend.
func (c *Client) ExecuteQuery(ctx context.Context, sql string) (*QueryResult, error) {
	var result QueryResult
	body := map[string]string{"query": sql}
	if err := c.doJSON(ctx, http.MethodPost, "/api/query", body, &result, nil); err != nil {
		return nil, err
	}
	c.logger.Debug("executed query", "columns", len(result.Columns), "rows", len(result.Rows))
	return &result, nil
}

// UploadDashboard stores a dashboard and returns the created record.
func (c *Client) UploadDashboard(ctx context.Context, title, html string) (*Dashboard, error) {
	var result Dashboard
	body := map[string]string{"title": title, "html": html}
	if err := c.doJSON(ctx, http.MethodPost, "/api/dashboards", body, &result, nil); err != nil {
		return nil, err
	}
	c.logger.Info("uploaded dashboard", "id", result.ID, "title", title)
	return &result, nil
}

// ListDashboards fetches dashboard summaries.
func (c *Client) ListDashboards(ctx context.Context) ([]DashboardSummary, error) {
	var result struct {
		Dashboards []DashboardSummary `json:"dashboards"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/dashboards", nil, &result, nil); err != nil {
		return nil, err
	}
	return result.Dashboards, nil
}

// GetDashboard fetches a single dashboard by id.
func (c *Client) GetDashboard(ctx context.Context, id string) (*Dashboard, error) {
	var result Dashboard
	path := "/api/dashboards/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetUserData looks up a user record by email.
func (c *Client) GetUserData(ctx context.Context, email string) (*UserData, error) {
	var result UserData
	path := "/api/users?email=" + url.QueryEscape(email)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, nil); err != nil {
		return nil, err
	}
	return &result, nil
}

// LookupUserByToken resolves the user bound to an auth token. The token is
// forwarded as a bearer credential; the proxy's own API key still rides on
// the transport.
func (c *Client) LookupUserByToken(ctx context.Context, token string) (*UserData, error) {
	var result UserData
	headers := map[string]string{"Authorization": "Bearer " + token}
	if err := c.doJSON(ctx, http.MethodGet, "/api/users/me", nil, &result, headers); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping probes backend reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}
