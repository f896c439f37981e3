// Package prompts renders the proxy's MCP prompt texts from templates,
// with compiled-in defaults and optional operator overrides.
package prompts

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"
)

// Context carries the values a prompt template may reference.
type Context struct {
	Role         string
	DatasetTable string
	ChartType    string
	Title        string
}

// Overrides replaces default template text when non-empty.
type Overrides struct {
	Dashboard string
	Schema    string
}

// Registry holds the parsed prompt templates.
type Registry struct {
	dashboard *template.Template
	schema    *template.Template
}

// NewRegistry parses the prompt templates. Invalid override templates fall
// back to the defaults with a warning rather than failing startup.
func NewRegistry(overrides Overrides, logger *slog.Logger) *Registry {
	return &Registry{
		dashboard: parseWithFallback("dashboard", overrides.Dashboard, DefaultDashboardPrompt, logger),
		schema:    parseWithFallback("schema", overrides.Schema, DefaultSchemaPrompt, logger),
	}
}

func parseWithFallback(name, custom, fallback string, logger *slog.Logger) *template.Template {
	text := custom
	if text == "" {
		text = fallback
	}
	t, err := template.New(name).Parse(text)
	if err != nil {
		logger.Warn("invalid prompt template, falling back to default", "template", name, "error", err)
		t = template.Must(template.New(name).Parse(fallback))
	}
	return t
}

// BuildDashboardPrompt renders the dashboard-building prompt. The context
// must name a dataset table.
func (r *Registry) BuildDashboardPrompt(ctx Context) (string, error) {
	if ctx.DatasetTable == "" {
		return "", fmt.Errorf("dashboard prompt requires a dataset_table")
	}
	return render(r.dashboard, "dashboard prompt", ctx)
}

// BuildSchemaPrompt renders the schema exploration prompt.
func (r *Registry) BuildSchemaPrompt(ctx Context) (string, error) {
	return render(r.schema, "schema prompt", ctx)
}

func render(t *template.Template, name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
