package prompts

// DefaultDashboardPrompt instructs a client model to build a Chart.js
// dashboard from query results and store it through the proxy.
const DefaultDashboardPrompt = `You are building an analytics dashboard for the table {{.DatasetTable}}.

Follow these steps exactly:

1. Call get_schema_table_view with dataset_table "{{.DatasetTable}}" and study the available fields. Only use fields present in the response; fields may have been removed by access policy and must not be guessed at.
2. Write a single SQL query against {{.DatasetTable}} that aggregates the data needed for a {{if .ChartType}}{{.ChartType}}{{else}}bar{{end}} chart, and run it with execute_query. Keep the result under 500 rows.
3. Generate one complete, self-contained HTML document:
   - Load Chart.js from https://cdn.jsdelivr.net/npm/chart.js (script tag only, no other external assets).
   - Inline the query results as a JavaScript constant; do not fetch at view time.
   - Render a single <canvas> chart of type {{if .ChartType}}"{{.ChartType}}"{{else}}"bar"{{end}} with axis labels taken from the result columns.
   - Include the title {{if .Title}}"{{.Title}}"{{else}}derived from the table name{{end}} in an <h1> and in the chart options.
4. Call upload_dashboard with that title and the full HTML document as the html argument.
5. Reply with the dashboard id returned by upload_dashboard and a one-sentence description of what the chart shows.

Do not invent data. If a step fails, report the error instead of continuing.
`

// DefaultSchemaPrompt guides schema exploration within the caller's
// permitted slice of the catalog.
const DefaultSchemaPrompt = `You are exploring the analytics catalog available to the current role ({{.Role}}).

{{if .DatasetTable}}Start with the table {{.DatasetTable}}: call get_schema_table_view for it and summarize each field (name, type, likely meaning).{{else}}Call get_schema_table_view for each table you are interested in and summarize its fields (name, type, likely meaning).{{end}}

Then propose three analysis questions this data can answer, each with a ready-to-run SQL query using only tables and fields you have confirmed to exist. Mention explicitly if a table you expected was not accessible; do not speculate about tables outside the catalog you can see.
`
