package backend

import "time"

// Field describes one column of a schema table.
type Field struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// TableSchema describes a queryable dataset.table object.
type TableSchema struct {
	DatasetTable string  `json:"dataset_table"`
	Description  string  `json:"description,omitempty"`
	Fields       []Field `json:"fields"`
}

// QueryResult is the tabular result of a SQL query.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	TotalRows int      `json:"total_rows"`
}

// Dashboard is a stored dashboard, HTML included.
type Dashboard struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardSummary is a dashboard listing entry without the HTML body.
type DashboardSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// UserData is the backend's record for a user, including the role the
// proxy uses for permission evaluation.
type UserData struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}
