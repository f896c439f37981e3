package backend

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		_ = json.NewEncoder(w).Encode(map[string]any{"tables": []TableSchema{}})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"}, testLogger())
	_, err := client.GetSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
}

func TestExecuteQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/query", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SELECT 1", body["query"])

		_ = json.NewEncoder(w).Encode(QueryResult{
			Columns:   []string{"one"},
			Rows:      [][]any{{float64(1)}},
			TotalRows: 1,
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	result, err := client.ExecuteQuery(context.Background(), "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, result.Columns)
	assert.Equal(t, 1, result.TotalRows)
}

func TestGetTableSchemaPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schema/Flowdata.daily_orders_aggregation", r.URL.Path)
		_ = json.NewEncoder(w).Encode(TableSchema{
			DatasetTable: "Flowdata.daily_orders_aggregation",
			Fields:       []Field{{Name: "order_date", Type: "DATE"}},
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	schema, err := client.GetTableSchema(context.Background(), "Flowdata.daily_orders_aggregation")
	require.NoError(t, err)
	require.Len(t, schema.Fields, 1)
	assert.Equal(t, "order_date", schema.Fields[0].Name)
}

func TestLookupUserByToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(UserData{Email: "ana@example.com", Role: "analyst"})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	user, err := client.LookupUserByToken(context.Background(), "tok-123")
	require.NoError(t, err)
	assert.Equal(t, "analyst", user.Role)
}

func TestErrorSurfacesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "query exceeded quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	_, err := client.ExecuteQuery(context.Background(), "SELECT *")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "query exceeded quota")
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL}, testLogger())
	assert.NoError(t, client.Ping(context.Background()))
}
