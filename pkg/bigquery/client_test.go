package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"

	"github.com/qyve/storefront/pkg/config"
)

func TestConfiguredTables(t *testing.T) {
	tables := configuredTables(config.BigQueryConfig{SalesTable: " sales_facts "})
	if len(tables) != 1 || tables[0] != "sales_facts" {
		t.Fatalf("unexpected tables %v", tables)
	}
	if tables := configuredTables(config.BigQueryConfig{}); len(tables) != 0 {
		t.Fatalf("expected no tables, got %v", tables)
	}
}

func TestClientOptions(t *testing.T) {
	both := clientOptions(config.GCPConfig{CredentialsJSON: `{"dummy":"value"}`, ApplicationCredentials: "/tmp/creds"})
	if len(both) != 1 {
		t.Fatalf("expected json credentials to win, got %d options", len(both))
	}
	if none := clientOptions(config.GCPConfig{}); len(none) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(none))
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "d", SalesTable: "t"}, nil); !errors.Is(err, errProjectIDRequired) {
		t.Fatalf("expected project error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{SalesTable: "t"}, nil); !errors.Is(err, errDatasetRequired) {
		t.Fatalf("expected dataset error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "d"}, nil); !errors.Is(err, errTableNameRequired) {
		t.Fatalf("expected table error, got %v", err)
	}
}

func TestIsNotFound(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", &googleapi.Error{Code: http.StatusNotFound})
	if !isNotFound(wrapped) {
		t.Fatal("expected wrapped 404 to be not found")
	}
	if isNotFound(&googleapi.Error{Code: http.StatusForbidden}) {
		t.Fatal("403 is not a not-found error")
	}
}

func TestNilClientInsert(t *testing.T) {
	var c *Client
	if err := c.InsertRows(context.Background(), "sales_facts", []any{1}); !errors.Is(err, errClientNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}
