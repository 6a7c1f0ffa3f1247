// Package integrations provides a common interface for database sinks that
// converted datasets can be loaded into.
package integrations

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Database represents any database that can receive converted datasets.
type Database interface {
	// OpenConnection creates a new connection to the database
	OpenConnection() (Connection, error)
	// Close closes the database and all its connections
	Close()
	// ConnCount returns number of open connections
	ConnCount() int
}

// Connection represents a database connection that can execute queries and
// bulk-load Arrow data.
type Connection interface {
	// Exec executes a query that doesn't return results
	Exec(ctx context.Context, sql string) (int64, error)
	// Query executes a query and returns results
	Query(ctx context.Context, sql string) (array.RecordReader, error)
	// Ingest bulk-loads a stream of records into the named table, creating
	// it on first use and appending on subsequent calls. Returns the number
	// of rows affected, or -1 if the driver does not report it.
	Ingest(ctx context.Context, table string, records array.RecordReader, append bool) (int64, error)
	// GetTableSchema returns the schema for a table
	GetTableSchema(ctx context.Context, catalog, schema *string, table string) (*arrow.Schema, error)
	// Close closes the connection
	Close()
}
