package writers

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hopperdata/hopper/integrations"
	"github.com/hopperdata/hopper/integrations/duckdb"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/utils"
)

// DuckDBWriter loads converted records into a DuckDB table via ADBC.
// The table is created from the first record's schema and appended to
// afterwards.
type DuckDBWriter struct {
	db      integrations.Database
	conn    integrations.Connection
	table   string
	created bool
}

// NewDuckDBWriter creates a writer targeting the database file at
// config.Path. The table name defaults to "dataset" when unset.
func NewDuckDBWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for DuckDB writer")
	}

	table := config.Table
	if table == "" {
		table = "dataset"
	}

	db, err := duckdb.NewDuckDB(duckdb.WithPath(config.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB database: %w", err)
	}

	conn, err := db.OpenConnection()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}

	return &DuckDBWriter{
		db:    db,
		conn:  conn,
		table: table,
	}, nil
}

// Write ingests a record into the target table.
func (w *DuckDBWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	record.Retain()
	reader := utils.NewSingleRecordReader(record)
	defer reader.Release()

	if _, err := w.conn.Ingest(ctx, w.table, reader, w.created); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.created = true
	return nil
}

// Close closes the connection and the database.
func (w *DuckDBWriter) Close() error {
	if w.conn != nil {
		w.conn.Close()
		w.conn = nil
	}
	if w.db != nil {
		w.db.Close()
		w.db = nil
	}
	return nil
}
