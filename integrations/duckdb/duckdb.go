// Package duckdb talks to DuckDB through the ADBC driver manager, so
// converted datasets can be loaded without cgo bindings of our own.
package duckdb

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hopperdata/hopper/integrations"
)

var (
	_ integrations.Database   = (*DuckDB)(nil)
	_ integrations.Connection = (*duckConn)(nil)
)

// Options configure how the database is opened.
type Options struct {
	// Path of the DuckDB file. Empty means an in-memory database.
	Path string

	// DriverPath locates libduckdb. Empty picks the platform default.
	DriverPath string
}

// Option mutates Options.
type Option func(*Options)

// WithPath sets the database file path.
func WithPath(path string) Option {
	return func(o *Options) { o.Path = path }
}

// WithDriverPath sets where libduckdb is loaded from.
func WithDriverPath(path string) Option {
	return func(o *Options) { o.DriverPath = path }
}

// defaultDriverPath returns the conventional install location of libduckdb
// for the current platform.
func defaultDriverPath() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/local/lib/libduckdb.dylib"
	case "windows":
		return "duckdb.dll"
	default:
		return "/usr/local/lib/libduckdb.so"
	}
}

// DuckDB owns one ADBC database handle and the connections opened from it.
type DuckDB struct {
	mu    sync.Mutex
	db    adbc.Database
	path  string
	conns []*duckConn
}

// duckConn wraps one open ADBC connection.
type duckConn struct {
	parent *DuckDB
	adbc.Connection
}

// NewDuckDB opens (or creates) a DuckDB database.
func NewDuckDB(options ...Option) (*DuckDB, error) {
	var opts Options
	for _, opt := range options {
		opt(&opts)
	}
	if opts.DriverPath == "" {
		opts.DriverPath = defaultDriverPath()
	}

	params := map[string]string{
		"driver":     opts.DriverPath,
		"entrypoint": "duckdb_adbc_init",
	}
	if opts.Path != "" {
		params["path"] = opts.Path
	}

	db, err := (drivermgr.Driver{}).NewDatabase(params)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB database: %w", err)
	}
	return &DuckDB{db: db, path: opts.Path}, nil
}

// OpenConnection opens a new connection to the database.
func (d *DuckDB) OpenConnection() (integrations.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	conn, err := d.db.Open(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	dc := &duckConn{parent: d, Connection: conn}
	d.conns = append(d.conns, dc)
	return dc, nil
}

// Close closes every open connection, then the database.
func (d *DuckDB) Close() {
	d.mu.Lock()
	conns := d.conns
	d.conns = nil
	d.mu.Unlock()

	for _, c := range conns {
		c.Connection.Close()
		c.parent = nil
	}
	if d.db != nil {
		d.db.Close()
		d.db = nil
	}
}

// ConnCount returns the number of open connections.
func (d *DuckDB) ConnCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Path returns the database file path, or empty for in-memory.
func (d *DuckDB) Path() string {
	return d.path
}

// Exec runs a statement that returns no rows.
func (c *duckConn) Exec(ctx context.Context, sql string) (int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return -1, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	if err := stmt.SetSqlQuery(sql); err != nil {
		return -1, fmt.Errorf("failed to set query: %w", err)
	}
	return stmt.ExecuteUpdate(ctx)
}

// Query runs a SQL query. The returned reader owns the statement; releasing
// the reader closes it.
func (c *duckConn) Query(ctx context.Context, sql string) (array.RecordReader, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return nil, fmt.Errorf("failed to create statement: %w", err)
	}
	if err := stmt.SetSqlQuery(sql); err != nil {
		stmt.Close()
		return nil, fmt.Errorf("failed to set query: %w", err)
	}

	rr, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		stmt.Close()
		return nil, err
	}
	return &statementReader{rr: rr, stmt: stmt}, nil
}

// Ingest bulk-loads a record stream into the named table, creating the table
// on the first call and appending afterwards.
func (c *duckConn) Ingest(ctx context.Context, table string, records array.RecordReader, append bool) (int64, error) {
	stmt, err := c.NewStatement()
	if err != nil {
		return -1, fmt.Errorf("failed to create statement: %w", err)
	}
	defer stmt.Close()

	mode := adbc.OptionValueIngestModeCreate
	if append {
		mode = adbc.OptionValueIngestModeAppend
	}
	if err := stmt.SetOption(adbc.OptionKeyIngestMode, mode); err != nil {
		return -1, fmt.Errorf("failed to set ingest mode: %w", err)
	}
	if err := stmt.SetOption(adbc.OptionKeyIngestTargetTable, table); err != nil {
		return -1, fmt.Errorf("failed to set target table: %w", err)
	}
	if err := stmt.BindStream(ctx, records); err != nil {
		return -1, fmt.Errorf("failed to bind record stream: %w", err)
	}

	affected, err := stmt.ExecuteUpdate(ctx)
	if err != nil {
		return -1, fmt.Errorf("failed to ingest into %s: %w", table, err)
	}
	return affected, nil
}

// GetTableSchema returns the Arrow schema of the named table.
func (c *duckConn) GetTableSchema(ctx context.Context, catalog, schema *string, table string) (*arrow.Schema, error) {
	return c.Connection.GetTableSchema(ctx, catalog, schema, table)
}

// Close closes the connection and drops it from the parent's tracking.
func (c *duckConn) Close() {
	parent := c.parent
	if parent == nil {
		return
	}
	parent.mu.Lock()
	for i, conn := range parent.conns {
		if conn == c {
			parent.conns[i] = parent.conns[len(parent.conns)-1]
			parent.conns = parent.conns[:len(parent.conns)-1]
			break
		}
	}
	parent.mu.Unlock()

	c.Connection.Close()
	c.parent = nil
}

// statementReader keeps the statement alive for the lifetime of its result
// stream.
type statementReader struct {
	rr   array.RecordReader
	stmt adbc.Statement
}

func (r *statementReader) Schema() *arrow.Schema { return r.rr.Schema() }
func (r *statementReader) Next() bool            { return r.rr.Next() }
func (r *statementReader) Record() arrow.Record  { return r.rr.Record() }
func (r *statementReader) Err() error            { return r.rr.Err() }
func (r *statementReader) Retain()               { r.rr.Retain() }

func (r *statementReader) Release() {
	r.rr.Release()
	_ = r.stmt.Close()
}
