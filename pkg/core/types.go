// Package core provides the core types and interfaces for the Hopper dataset conversion tool.
package core

import (
	"context"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
)

// Converter converts one raw dataset into a columnar artifact. Implementations
// are side-effecting: they read the raw distribution files and write the
// converted artifact, returning a summary of what was produced.
type Converter func(ctx context.Context, opts ConvertOptions) (*ConvertResult, error)

// ConvertOptions carries the two caller-supplied knobs of a conversion.
// A nil pointer means the caller did not supply a value and the converter
// falls back to its own default (the configured data directory, or
// "<dataset>.parquet" in the working directory).
type ConvertOptions struct {
	// Directory is the directory containing the raw distribution files.
	Directory *string

	// OutputPath is the path the converted artifact is written to.
	OutputPath *string
}

// ConvertResult summarizes a completed conversion.
type ConvertResult struct {
	// Dataset is the registered name of the converted dataset.
	Dataset string

	// OutputPath is the path of the written artifact.
	OutputPath string

	// Format is the artifact format that was written (parquet, arrow, ...).
	Format string

	// Rows is the total number of rows written across all splits.
	Rows int64

	// Batches is the number of record batches written.
	Batches int64

	// Splits maps split names (train, test) to their row counts.
	Splits map[string]int64

	// Inputs lists the raw files that were read.
	Inputs []string

	// Duration is the wall-clock time of the conversion.
	Duration time.Duration
}

// DatasetReader defines an interface for reading data from various sources.
type DatasetReader interface {
	// Read returns a record batch and an error if any.
	// Returns io.EOF when there are no more batches.
	Read(ctx context.Context) (arrow.Record, error)

	// Schema returns the schema of the dataset.
	Schema() *arrow.Schema

	// Close closes the reader and releases resources.
	Close() error
}

// DatasetWriter defines an interface for writing data to various destinations.
type DatasetWriter interface {
	// Write writes a record to the destination.
	Write(ctx context.Context, record arrow.Record) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader.
	Type string

	// Path is the path to the primary data file.
	Path string

	// LabelPath is the path to a companion label file, for formats that
	// ship images and labels in separate files (IDX).
	LabelPath string

	// Schema is the explicit schema for formats that carry none (CSV).
	Schema *arrow.Schema

	// BatchSize is the size of batches to read.
	BatchSize int64
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the type of the writer.
	Type string

	// Path is the path to the output file.
	Path string

	// Table is the destination table name for database writers.
	Table string

	// Metadata is stamped into the artifact's schema-level metadata. File
	// writers merge it into the schema of the first record they receive;
	// database writers ignore it.
	Metadata arrow.Metadata
}
