package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hopperdata/hopper/pkg/core"
)

// CSVReader implements a reader for CSV files, converting rows to Arrow
// batches. When the configuration supplies an explicit schema the file is
// treated as headerless (the shape UCI-style dataset files come in);
// otherwise column types are inferred and the first row is the header.
type CSVReader struct {
	schema *arrow.Schema
	file   *os.File
	reader *csv.Reader
	alloc  memory.Allocator
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	chunkSize := config.BatchSize
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	alloc := memory.NewGoAllocator()

	var reader *csv.Reader
	if config.Schema != nil {
		reader = csv.NewReader(
			file,
			config.Schema,
			csv.WithChunk(int(chunkSize)),
			csv.WithHeader(false),
			csv.WithNullReader(true, ""),
			csv.WithAllocator(alloc),
		)
	} else {
		reader = csv.NewInferringReader(
			file,
			csv.WithChunk(int(chunkSize)),
			csv.WithHeader(true),
			csv.WithNullReader(true, ""),
			csv.WithAllocator(alloc),
		)
	}

	return &CSVReader{
		schema: config.Schema,
		file:   file,
		reader: reader,
		alloc:  alloc,
	}, nil
}

// Read returns the next batch of records.
func (r *CSVReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !r.reader.Next() {
		if err := r.reader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return nil, io.EOF
	}

	if r.schema == nil {
		r.schema = r.reader.Schema()
	}

	record := r.reader.Record()
	record.Retain()
	return record, nil
}

// Schema returns the schema of the dataset.
func (r *CSVReader) Schema() *arrow.Schema {
	if r.schema == nil {
		r.schema = r.reader.Schema()
	}
	return r.schema
}

// Close closes the reader and releases resources.
func (r *CSVReader) Close() error {
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
