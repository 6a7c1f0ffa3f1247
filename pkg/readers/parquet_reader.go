package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/hopperdata/hopper/pkg/core"
)

// ParquetReader implements a reader for Parquet artifacts.
type ParquetReader struct {
	schema       *arrow.Schema
	fileReader   *file.Reader
	arrowReader  *pqarrow.FileReader
	recordReader pqarrow.RecordReader
	batchSize    int64
	f            *os.File
	alloc        memory.Allocator
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 4096
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	alloc := memory.NewGoAllocator()

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(parquetReader, pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: batchSize,
	}, alloc)
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	schema, err := arrowReader.Schema()
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	return &ParquetReader{
		schema:      schema,
		fileReader:  parquetReader,
		arrowReader: arrowReader,
		batchSize:   batchSize,
		f:           f,
		alloc:       alloc,
	}, nil
}

// Read returns the next batch of records.
func (r *ParquetReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.recordReader == nil {
		rr, err := r.arrowReader.GetRecordReader(ctx, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create record reader: %w", err)
		}
		r.recordReader = rr
	}

	if !r.recordReader.Next() {
		if err := r.recordReader.Err(); err != nil {
			return nil, fmt.Errorf("failed to read Parquet: %w", err)
		}
		return nil, io.EOF
	}

	record := r.recordReader.Record()
	record.Retain()
	return record, nil
}

// NumRows returns the total number of rows in the file.
func (r *ParquetReader) NumRows() int64 {
	return r.fileReader.NumRows()
}

// Schema returns the schema of the dataset.
func (r *ParquetReader) Schema() *arrow.Schema {
	return r.schema
}

// Close closes the reader and releases resources.
func (r *ParquetReader) Close() error {
	if r.recordReader != nil {
		r.recordReader.Release()
		r.recordReader = nil
	}
	// The parquet reader owns the file handle and closes it.
	if r.fileReader != nil {
		err := r.fileReader.Close()
		r.fileReader = nil
		r.f = nil
		return err
	}
	if r.f != nil {
		err := r.f.Close()
		r.f = nil
		return err
	}
	return nil
}
