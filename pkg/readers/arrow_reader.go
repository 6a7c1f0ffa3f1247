package readers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/hopperdata/hopper/pkg/core"
)

// ArrowReader implements a reader for Arrow IPC artifacts.
type ArrowReader struct {
	schema     *arrow.Schema
	reader     *ipc.FileReader
	file       *os.File
	currentIdx int
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.DatasetReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowReader{
		schema: reader.Schema(),
		reader: reader,
		file:   file,
	}, nil
}

// Read returns the next batch of records.
func (r *ArrowReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if r.currentIdx >= r.reader.NumRecords() {
		return nil, io.EOF
	}

	record, err := r.reader.Record(r.currentIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %d: %w", r.currentIdx, err)
	}
	r.currentIdx++

	// The file reader reuses its record on the next read, so hand the
	// caller an independent copy.
	return cloneRecord(record), nil
}

// cloneRecord creates a deep copy of a record to ensure ownership.
func cloneRecord(record arrow.Record) arrow.Record {
	cols := make([]arrow.Array, record.NumCols())
	for i, col := range record.Columns() {
		cols[i] = array.MakeFromData(col.Data())
	}
	return array.NewRecord(record.Schema(), cols, record.NumRows())
}

// NumRows returns the total number of rows in the file.
func (r *ArrowReader) NumRows() int64 {
	var total int64
	for i := 0; i < r.reader.NumRecords(); i++ {
		if rec, err := r.reader.Record(i); err == nil {
			total += rec.NumRows()
		}
	}
	return total
}

// Schema returns the schema of the dataset.
func (r *ArrowReader) Schema() *arrow.Schema {
	return r.schema
}

// Close closes the reader and releases resources.
func (r *ArrowReader) Close() error {
	var err error
	if r.reader != nil {
		err = r.reader.Close()
		r.reader = nil
	}
	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}
	return err
}
