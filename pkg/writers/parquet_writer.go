package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/hopperdata/hopper/pkg/core"
)

// ParquetWriter implements a writer for Parquet files.
type ParquetWriter struct {
	writer     *pqarrow.FileWriter
	file       *os.File
	schema     *arrow.Schema
	metadata   arrow.Metadata
	properties pqarrow.ArrowWriterProperties
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet file: %w", err)
	}

	// The writer is created on the first record because it needs the schema.
	return &ParquetWriter{
		file:       file,
		metadata:   config.Metadata,
		properties: pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	}, nil
}

// Write writes a record to the file.
func (w *ParquetWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if w.writer == nil {
		w.schema = mergeMetadata(record.Schema(), w.metadata)

		writeProps := parquet.NewWriterProperties(
			parquet.WithCompression(compress.Codecs.Snappy),
			parquet.WithDictionaryDefault(false),
		)

		writer, err := pqarrow.NewFileWriter(
			w.schema,
			w.file,
			writeProps,
			w.properties,
		)
		if err != nil {
			return fmt.Errorf("failed to create Parquet writer: %w", err)
		}
		w.writer = writer
	}

	// Rewrap so the record carries the writer's metadata-merged schema.
	rec := array.NewRecord(w.schema, record.Columns(), record.NumRows())
	defer rec.Release()

	if err := w.writer.Write(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ParquetWriter) Close() error {
	var err error

	if w.writer != nil {
		if closeErr := w.writer.Close(); closeErr != nil {
			err = closeErr
		}
		w.writer = nil
		// pqarrow closes the underlying file on writer close.
		w.file = nil
	}

	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		w.file = nil
	}

	return err
}

// mergeMetadata returns schema with the entries of md appended to its
// schema-level metadata.
func mergeMetadata(schema *arrow.Schema, md arrow.Metadata) *arrow.Schema {
	if md.Len() == 0 {
		return schema
	}
	keys := append([]string{}, schema.Metadata().Keys()...)
	values := append([]string{}, schema.Metadata().Values()...)
	keys = append(keys, md.Keys()...)
	values = append(values, md.Values()...)
	merged := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(schema.Fields(), &merged)
}
