package writers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/hopperdata/hopper/pkg/core"
)

// JSONLWriter implements a writer producing one JSON object per row.
// Binary image columns are emitted base64-encoded, which is what
// encoding/json does with byte slices.
type JSONLWriter struct {
	file    *os.File
	encoder *json.Encoder
}

// NewJSONLWriter creates a new JSON Lines writer.
func NewJSONLWriter(config core.WriterConfig) (core.DatasetWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for JSONL writer")
	}

	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSONL file: %w", err)
	}

	return &JSONLWriter{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// Write writes a record to the file.
func (w *JSONLWriter) Write(ctx context.Context, record arrow.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	numRows := int(record.NumRows())
	numCols := int(record.NumCols())

	for i := 0; i < numRows; i++ {
		row := make(map[string]interface{}, numCols)
		for j := 0; j < numCols; j++ {
			field := record.Schema().Field(j)
			row[field.Name] = columnValue(record.Column(j), i)
		}
		if err := w.encoder.Encode(row); err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
	}

	return nil
}

// columnValue extracts the i-th value of a column as a JSON-friendly type.
func columnValue(col arrow.Array, i int) interface{} {
	if col.IsNull(i) {
		return nil
	}
	switch col := col.(type) {
	case *array.Int8:
		return col.Value(i)
	case *array.Int16:
		return col.Value(i)
	case *array.Int32:
		return col.Value(i)
	case *array.Int64:
		return col.Value(i)
	case *array.Uint8:
		return col.Value(i)
	case *array.Uint16:
		return col.Value(i)
	case *array.Uint32:
		return col.Value(i)
	case *array.Uint64:
		return col.Value(i)
	case *array.Float32:
		return col.Value(i)
	case *array.Float64:
		return col.Value(i)
	case *array.Boolean:
		return col.Value(i)
	case *array.String:
		return col.Value(i)
	case *array.Binary:
		return col.Value(i)
	case *array.FixedSizeBinary:
		return col.Value(i)
	default:
		return nil
	}
}

// Close closes the writer and flushes any pending data.
func (w *JSONLWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
