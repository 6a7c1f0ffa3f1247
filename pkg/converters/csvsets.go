package converters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/hopperdata/hopper/config"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/pkg/readers"
)

// irisSchema describes the headerless iris.data file: four measurements and
// the class name.
var irisSchema = arrow.NewSchema([]arrow.Field{
	{Name: "sepal_length", Type: arrow.PrimitiveTypes.Float64},
	{Name: "sepal_width", Type: arrow.PrimitiveTypes.Float64},
	{Name: "petal_length", Type: arrow.PrimitiveTypes.Float64},
	{Name: "petal_width", Type: arrow.PrimitiveTypes.Float64},
	{Name: "class", Type: arrow.BinaryTypes.String},
}, nil)

// wineSchema describes the headerless wine.data file: the class label
// followed by thirteen measurements.
var wineSchema = arrow.NewSchema([]arrow.Field{
	{Name: "class", Type: arrow.PrimitiveTypes.Int64},
	{Name: "alcohol", Type: arrow.PrimitiveTypes.Float64},
	{Name: "malic_acid", Type: arrow.PrimitiveTypes.Float64},
	{Name: "ash", Type: arrow.PrimitiveTypes.Float64},
	{Name: "alcalinity_of_ash", Type: arrow.PrimitiveTypes.Float64},
	{Name: "magnesium", Type: arrow.PrimitiveTypes.Float64},
	{Name: "total_phenols", Type: arrow.PrimitiveTypes.Float64},
	{Name: "flavanoids", Type: arrow.PrimitiveTypes.Float64},
	{Name: "nonflavanoid_phenols", Type: arrow.PrimitiveTypes.Float64},
	{Name: "proanthocyanins", Type: arrow.PrimitiveTypes.Float64},
	{Name: "color_intensity", Type: arrow.PrimitiveTypes.Float64},
	{Name: "hue", Type: arrow.PrimitiveTypes.Float64},
	{Name: "od280_od315", Type: arrow.PrimitiveTypes.Float64},
	{Name: "proline", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// ConvertIris converts the UCI iris.data file into a single-split artifact.
func ConvertIris(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	return convertCSVDataset(ctx, opts, "iris", "iris.data", irisSchema)
}

// ConvertWine converts the UCI wine.data file into a single-split artifact.
func ConvertWine(ctx context.Context, opts core.ConvertOptions) (*core.ConvertResult, error) {
	return convertCSVDataset(ctx, opts, "wine", "wine.data", wineSchema)
}

// convertCSVDataset converts a small headerless CSV file into an artifact
// with one "all" split. CSV carries no row count up front, so the file is
// materialized first to learn the split size.
func convertCSVDataset(ctx context.Context, opts core.ConvertOptions, dataset, filename string, fileSchema *arrow.Schema) (*core.ConvertResult, error) {
	dir := resolveDirectory(opts)
	outPath, format := resolveOutput(opts, dataset)

	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("required file not found: %s", path)
	}

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{
		Type:      "csv",
		Path:      path,
		Schema:    fileSchema,
		BatchSize: config.Active().BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	buffered, rows, err := materialize(ctx, reader)
	if closeErr := reader.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		buffered.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	plans := []splitPlan{{
		name:    "all",
		readers: []core.DatasetReader{buffered},
		rows:    rows,
	}}
	return writeArtifact(ctx, dataset, outPath, format, plans, []string{path})
}

// materialize drains a reader into memory and returns a replayable reader
// over the buffered batches plus the total row count.
func materialize(ctx context.Context, reader core.DatasetReader) (*bufferedReader, int64, error) {
	buffered := &bufferedReader{schema: reader.Schema()}
	var rows int64
	for {
		record, err := reader.Read(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return buffered, 0, err
		}
		buffered.records = append(buffered.records, record)
		rows += record.NumRows()
	}
	if buffered.schema == nil {
		buffered.schema = reader.Schema()
	}
	return buffered, rows, nil
}

// bufferedReader replays a slice of in-memory records as a DatasetReader.
type bufferedReader struct {
	schema  *arrow.Schema
	records []arrow.Record
	next    int
}

func (r *bufferedReader) Read(ctx context.Context) (arrow.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if r.next >= len(r.records) {
		return nil, io.EOF
	}
	record := r.records[r.next]
	r.records[r.next] = nil
	r.next++
	return record, nil
}

func (r *bufferedReader) Schema() *arrow.Schema {
	return r.schema
}

func (r *bufferedReader) Close() error {
	for _, record := range r.records[r.next:] {
		if record != nil {
			record.Release()
		}
	}
	r.records = nil
	return nil
}
