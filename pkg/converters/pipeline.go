package converters

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hopperdata/hopper/config"
	"github.com/hopperdata/hopper/logger"
	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/pkg/schema"
	"github.com/hopperdata/hopper/pkg/writers"
)

// splitPlan is one split of the artifact: a name, the readers that produce
// its rows in order, and the expected total row count.
type splitPlan struct {
	name    string
	readers []core.DatasetReader
	rows    int64
}

// rowCounter is implemented by readers that know their total row count from
// the raw file headers or size.
type rowCounter interface {
	TotalRows() int64
}

// closePlans closes every reader in the given plans, ignoring errors. Used
// on the error paths of converter setup.
func closePlans(plans []splitPlan) {
	for _, plan := range plans {
		for _, r := range plan.readers {
			_ = r.Close()
		}
	}
}

// resolveDirectory returns the directory raw files are read from: the
// caller-supplied value when present, the configured data directory
// otherwise.
func resolveDirectory(opts core.ConvertOptions) string {
	if opts.Directory != nil {
		return *opts.Directory
	}
	return config.Active().DataDir
}

// resolveOutput returns the artifact path and format. An explicit path picks
// its format by extension; the default is "<dataset>.<ext>" for the
// configured format, in the working directory.
func resolveOutput(opts core.ConvertOptions, dataset string) (string, string) {
	if opts.OutputPath != nil {
		path := *opts.OutputPath
		return path, writers.DetectFormat(path)
	}
	format := config.Active().Format
	return dataset + "." + formatExtension(format), format
}

func formatExtension(format string) string {
	switch format {
	case "arrow":
		return "arrow"
	case "jsonl":
		return "jsonl"
	case "duckdb":
		return "duckdb"
	default:
		return "parquet"
	}
}

// requireFile returns path if it exists, or path+".gz" if that exists, so
// converters accept both the compressed distribution files and unpacked ones.
func requireFile(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if _, err := os.Stat(path + ".gz"); err == nil {
		return path + ".gz", nil
	}
	return "", fmt.Errorf("required file not found: %s", path)
}

// writeArtifact streams every split to a single artifact, stamping the split
// boundaries into the schema metadata, and returns the conversion summary.
// It consumes and closes the plan readers.
func writeArtifact(ctx context.Context, dataset, outPath, format string, plans []splitPlan, inputs []string) (result *core.ConvertResult, err error) {
	started := time.Now()
	log := logger.GetLogger()

	defer func() {
		for _, plan := range plans {
			for _, r := range plan.readers {
				if closeErr := r.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}
		}
	}()

	var splits schema.Splits
	var offset int64
	for _, plan := range plans {
		splits = append(splits, schema.Split{
			Name:  plan.name,
			Start: offset,
			Stop:  offset + plan.rows,
		})
		offset += plan.rows
	}

	writer, err := writers.DefaultFactory.Create(core.WriterConfig{
		Type:     format,
		Path:     outPath,
		Table:    dataset,
		Metadata: splits.Metadata(dataset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s writer: %w", format, err)
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	log.Info("converting dataset",
		zap.String("dataset", dataset),
		zap.String("output", outPath),
		zap.String("format", format),
		zap.Int64("rows", offset),
	)

	var totalRows, totalBatches int64
	splitRows := make(map[string]int64, len(plans))
	for _, plan := range plans {
		var written int64
		for _, reader := range plan.readers {
			for {
				record, readErr := reader.Read(ctx)
				if readErr == io.EOF {
					break
				}
				if readErr != nil {
					return nil, fmt.Errorf("failed to read %s split %s: %w", dataset, plan.name, readErr)
				}
				writeErr := writer.Write(ctx, record)
				rows := record.NumRows()
				record.Release()
				if writeErr != nil {
					return nil, fmt.Errorf("failed to write %s split %s: %w", dataset, plan.name, writeErr)
				}
				written += rows
				totalBatches++
			}
		}
		if written != plan.rows {
			return nil, fmt.Errorf("split %s: wrote %d rows, expected %d", plan.name, written, plan.rows)
		}
		splitRows[plan.name] = written
		totalRows += written
	}

	duration := time.Since(started)
	log.Info("conversion complete",
		zap.String("dataset", dataset),
		zap.Int64("rows", totalRows),
		zap.Duration("duration", duration),
	)

	return &core.ConvertResult{
		Dataset:    dataset,
		OutputPath: outPath,
		Format:     format,
		Rows:       totalRows,
		Batches:    totalBatches,
		Splits:     splitRows,
		Inputs:     inputs,
		Duration:   duration,
	}, nil
}
