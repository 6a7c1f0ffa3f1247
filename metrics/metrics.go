// Package metrics records conversion run reports.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/version"
)

// SplitMetrics holds the row range written for one split.
type SplitMetrics struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// ConversionReport captures what one conversion run read and produced.
type ConversionReport struct {
	Dataset    string         `json:"dataset"`
	Version    string         `json:"version"`
	Inputs     []string       `json:"inputs"`
	OutputPath string         `json:"output_path"`
	Format     string         `json:"format"`
	Rows       int64          `json:"rows"`
	Batches    int64          `json:"batches"`
	Splits     []SplitMetrics `json:"splits"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	DurationMS int64          `json:"duration_ms"`
}

// NewConversionReport builds a report from a conversion result. Splits are
// listed in name order.
func NewConversionReport(result *core.ConvertResult, finished time.Time) *ConversionReport {
	report := &ConversionReport{
		Dataset:    result.Dataset,
		Version:    version.Version,
		Inputs:     result.Inputs,
		OutputPath: result.OutputPath,
		Format:     result.Format,
		Rows:       result.Rows,
		Batches:    result.Batches,
		StartTime:  finished.Add(-result.Duration),
		EndTime:    finished,
		DurationMS: result.Duration.Milliseconds(),
	}
	for name, rows := range result.Splits {
		report.Splits = append(report.Splits, SplitMetrics{Name: name, Rows: rows})
	}
	sort.Slice(report.Splits, func(i, j int) bool {
		return report.Splits[i].Name < report.Splits[j].Name
	})
	return report
}

// WriteJSON writes the report as indented JSON to the given path.
func (r *ConversionReport) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
