package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hopperdata/hopper/pkg/core"
	"github.com/hopperdata/hopper/pkg/readers"
	"github.com/hopperdata/hopper/pkg/schema"
)

// rowCounted is implemented by artifact readers that know their row count.
type rowCounted interface {
	NumRows() int64
}

// newInspectCommand builds the inspect command, which prints the schema and
// split layout of a converted artifact and checks its metadata for
// consistency.
func newInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect PATH",
		Short: "Show the schema and splits of a converted artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runInspect(cmd, args[0])
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, path string) error {
	var readerType string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		readerType = "parquet"
	case ".arrow", ".arrows", ".feather":
		readerType = "arrow"
	default:
		return fmt.Errorf("cannot inspect %s: unsupported extension", path)
	}

	reader, err := readers.DefaultFactory.Create(core.ReaderConfig{
		Type: readerType,
		Path: path,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	sc := reader.Schema()
	out := cmd.OutOrStdout()

	splits, dataset, err := schema.FromMetadata(sc.Metadata())
	if err != nil {
		return fmt.Errorf("bad split metadata in %s: %w", path, err)
	}

	if dataset != "" {
		fmt.Fprintf(out, "Dataset: %s\n", dataset)
	}
	fmt.Fprintf(out, "Format:  %s\n", readerType)

	fmt.Fprintln(out, "Columns:")
	for _, field := range sc.Fields() {
		fmt.Fprintf(out, "  %s: %s\n", field.Name, field.Type)
	}

	counter, ok := reader.(rowCounted)
	if !ok {
		return fmt.Errorf("%s reader does not report row counts", readerType)
	}
	totalRows := counter.NumRows()
	fmt.Fprintf(out, "Rows:    %d\n", totalRows)

	if len(splits) > 0 {
		fmt.Fprintln(out, "Splits:")
		for _, split := range splits {
			fmt.Fprintf(out, "  %s: rows %d to %d (%d rows)\n",
				split.Name, split.Start, split.Stop, split.Rows())
		}
		if err := splits.Validate(totalRows); err != nil {
			return fmt.Errorf("artifact %s failed validation: %w", path, err)
		}
	}

	return nil
}
