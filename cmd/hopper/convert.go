package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/hopperdata/hopper/metrics"
	"github.com/hopperdata/hopper/pkg/converters"
	"github.com/hopperdata/hopper/pkg/core"
)

// newConvertCommand builds the convert command: one positional dataset name
// constrained to the registry, two optional options, one converter call.
func newConvertCommand(reg *converters.Registry) *cobra.Command {
	var (
		directory  string
		outputFile string
		reportPath string
	)

	cmd := &cobra.Command{
		Use:       "convert DATASET",
		Short:     "Convert a raw dataset into a columnar artifact",
		Long: `The convert command reads the raw distribution files of the chosen dataset
and writes a single converted artifact. The dataset name must be one of the
registered converters (see "hopper datasets").

Omitted options fall back to the converter's defaults: the configured data
directory for --directory, and "<dataset>.parquet" in the working directory
for --output-file.`,
		ValidArgs: reg.Names(),
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Past argument parsing; a failure from here on is the
			// converter's, not a usage error.
			cmd.SilenceUsage = true

			conv, ok := reg.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown dataset %q (choose from: %s)",
					args[0], strings.Join(reg.Names(), ", "))
			}

			// Absent flags stay nil so converters can tell "not provided"
			// from an empty value.
			var opts core.ConvertOptions
			if cmd.Flags().Changed("directory") {
				opts.Directory = &directory
			}
			if cmd.Flags().Changed("output-file") {
				opts.OutputPath = &outputFile
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sig)
			go func() {
				<-sig
				fmt.Fprintln(os.Stderr, "\nCancelling conversion...")
				cancel()
			}()

			spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(os.Stderr))
			spin.Suffix = fmt.Sprintf(" converting %s...", args[0])
			spin.Start()

			result, err := conv(ctx, opts)
			spin.Stop()
			if err != nil {
				return err
			}

			printResult(result)

			if reportPath != "" {
				report := metrics.NewConversionReport(result, time.Now())
				if err := report.WriteJSON(reportPath); err != nil {
					return err
				}
				fmt.Printf("Report written to %s\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&directory, "directory", "d", "", "directory containing the raw dataset files")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "path the converted artifact is written to")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON conversion report to this path")

	return cmd
}

// printResult prints a human-readable conversion summary to stdout.
func printResult(result *core.ConvertResult) {
	fmt.Printf("Converted %s:\n", result.Dataset)
	fmt.Printf("  Output:  %s (%s)\n", result.OutputPath, result.Format)
	fmt.Printf("  Rows:    %d in %d batches\n", result.Rows, result.Batches)

	names := make([]string, 0, len(result.Splits))
	for name := range result.Splits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  Split %s: %d rows\n", name, result.Splits[name])
	}
	fmt.Printf("  Took:    %s\n", result.Duration.Round(time.Millisecond))
}

// newDatasetsCommand lists the registered dataset names.
func newDatasetsCommand(reg *converters.Registry) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the datasets hopper can convert",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range reg.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
