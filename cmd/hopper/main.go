// Package main provides the entry point for the hopper dataset conversion tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hopperdata/hopper/config"
	"github.com/hopperdata/hopper/logger"
	"github.com/hopperdata/hopper/pkg/converters"
	"github.com/hopperdata/hopper/version"
)

func main() {
	defer logger.Sync()
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand wires up the CLI.
func newRootCommand() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "hopper",
		Short: "hopper converts raw ML datasets into columnar artifacts",
		Long: `hopper converts well-known machine learning datasets from their raw
distribution formats (IDX, CIFAR binary, CSV) into columnar artifacts
(Parquet, Arrow IPC, JSON Lines, or a DuckDB table), with train/test split
boundaries recorded in the artifact's schema metadata.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			config.SetActive(cfg)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.hopper.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of hopper",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hopper v%s (built %s)\n", version.Version, version.BuildDate)
		},
	})

	rootCmd.AddCommand(newConvertCommand(converters.Default))
	rootCmd.AddCommand(newDatasetsCommand(converters.Default))
	rootCmd.AddCommand(newInspectCommand())
	rootCmd.AddCommand(newServeCommand(converters.Default))

	return rootCmd
}
