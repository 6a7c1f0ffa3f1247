package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hopperdata/hopper/api"
	"github.com/hopperdata/hopper/logger"
	"github.com/hopperdata/hopper/pkg/converters"
)

// newServeCommand starts the HTTP API with graceful shutdown handling.
func newServeCommand(reg *converters.Registry) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			log := logger.GetLogger()

			server := api.NewServer(api.ServerOptions{
				Port:     port,
				Registry: reg,
			})

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-quit:
				log.Info("received shutdown signal, stopping server")
				if err := server.Shutdown(); err != nil {
					return err
				}
				log.Info("server shutdown complete", zap.String("port", port))
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "5577", "port the API listens on")
	return cmd
}
