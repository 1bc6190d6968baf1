package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the filter HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := NewServer(a.cfg, os.Stdout)
			if err != nil {
				return err
			}

			if err := srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			if err := srv.Shutdown(a.cfg.ShutdownTimeoutDuration()); err != nil {
				return err
			}

			srv.infra.Logger.Info("service stopped gracefully")
			return nil
		},
	}
}
