package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shiroyk/mqjs/api"
	"github.com/shiroyk/mqjs/js"
	"github.com/shiroyk/mqjs/lib/config"
	"github.com/shiroyk/mqjs/store/bolt"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the api server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())
			if address != "" {
				cfg.Api.Address = address
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address, overrides the configuration")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := js.Logger(ctx)
	store, err := bolt.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	scheduler := js.NewScheduler(cfg.JS)
	defer scheduler.Close()

	cfg.Api.Logger = logger
	e := api.Server(cfg.Api, scheduler, store)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errC := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "address", cfg.Api.Address)
		errC <- e.Start(cfg.Api.Address)
	}()

	select {
	case err = <-errC:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
