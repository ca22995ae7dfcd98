package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reservation-notifier/internal/intake"
)

const shutdownGrace = 15 * time.Second

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		port    int
		origins []string
	)

	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reservation intake API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, flags)
			if err != nil {
				return err
			}
			log := a.log

			if port <= 0 {
				port = a.cfg.App.Port
			}

			handler, err := intake.NewHandler(a.dispatcher, log)
			if err != nil {
				_ = a.Close(context.Background())
				return err
			}
			router := intake.NewRouter(handler, intake.RouterOptions{
				Metrics:        a.metrics.Handler(),
				Instrument:     a.metrics.Middleware,
				AllowedOrigins: origins,
			})

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			log.Info().Int("port", port).Str("env", a.cfg.App.Env).Msg("reservation intake started")

			var runErr error
			select {
			case <-ctx.Done():
				log.Info().Msg("shutdown signal received")
			case err := <-errCh:
				if err != nil {
					log.Error().Err(err).Msg("http server terminated with error")
					runErr = err
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("http server shutdown failed")
			}
			if err := a.Close(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("resource cleanup failed")
			}
			return runErr
		},
	}

	c.Flags().IntVar(&port, "port", 0, "listen port (defaults to APP_PORT)")
	c.Flags().StringSliceVar(&origins, "cors-origin", nil, "allowed CORS origins (default *)")
	return c
}
