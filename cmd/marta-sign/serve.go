package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/radioacc/marta-sign/internal/config"
	"github.com/radioacc/marta-sign/internal/handlers"
)

func serveCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the arrivals HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Value: fmt.Sprintf(":%d", cfg.Port),
				Usage: "listen address for the web server",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := newBoard(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			var pinger handlers.Pinger
			if b.store != nil {
				pinger = b.store
			}

			router := handlers.NewRouter(
				handlers.NewArrivalsHandler(b.service),
				handlers.NewHealthHandler(b.cache, pinger),
				cfg.CORSAllowedOrigins,
			)

			srv := &http.Server{
				Addr:              c.String("listen"),
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				// every feed endpoint timing out plus a timetable query
				WriteTimeout: time.Duration(len(cfg.FeedURLs))*cfg.FeedTimeout + cfg.QueryTimeout + 10*time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("API server starting")
				log.Info().Msg("  GET /api/arrivals?station=NAME")
				log.Info().Msg("  GET /health")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down cleanly: %w", err)
			}
			return nil
		},
	}
}
