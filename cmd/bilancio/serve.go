package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/cli"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.Port = port
			}
			return serve(cmd.Context(), a)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func serve(parent context.Context, a *app) error {
	ctx, stop := cli.SignalContext(parent)
	defer stop()

	logger := a.logger
	cfg := a.cfg

	var publisher services.EventPublisher
	client, err := cli.ConnectEvents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
		publisher = client
	}

	svc := services.NewLedgerService(publisher, logger, cfg.StrictCategories)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		CurrencySymbol: cfg.CurrencySymbol,
		CacheSize:      cfg.ChartCacheSize,
		CacheTTL:       cfg.ChartCacheTTL,
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger,
	}, svc)
	if err != nil {
		return err
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bilancio server",
			"port", cfg.Port,
			"events", cfg.EventsEnabled(),
			"strict_categories", cfg.StrictCategories)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return srv.RunBackground(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err.Error())
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
