// Package cli holds the start-up steps shared by the bilancio commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
)

// LoadConfig loads envFiles (or an optional ./.env when none are given),
// then reads the environment and validates the result.
func LoadConfig(envFiles ...string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentApp,
		Output:    os.Stdout,
	})
	applog.SetDefault(logger)
	return logger
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// ConnectEvents dials the broker when events are enabled. It returns a nil
// client, and no error, when AMQP_URL is unset.
func ConnectEvents(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*amqp.Client, error) {
	if !cfg.EventsEnabled() {
		logger.Info("Ledger events disabled - no AMQP_URL provided")
		return nil, nil
	}

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to event broker: %w", err)
	}
	logger.Info("Ledger events enabled",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client, nil
}
