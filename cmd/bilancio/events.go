package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	applog "bilancio/internal/log"
)

func newEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Tail ledger events from the broker and log each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tailEvents(cmd.Context(), a)
		},
	}
}

func tailEvents(parent context.Context, a *app) error {
	if !a.cfg.EventsEnabled() {
		return errors.New("AMQP_URL is required for the events command")
	}

	ctx, stop := cli.SignalContext(parent)
	defer stop()

	client, err := cli.ConnectEvents(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	logger := a.logger.WithComponent(applog.ComponentEvents)
	logger.Info("Consuming ledger events", "queue", a.cfg.AMQPQueue)

	err = client.ConsumeEvents(ctx, func(msg *amqp.EventMessage) error {
		logger.Info("Ledger event",
			applog.FieldEventType, msg.Type,
			applog.FieldEventID, msg.ID,
			applog.FieldIndex, msg.Index,
			applog.FieldDate, msg.Date,
			applog.FieldKind, msg.Kind,
			applog.FieldCategory, msg.Category,
			applog.FieldAmount, msg.Amount.String(),
			applog.FieldBalance, msg.Balance.String(),
			applog.FieldVersion, msg.Version)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("Event consumer stopped")
	return nil
}
