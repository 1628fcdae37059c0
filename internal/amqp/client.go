package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitmq/amqp091-go"

	applog "bilancio/internal/log"
)

// dialTimeout bounds how long NewClient keeps retrying the broker.
const dialTimeout = 30 * time.Second

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *applog.Logger
}

// NewClient dials the broker with exponential backoff and declares the
// exchange and queue. A nil logger falls back to the default config.
func NewClient(ctx context.Context, url, exchangeName, queueName string, logger *applog.Logger) (*Client, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentAMQP)

	var conn *amqp091.Connection
	dial := func() error {
		c, err := amqp091.Dial(url)
		if err != nil {
			logger.WarnContext(ctx, "AMQP dial failed, retrying", applog.FieldError, err.Error())
			return err
		}
		conn = c
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = dialTimeout
	if err := backoff.Retry(dial, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on the direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishEvent publishes one ledger event
func (c *Client) PublishEvent(ctx context.Context, msg *EventMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			MessageId:   msg.ID,
			Type:        msg.Type,
			Timestamp:   msg.Timestamp,
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.DebugContext(ctx, "Published ledger event",
		applog.FieldEventID, msg.ID,
		applog.FieldEventType, msg.Type,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ackAction is what the consumer does with a delivery after handling it.
type ackAction int

const (
	ack ackAction = iota
	reject
	requeue
)

// process decodes one delivery body and runs the handler. Malformed
// messages are rejected for good; handler failures are requeued.
func process(ctx context.Context, logger *applog.Logger, body []byte, handler func(*EventMessage) error) ackAction {
	msg, err := EventMessageFromJSON(body)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to unmarshal message",
			applog.FieldError, err.Error(),
			applog.FieldOperation, applog.OpConsume)
		return reject
	}
	if err := handler(msg); err != nil {
		logger.ErrorContext(ctx, "Failed to handle message",
			applog.FieldError, err.Error(),
			applog.FieldEventID, msg.ID,
			applog.FieldEventType, msg.Type,
			applog.FieldOperation, applog.OpConsume)
		return requeue
	}
	return ack
}

// ConsumeEvents consumes ledger events until ctx is cancelled
func (c *Client) ConsumeEvents(ctx context.Context, handler func(*EventMessage) error) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err().Error())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			switch process(ctx, c.logger, delivery.Body, handler) {
			case ack:
				_ = delivery.Ack(false)
			case reject:
				_ = delivery.Nack(false, false)
			case requeue:
				_ = delivery.Nack(false, true)
			}
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
