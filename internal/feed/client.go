// Package feed carries expense change events over AMQP: the resource
// service publishes on every mutation, dashboard engines subscribe.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"tally/internal/store"
)

// Client wraps one AMQP connection bound to the change-feed exchange.
// Events fan out: every subscriber gets its own exclusive queue, so
// multiple dashboards see the same stream.
type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
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
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"fanout",       // type: every bound queue sees every event
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	return nil
}

// PublishEvent publishes one change event to the feed.
func (c *Client) PublishEvent(ctx context.Context, ev store.Event) error {
	body, err := ev.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		"",             // routing key (ignored by fanout)
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.InfoContext(ctx, "Published change event",
		"kind", ev.Kind,
		"id", ev.ID,
		"exchange", c.exchangeName)

	return nil
}

// subscription is one live binding to the feed. Unsubscribe is idempotent.
type subscription struct {
	channel *amqp091.Channel
	cancel  context.CancelFunc
	once    sync.Once
	err     error
}

func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.cancel()
		s.err = s.channel.Close()
	})
	return s.err
}

// Subscribe opens an exclusive queue bound to the feed exchange and
// delivers decoded events to handler, in arrival order, on a dedicated
// goroutine until Unsubscribe or context cancellation. Malformed messages
// are rejected without requeue and skipped.
func (c *Client) Subscribe(ctx context.Context, handler func(store.Event)) (store.Subscription, error) {
	channel, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open subscriber channel: %w", err)
	}

	queue, err := channel.QueueDeclare(
		"",    // name: broker-generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("declare subscriber queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, "", c.exchangeName, false, nil); err != nil {
		channel.Close()
		return nil, fmt.Errorf("bind subscriber queue: %w", err)
	}

	msgs, err := channel.Consume(
		queue.Name, // queue
		"",         // consumer
		false,      // auto-ack (we want manual ack)
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		channel.Close()
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{channel: channel, cancel: cancel}

	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case delivery, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := store.EventFromJSON(delivery.Body)
				if err != nil {
					slog.ErrorContext(subCtx, "Failed to decode change event", "error", err)
					delivery.Nack(false, false) // reject and don't requeue
					continue
				}
				handler(ev)
				delivery.Ack(false)
			}
		}
	}()

	slog.InfoContext(ctx, "Subscribed to change feed",
		"exchange", c.exchangeName,
		"queue", queue.Name)

	return sub, nil
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
