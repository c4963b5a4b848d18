package amqp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rabbitmq/amqp091-go"

	"taskfin/internal/store"
)

// Notifier adapts a Client to the store's change-notification contract.
// Every subscriber reads from its own exclusive queue bound to the change
// exchange, so each process sees every change.
type Notifier struct {
	client *Client
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, ch store.Change) error {
	return n.client.PublishChange(ctx, messageOf(ch))
}

// Subscribe starts a consumer for userID in the background. Only the
// initial registration error is returned; later interruptions reconnect.
func (n *Notifier) Subscribe(ctx context.Context, userID string, fn func(store.Change)) error {
	c := n.client
	handler := func(msg *ChangeMessage) error {
		if msg.UserID == userID {
			fn(msg.Change())
		}
		return nil
	}
	declare := func(channel *amqp091.Channel) (string, error) {
		q, err := channel.QueueDeclare(
			"",    // server-named
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			return "", fmt.Errorf("declare subscriber queue: %w", err)
		}
		if err := channel.QueueBind(q.Name, c.queueName, c.exchangeName, false, nil); err != nil {
			return "", fmt.Errorf("bind subscriber queue: %w", err)
		}
		return q.Name, nil
	}

	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if !connected {
		return fmt.Errorf("subscribe: %w", amqp091.ErrClosed)
	}

	go func() {
		for attempt := 0; ; attempt++ {
			err := c.consume(ctx, "", declare, handler)
			if ctx.Err() != nil || c.closed.Load() {
				return
			}
			slog.WarnContext(ctx, "Change subscription interrupted, reconnecting",
				"user_id", userID,
				"error", err)
			if err := c.backoffReconnect(ctx, attempt); err != nil {
				return
			}
		}
	}()
	return nil
}

func (n *Notifier) Close() error {
	return n.client.Close()
}
