package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitepipe/internal/config"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
)

// NATSNotifier publishes events to a NATS subject. Each event goes to
// "<subject>.<state>" so consumers can subscribe to a single state.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
}

// NewNATSNotifier connects to the configured server.
func NewNATSNotifier(cfg config.EventsConfig) (*NATSNotifier, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("events: nats_url is required")
	}
	subject := cfg.Subject
	if subject == "" {
		subject = config.DefaultEventsSubject
	}

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("sitepipe"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS notifier initialized", logfields.URL(cfg.NATSURL), slog.String("subject", subject))
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// Notify publishes ev and flushes so delivery failures surface here.
func (n *NATSNotifier) Notify(ctx context.Context, ev Event) error {
	data, err := ev.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	subject := n.subject + "." + ev.State
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), slog.String("subject", subject))
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}

// New returns a NATS notifier when a server is configured, otherwise Noop.
func New(cfg config.EventsConfig) (Notifier, error) {
	if cfg.NATSURL == "" {
		return Noop{}, nil
	}
	return NewNATSNotifier(cfg)
}
