package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// Subjects published by the API
const (
	OrderCreated        = "orders.created"
	OrderStatusChanged  = "orders.status_changed"
	PaymentSucceeded    = "payments.succeeded"
	PaymentFailed       = "payments.failed"
	ReturnRequested     = "returns.requested"
	ReturnStatusChanged = "returns.status_changed"
	RefundCompleted     = "refunds.completed"
	CustomRequestFiled  = "custom_requests.created"
)

// Publisher emits domain events. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type natsPublisher struct {
	conn *nats.Conn
}

// New connects to NATS, or returns a no-op publisher when url is empty
func New(url string) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	conn, err := nats.Connect(url, nats.Name("makerhub-api"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("✅ Connected to NATS at %s", url)
	return &natsPublisher{conn: conn}, nil
}

func (n *natsPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	return n.conn.Publish(subject, payload)
}

func (n *natsPublisher) Close() error {
	return n.conn.Drain()
}

// Noop discards every event
type Noop struct{}

func (Noop) Publish(context.Context, string, interface{}) error { return nil }
func (Noop) Close() error                                     { return nil }

// Emit publishes and only logs failures; events never fail a request
func Emit(ctx context.Context, p Publisher, subject string, data interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, subject, data); err != nil {
		log.Printf("⚠️ event %s not published: %v", subject, err)
	}
}
