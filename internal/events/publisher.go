package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Event types double as routing keys on the exchange.
const (
	OrderPlaced        = "order.placed"
	OrderPaid          = "order.paid"
	OrderCancelled     = "order.cancelled"
	OrderStatusUpdated = "order.status_updated"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Payment    bool      `json:"payment"`
	Status     string    `json:"status,omitempty"`
	IntentID   string    `json:"intentId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	conn        *amqp.Connection
	openChannel func() (channel, error)
	exchange    string
	logger      *zap.SugaredLogger
}

func NewAMQPPublisher(url, exchange string, logger *zap.SugaredLogger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %v: %w", exchange, err)
	}

	logger.Infow("event publisher connected", "exchange", exchange)
	return newAMQPPublisher(conn, func() (channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, exchange, logger), nil
}

func newAMQPPublisher(conn *amqp.Connection, openChannel func() (channel, error), exchange string, logger *zap.SugaredLogger) *amqpPublisher {
	return &amqpPublisher{conn: conn, openChannel: openChannel, exchange: exchange, logger: logger}
}

func (p *amqpPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		p.exchange, // exchange
		event.Type, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %v for order %v: %w", event.Type, event.OrderID, err)
	}
	return nil
}

func (p *amqpPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func (nopPublisher) Close() error { return nil }
