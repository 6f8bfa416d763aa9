// Package rabbitmq forwards audit entries to a RabbitMQ exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"family-registry-go/internal/config"
	"family-registry-go/internal/domain/audit"
	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeKind = "topic"

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AuditPublisher is an audit.Sink that publishes each entry as a persistent
// JSON message.
type AuditPublisher struct {
	conn       *amqp.Connection
	channel    Channel
	exchange   string
	routingKey string
	timeout    time.Duration
	mu         sync.Mutex
}

// Dial connects to the broker and declares the audit exchange.
func Dial(cfg config.AuditConfig) (*AuditPublisher, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	publisher, err := NewAuditPublisher(ch, cfg.AMQPExchange, cfg.AMQPRouteKey, cfg.PublishTimeout)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

func NewAuditPublisher(ch Channel, exchange, routingKey string, timeout time.Duration) (*AuditPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("rabbitmq: declare exchange %s: %w", exchange, err)
	}
	return &AuditPublisher{
		channel:    ch,
		exchange:   exchange,
		routingKey: routingKey,
		timeout:    timeout,
	}, nil
}

func (p *AuditPublisher) Write(ctx context.Context, entry audit.Entry) error {
	msg, err := Message(entry)
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	// amqp channels must not be shared between concurrent publishers.
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", entry.Action, err)
	}
	return nil
}

// Message encodes an entry. The action is repeated as the message type so
// consumers can route without decoding the body.
func Message(entry audit.Entry) (amqp.Publishing, error) {
	body, err := json.Marshal(entry)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("rabbitmq: encode entry: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    entry.ID,
		Type:         string(entry.Action),
		Timestamp:    entry.CreatedAt,
		Body:         body,
	}, nil
}

func (p *AuditPublisher) Close() error {
	err := p.channel.Close()
	if p.conn != nil {
		if closeErr := p.conn.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}
