// Package messaging publishes domain events to an AMQP topic exchange so
// other services can follow changes to household data.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// publishChannel is the subset of *amqp091.Channel the publisher needs
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Message is the body published for every event
type Message struct {
	OwnerID   uuid.UUID            `json:"ownerId"`
	Type      string               `json:"type"`
	Entity    websocket.EntityType `json:"entity"`
	Payload   interface{}          `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

// NewMessage wraps an event with its owner
func NewMessage(ownerID uuid.UUID, event websocket.Event) Message {
	return Message{
		OwnerID:   ownerID,
		Type:      event.Type,
		Entity:    event.Entity,
		Payload:   event.Payload,
		Timestamp: event.Timestamp,
	}
}

// Publisher sends events to a durable topic exchange. The routing key is the
// event type, e.g. "expense.paid".
type Publisher struct {
	conn     *amqp091.Connection
	channel  publishChannel
	exchange string
}

var _ websocket.EventPublisher = (*Publisher)(nil)

// NewPublisher dials the broker and declares the exchange
func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// PublishMessage publishes one message and waits for the broker to accept it
func (p *Publisher) PublishMessage(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		msg.Type,   // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.New().String(),
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Publish implements websocket.EventPublisher. Failures are logged only.
func (p *Publisher) Publish(ownerID uuid.UUID, event websocket.Event) {
	if err := p.PublishMessage(context.Background(), NewMessage(ownerID, event)); err != nil {
		log.Error().
			Err(err).
			Str("owner_id", ownerID.String()).
			Str("event_type", event.Type).
			Msg("Failed to publish event to message bus")
		return
	}

	log.Debug().
		Str("owner_id", ownerID.String()).
		Str("event_type", event.Type).
		Str("exchange", p.exchange).
		Msg("Published event to message bus")
}

// Close closes the channel and the connection
func (p *Publisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
