package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"llm-session-relay/internal/model"
)

// EventPublisher sends exchange events to a durable queue as persistent JSON
// messages. A single channel is reused and reopened after it closes.
type EventPublisher struct {
	conn      *amqp.Connection
	queueName string

	mu sync.Mutex
	ch *amqp.Channel
}

func NewEventPublisher(conn *amqp.Connection, queueName string) *EventPublisher {
	return &EventPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *EventPublisher) Publish(ctx context.Context, event model.ExchangeEvent) error {
	payload, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         string(event.Kind),
			Timestamp:    event.CreatedAt,
		},
	); err != nil {
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish exchange event failed: %w", err)
	}
	return nil
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}

func (p *EventPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	if err := DeclareQueue(ch, p.queueName); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func EncodeEvent(event model.ExchangeEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal exchange event failed: %w", err)
	}
	return payload, nil
}

func DecodeEvent(body []byte) (model.ExchangeEvent, error) {
	var event model.ExchangeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return model.ExchangeEvent{}, fmt.Errorf("decode exchange event failed: %w", err)
	}
	if event.ID == "" || event.SessionID == "" || event.Kind == "" {
		return model.ExchangeEvent{}, fmt.Errorf("decode exchange event failed: missing id, session_id or kind")
	}
	return event, nil
}
