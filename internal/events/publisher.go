// Package events publishes order-lifecycle events to RabbitMQ for
// downstream consumers (displays, notification services). Publishing is
// best effort: a broker outage never fails the command that triggered
// the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"trattoria/internal/config"
	"trattoria/internal/domain"
)

const exchange = "orders_topic"

// OrderEvent is the JSON body published for every lifecycle change.
type OrderEvent struct {
	ReservationCode int    `json:"reservation_code"`
	TableID         string `json:"table_id"`
	Course          string `json:"course"`
	Items           string `json:"items"`
	Status          string `json:"status"`
	Price           int    `json:"price"`
	OccurredAt      string `json:"occurred_at"`
}

// Publisher emits order lifecycle events.
type Publisher interface {
	OrderPlaced(ctx context.Context, o domain.Order) error
	OrderStatusChanged(ctx context.Context, o domain.Order) error
	Close()
}

// Noop is the publisher used when RabbitMQ is disabled.
type Noop struct{}

func (Noop) OrderPlaced(context.Context, domain.Order) error        { return nil }
func (Noop) OrderStatusChanged(context.Context, domain.Order) error { return nil }
func (Noop) Close()                                                 {}

// AMQP publishes persistent JSON messages on the orders topic exchange,
// routed as orders.<table>.<status>.
type AMQP struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex // amqp channels are not safe for concurrent publish
}

// Dial connects to the broker and declares the exchange.
func Dial(cfg config.RabbitMQ) (*AMQP, error) {
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, ch: ch}, nil
}

// Close shuts the channel and connection down.
func (p *AMQP) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *AMQP) OrderPlaced(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, o)
}

func (p *AMQP) OrderStatusChanged(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, o)
}

func (p *AMQP) publish(ctx context.Context, o domain.Order) error {
	body, err := json.Marshal(OrderEvent{
		ReservationCode: o.ReservationCode,
		TableID:         o.TableID,
		Course:          o.Course,
		Items:           o.Items,
		Status:          string(o.Status),
		Price:           o.Price,
		OccurredAt:      time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	routingKey := fmt.Sprintf("orders.%s.%s", o.TableID, o.Status)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
