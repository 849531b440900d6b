package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dejobratic/foodorder/internal/orders/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated     = "order_created"
	EventStatusChanged    = "order_status_changed"
	EventPaymentConfirmed = "payment_confirmed"
)

// Notification is the message consumed by the e-mail sender.
type Notification struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     string    `json:"customer_id"`
	CustomerEmail  string    `json:"customer_email"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentMethod  string    `json:"payment_method"`
	Total          string    `json:"total"`
	TotalDisplay   string    `json:"total_display"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NotificationPublisher sends order notifications to a Kafka topic, keyed by
// order id so that events for one order stay in sequence.
type NotificationPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewWriter builds the producer for the notifications topic.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func NewNotificationPublisher(writer messageWriter) *NotificationPublisher {
	return &NotificationPublisher{
		writer: writer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *NotificationPublisher) OrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, p.notification(EventOrderCreated, order, ""))
}

func (p *NotificationPublisher) StatusChanged(ctx context.Context, order *domain.Order, from, _ domain.OrderStatus) error {
	return p.publish(ctx, p.notification(EventStatusChanged, order, from))
}

func (p *NotificationPublisher) PaymentConfirmed(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, p.notification(EventPaymentConfirmed, order, ""))
}

func (p *NotificationPublisher) Close() error {
	return p.writer.Close()
}

func (p *NotificationPublisher) notification(event string, order *domain.Order, from domain.OrderStatus) Notification {
	return Notification{
		Event:          event,
		OrderID:        order.ID,
		OrderNumber:    order.Number,
		CustomerID:     order.CustomerID,
		CustomerEmail:  order.CustomerEmail,
		Status:         string(order.Status),
		PreviousStatus: string(from),
		PaymentStatus:  string(order.PaymentStatus),
		PaymentMethod:  string(order.PaymentMethod),
		Total:          order.Total.StringFixed(2),
		TotalDisplay:   domain.FormatNaira(order.Total),
		OccurredAt:     p.now(),
	}
}

func (p *NotificationPublisher) publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", n.Event, err)
	}

	msg := kafkago.Message{
		Key:   []byte(n.OrderID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(n.Event)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s notification for order %s: %w", n.Event, n.OrderID, err)
	}
	return nil
}
