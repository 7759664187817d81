package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/models"
)

// Event types published to the order events topic
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderPaid          = "order.paid"
	EventOrderPaymentFailed = "order.payment_failed"
	EventOrderRefunded      = "order.refunded"
	EventFeedbackCreated    = "feedback.created"
	EventFeedbackUpdated    = "feedback.updated"
	EventFeedbackDeleted    = "feedback.deleted"
	EventMessageSent        = "message.sent"
)

const publishTimeout = 5 * time.Second

// Event is the payload written for every state change other services may react to
type Event struct {
	Type          string               `json:"type"`
	OrderID       uint                 `json:"order_id"`
	OrderNo       string               `json:"order_no"`
	UserID        uint                 `json:"user_id"`
	TherapistID   uint                 `json:"therapist_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	FeedbackID    uint                 `json:"feedback_id,omitempty"`
	MessageID     uint                 `json:"message_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newOrderEvent(eventType string, order *models.Order, now time.Time) Event {
	return Event{
		Type:          eventType,
		OrderID:       order.ID,
		OrderNo:       order.OrderNo,
		UserID:        order.UserID,
		TherapistID:   order.TherapistID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		OccurredAt:    now,
	}
}

// EventPublisher delivers domain events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by order number,
// so all events of one order land on the same partition in order.
// Writes are async: Publish only enqueues, and delivery failures are logged
// from the writer's completion callback.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewKafkaPublisher creates a publisher for topic on the given brokers
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: publishTimeout,
		Async:        true,
		Completion:   p.completed,
	}
	return p
}

// Publish hands the event to the writer's batch queue
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := encodeEvent(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes pending writes and releases the connection
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		p.log.Warn("failed to deliver event",
			zap.String("type", eventType(msg)),
			zap.String("order_no", string(msg.Key)),
			zap.Error(err),
		)
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

func encodeEvent(event Event) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.OrderNo),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}, nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// publishAfterCommit sends the event and logs delivery failures. The state
// change is already committed, so a failed publish does not fail the request.
func publishAfterCommit(ctx context.Context, publisher EventPublisher, log *zap.Logger, event Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", event.Type),
			zap.String("order_no", event.OrderNo),
			zap.Error(err),
		)
	}
}
