// Package events publishes delivery lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	skafka "github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeDeliveryStarted   = "delivery.started"
	TypeDeliveryCompleted = "delivery.completed"
	TypeDeliveryAbandoned = "delivery.abandoned"
	TypePaymentRecorded   = "payment.recorded"
)

// Event is the message body published for every lifecycle change.
type Event struct {
	Type              string    `json:"type"`
	UserID            string    `json:"userId,omitempty"`
	DriverName        string    `json:"driverName,omitempty"`
	InvoiceNo         string    `json:"invoiceNo"`
	DeliveryStatus    string    `json:"deliveryStatus,omitempty"`
	PaymentStatus     string    `json:"paymentStatus,omitempty"`
	DeliveredProducts []string  `json:"deliveredProducts,omitempty"`
	KmTravelled       *float64  `json:"kmTravelled,omitempty"`
	Amount            string    `json:"amount,omitempty"`
	Method            string    `json:"method,omitempty"`
	OccurredAt        time.Time `json:"occurredAt"`
}

// Writer is the subset of kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Publisher sends events somewhere.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by invoice number.
type KafkaPublisher struct {
	writer Writer
}

// NewKafkaPublisher creates a publisher writing to topic on broker.
func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish marshals e and writes it with the invoice number as key so all
// events of one billing land on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	msg := skafka.Message{
		Key:     []byte(e.InvoiceNo),
		Value:   b,
		Headers: []skafka.Header{{Key: "type", Value: []byte(e.Type)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", e.Type, err)
	}
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop drops events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(_ context.Context, e Event) error {
	slog.Debug("event dropped, no broker configured", "type", e.Type, "invoiceNo", e.InvoiceNo)
	return nil
}

func (Noop) Close() error { return nil }
