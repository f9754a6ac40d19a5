package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockledger/internal/models"

	otelkafka "github.com/Trendyol/otel-kafka-konsumer"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const EventTransactionRecorded = "inventory.transaction.recorded"

// TransactionEvent is published once per committed ledger operation.
type TransactionEvent struct {
	EventType     string                       `json:"event_type"`
	OccurredAt    time.Time                    `json:"occurred_at"`
	Transaction   *models.InventoryTransaction `json:"transaction"`
	QuantityAfter int                          `json:"quantity_after"`
}

func NewTransactionEvent(txn *models.InventoryTransaction, inventory *models.Inventory) TransactionEvent {
	return TransactionEvent{
		EventType:     EventTransactionRecorded,
		OccurredAt:    txn.CreatedAt,
		Transaction:   txn,
		QuantityAfter: inventory.Quantity,
	}
}

// Publisher emits ledger events to downstream consumers.
type Publisher interface {
	PublishTransaction(ctx context.Context, event TransactionEvent) error
	Close() error
}

// MessageProducer is the part of a kafka writer the publisher needs.
type MessageProducer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	producer MessageProducer
}

// NewKafkaPublisher builds a traced kafka writer for topic. Messages are keyed by
// ledger key so events for one inventory row keep their order within a partition.
func NewKafkaPublisher(brokers []string, topic, serviceName string) (Publisher, error) {
	baseWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	writer, err := otelkafka.NewWriter(baseWriter,
		otelkafka.WithTracerProvider(otel.GetTracerProvider()),
		otelkafka.WithPropagator(propagation.TraceContext{}),
		otelkafka.WithAttributes(
			[]attribute.KeyValue{
				semconv.MessagingDestinationNameKey.String(topic),
				attribute.String("messaging.kafka.client_id", serviceName),
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka writer: %w", err)
	}
	return NewPublisher(writer), nil
}

func NewPublisher(producer MessageProducer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) PublishTransaction(ctx context.Context, event TransactionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.EventType, err)
	}

	txn := event.Transaction
	key := models.LedgerKey{TenantID: txn.TenantID, BranchID: txn.BranchID, ProductID: txn.ProductID}
	msg := kafka.Message{
		Key:   []byte(key.String()),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(txn.TenantID.String())},
		},
	}
	return p.producer.WriteMessage(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops events. Used when no brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishTransaction(context.Context, TransactionEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
