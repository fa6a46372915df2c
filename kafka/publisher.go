package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/regalator/wms/pkg/logger"
)

// EventPublisher is what the fulfillment engines publish through. Events are
// best-effort: a publish failure must never roll back a committed scan.
type EventPublisher interface {
	PublishStockMovement(ctx context.Context, event StockMovementEvent) error
	PublishOrderCompleted(ctx context.Context, event OrderCompletedEvent) error
	Close() error
}

// Publisher wraps a Kafka sync producer
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{producer: producer, brokers: brokers}, nil
}

// PublishStockMovement publishes a stock movement event with tracing
func (p *Publisher) PublishStockMovement(ctx context.Context, event StockMovementEvent) error {
	event.EventType = EventTypeStockMovement
	return p.publish(ctx, TopicStockMovements,
		fmt.Sprintf("product_%d", event.ProductID),
		event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.Int64("product.id", int64(event.ProductID)),
		attribute.Int64("location.id", int64(event.LocationID)),
		attribute.String("movement.quantity", event.Quantity),
	)
}

// PublishOrderCompleted publishes an order completed event with tracing
func (p *Publisher) PublishOrderCompleted(ctx context.Context, event OrderCompletedEvent) error {
	event.EventType = EventTypeOrderCompleted
	return p.publish(ctx, TopicOrderCompleted,
		fmt.Sprintf("order_%d", event.OrderID),
		event.EventType, &event.EventID, &event.Timestamp, &event,
		attribute.String("order.number", event.OrderNumber),
		attribute.String("order.flow", event.Flow),
	)
}

func (p *Publisher) publish(ctx context.Context, topic, key, eventType string, eventID *string, ts *time.Time, payload interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("event.type", eventType),
		}, attrs...)...),
	)
	defer span.End()

	if *eventID == "" {
		*eventID = uuid.NewString()
	}
	*ts = time.Now()
	span.SetAttributes(attribute.String("event.id", *eventID))

	eventBytes, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(*eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Logger.Error().
			Err(err).
			Str("topic", topic).
			Str("event_type", eventType).
			Msg("Failed to publish event")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published")

	logger.Logger.Debug().
		Str("event_id", *eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher discards events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishStockMovement(context.Context, StockMovementEvent) error { return nil }
func (NopPublisher) PublishOrderCompleted(context.Context, OrderCompletedEvent) error {
	return nil
}
func (NopPublisher) Close() error { return nil }
