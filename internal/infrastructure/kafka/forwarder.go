package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	domorder "github.com/Zhima-Mochi/storefront/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

const (
	peerKafka    = "kafka"
	writeTimeout = 5 * time.Second

	HeaderEventType = "event_type"
	HeaderEventID   = "event_id"
)

// Forwarder republishes order events from the in-process bus to a Kafka topic.
// Messages are keyed by order id so one order's events stay in one partition.
type Forwarder struct {
	producer   Producer
	topic      string
	propagator propagation.TextMapPropagator

	log          observability.Logger
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

type Option func(*Forwarder)

func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(f *Forwarder) { f.propagator = p }
}

func NewForwarder(producer Producer, topic string, tel observability.Observability, opts ...Option) *Forwarder {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	f := &Forwarder{
		producer:     producer,
		topic:        topic,
		propagator:   otel.GetTextMapPropagator(),
		log:          tel.Logger().With(observability.F("component", "kafka-forwarder")),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Events lists the event names the forwarder relays.
func Events() []string {
	return []string{
		domorder.OrderCreatedEvent{}.EventName(),
		domorder.OrderCancelledEvent{}.EventName(),
		domorder.OrderStatusChangedEvent{}.EventName(),
	}
}

func (f *Forwarder) Start(subscriber domoutbox.Subscriber) {
	if subscriber == nil || f.producer == nil {
		return
	}
	for _, name := range Events() {
		subscriber.Subscribe(name, f.Handle)
	}
}

func (f *Forwarder) Handle(ctx context.Context, e domoutbox.Event) error {
	msg, err := f.message(ctx, e)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err = f.producer.WriteMessages(ctx, msg)
	if err != nil {
		outcome = "error"
	}
	f.extCounter.Add(1,
		observability.L("peer", peerKafka),
		observability.L("endpoint", f.topic),
		observability.L("outcome", outcome),
	)
	f.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerKafka),
		observability.L("endpoint", f.topic),
	)

	logger := logctx.FromOr(ctx, f.log)
	if err != nil {
		logger.Error("kafka_forward_failed",
			observability.F("event", e.EventName()),
			observability.Err(err),
		)
		return fmt.Errorf("kafka: forward %s: %w", e.EventName(), err)
	}
	logger.Debug("kafka_forwarded",
		observability.F("event", e.EventName()),
		observability.F("key", string(msg.Key)),
	)
	return nil
}

func (f *Forwarder) message(ctx context.Context, e domoutbox.Event) (kafka.Message, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", e.EventName(), err)
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(e.EventName())},
		{Key: HeaderEventID, Value: []byte(uuid.NewString())},
	}
	carrier := propagation.MapCarrier{}
	f.propagator.Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	return kafka.Message{
		Key:     []byte(orderKey(e)),
		Value:   payload,
		Headers: headers,
		Time:    time.Now().UTC(),
	}, nil
}

func orderKey(e domoutbox.Event) string {
	switch evt := e.(type) {
	case domorder.OrderCreatedEvent:
		return evt.OrderID
	case domorder.OrderCancelledEvent:
		return evt.OrderID
	case domorder.OrderStatusChangedEvent:
		return evt.OrderID
	}
	return ""
}
