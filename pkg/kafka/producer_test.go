package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// fakeWriter records messages instead of sending them to a broker.
type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// --- Event tests ---

func TestNewEvent_Fields(t *testing.T) {
	type cartData struct {
		SessionID string `json:"session_id"`
		ItemCount int    `json:"item_count"`
	}

	data := cartData{SessionID: "s-1", ItemCount: 3}
	event, err := NewEvent("cart.updated", "s-1", "cart", "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "cart.updated", event.EventType)
	assert.Equal(t, "s-1", event.AggregateID)
	assert.Equal(t, "cart", event.AggregateType)
	assert.Equal(t, "storefront", event.Source)
	assert.Equal(t, EnvelopeVersion, event.Version)
	assert.Nil(t, event.Metadata)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got cartData
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("cart.updated", "s-1", "cart", "storefront", make(chan int))
	require.Error(t, err)
}

func TestEvent_ChainingHelpers(t *testing.T) {
	event, err := NewEvent("cart.updated", "s-1", "cart", "storefront", nil)
	require.NoError(t, err)

	result := event.WithCorrelationID("corr-1").WithMetadata("host", "tui")
	assert.Same(t, event, result)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "tui", event.Metadata["host"])

	bare := &Event{}
	bare.WithMetadata("k", "v")
	assert.Equal(t, "v", bare.Metadata["k"])
}

func TestUnmarshalEvent_InvalidJSON(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{broken`))
	require.Error(t, err)
}

// --- Topic ---

func TestTopic(t *testing.T) {
	assert.Equal(t, "ecommerce.storefront.cart.updated", Topic("storefront", "cart.updated"))
	assert.Equal(t, "ecommerce", TopicPrefix)
}

// --- Producer ---

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"broker1:9092"})
	assert.Equal(t, []string{"broker1:9092"}, cfg.Brokers)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.False(t, cfg.Async)
}

func TestInteractiveProducerConfig_IsAsync(t *testing.T) {
	cfg := InteractiveProducerConfig([]string{"broker1:9092"})
	assert.True(t, cfg.Async)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
	assert.Equal(t, []string{"broker1:9092"}, cfg.Brokers)
}

func TestNewProducer_AsyncWriter(t *testing.T) {
	p := NewProducer(InteractiveProducerConfig([]string{"localhost:19092"}), nil)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)

	syncProducer := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	sw := syncProducer.writer.(*kafka.Writer)
	assert.False(t, sw.Async)
	assert.Nil(t, sw.Completion)
}

func TestAsyncCompletion_CountsFailedMessages(t *testing.T) {
	topic := "ecommerce.test.async-failure"
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte("s-1"),
		Headers: []kafka.Header{{Key: "event_type", Value: []byte("cart.updated")}},
	}
	complete := asyncCompletion(slog.New(slog.DiscardHandler))

	before := testutil.ToFloat64(eventsFailed.WithLabelValues(topic, "cart.updated"))
	complete([]kafka.Message{msg}, nil)
	assert.Equal(t, before, testutil.ToFloat64(eventsFailed.WithLabelValues(topic, "cart.updated")))

	complete([]kafka.Message{msg, msg}, errors.New("broker unreachable"))
	assert.Equal(t, before+2, testutil.ToFloat64(eventsFailed.WithLabelValues(topic, "cart.updated")))
}

func TestPublish_WritesKeyedMessageWithHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, nil)

	event, err := NewEvent("cart.updated", "s-42", "cart", "storefront", map[string]int{"item_count": 2})
	require.NoError(t, err)
	event.WithCorrelationID("corr-9").WithMetadata("host", "tui")

	require.NoError(t, p.Publish(context.Background(), "ecommerce.storefront.cart.updated", event))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, "ecommerce.storefront.cart.updated", msg.Topic)
	assert.Equal(t, "s-42", string(msg.Key))
	assert.Equal(t, "cart.updated", header(msg, "event_type"))
	assert.Equal(t, "storefront", header(msg, "source"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))
	assert.Equal(t, "tui", header(msg, "meta_host"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.JSONEq(t, `{"item_count":2}`, string(decoded.Data))
}

func TestPublish_InjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	event, _ := NewEvent("cart.updated", "s-1", "cart", "storefront", nil)
	require.NoError(t, NewProducerWithWriter(w, nil, nil).Publish(ctx, "t", event))

	assert.Contains(t, header(w.messages[0], "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

func TestPublish_WriterErrorIsWrappedAndCounted(t *testing.T) {
	topic := "ecommerce.test.publish-error"
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, nil)
	event, _ := NewEvent("cart.updated", "s-1", "cart", "storefront", nil)

	before := testutil.ToFloat64(eventsFailed.WithLabelValues(topic, "cart.updated"))
	err := p.Publish(context.Background(), topic, event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to "+topic)
	assert.Equal(t, before+1, testutil.ToFloat64(eventsFailed.WithLabelValues(topic, "cart.updated")))
}

func TestPublish_CountsSuccess(t *testing.T) {
	topic := "ecommerce.test.publish-ok"
	p := NewProducerWithWriter(&fakeWriter{}, nil, nil)
	event, _ := NewEvent("cart.updated", "s-1", "cart", "storefront", json.RawMessage(`{}`))

	before := testutil.ToFloat64(eventsPublished.WithLabelValues(topic, "cart.updated"))
	require.NoError(t, p.Publish(context.Background(), topic, event))
	assert.Equal(t, before+1, testutil.ToFloat64(eventsPublished.WithLabelValues(topic, "cart.updated")))
}

func TestNewProducer_DoesNotDial(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestProducer_CloseClosesWriter(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w, nil, nil).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(t.Context(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestPingBrokers_AllUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
	defer cancel()

	err := PingBrokers(ctx, []string{"127.0.0.1:1", "127.0.0.1:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all brokers unreachable")
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Contains(t, err.Error(), "127.0.0.1:2")
}
