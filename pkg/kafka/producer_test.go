package kafka

import (
	"context"
	"errors"
	"io"
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

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func TestNewEvent(t *testing.T) {
	type cartData struct {
		Items int `json:"items"`
	}

	e, err := NewEvent("cart.updated", "storefront", cartData{Items: 2},
		WithAggregate("cart", "session-1"),
		WithCorrelationID("corr-1"),
		WithMetadata("action", "add"),
	)
	require.NoError(t, err)

	assert.NotEmpty(t, e.EventID)
	assert.Equal(t, "cart.updated", e.EventType)
	assert.Equal(t, "cart", e.AggregateType)
	assert.Equal(t, "session-1", e.AggregateID)
	assert.Equal(t, "corr-1", e.CorrelationID)
	assert.Equal(t, "add", e.Metadata["action"])
	assert.Equal(t, 1, e.Version)
	assert.WithinDuration(t, time.Now().UTC(), e.Timestamp, 2*time.Second)
	assert.Equal(t, []byte("session-1"), e.Key())

	var got cartData
	require.NoError(t, e.UnmarshalData(&got))
	assert.Equal(t, 2, got.Items)
}

func TestNewEvent_KeyFallsBackToEventID(t *testing.T) {
	e, err := NewEvent("checkout.completed", "storefront", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte(e.EventID), e.Key())
	assert.Nil(t, e.Metadata)
}

func TestNewEvent_UnserializablePayload(t *testing.T) {
	_, err := NewEvent("bad", "storefront", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshal bad payload")
}

func TestUnmarshalEvent(t *testing.T) {
	e, err := NewEvent("wishlist.updated", "storefront", map[string]int{"count": 1}, WithCorrelationID("c"))
	require.NoError(t, err)
	raw, err := e.Marshal()
	require.NoError(t, err)

	back, err := UnmarshalEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, back.EventID)
	assert.Equal(t, "c", back.CorrelationID)
	assert.JSONEq(t, `{"count":1}`, string(back.Data))

	_, err = UnmarshalEvent([]byte("{nope"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "regalty.cart.updated", Topic("cart", "updated"))
	assert.Equal(t, "regalty.checkout.completed", Topic("checkout", "completed"))
}

func TestProducer_PublishWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, DefaultProducerConfig([]string{"broker:9092"}), quietLogger())
	topic := Topic("cart", "publish-test")

	e, err := NewEvent("cart.updated", "storefront", map[string]int{"items": 1},
		WithAggregate("cart", "default"), WithCorrelationID("corr-9"))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), topic, e))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, topic, msg.Topic)
	assert.Equal(t, []byte("default"), msg.Key)
	assert.Equal(t, "cart.updated", header(msg, "event_type"))
	assert.Equal(t, "storefront", header(msg, "source"))
	assert.Equal(t, "corr-9", header(msg, "correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, e.EventID, decoded.EventID)

	assert.Equal(t, float64(1), testutil.ToFloat64(eventsPublished.WithLabelValues(topic, "cart.updated")))
	assert.Equal(t, float64(0), testutil.ToFloat64(publishErrors.WithLabelValues(topic)))
}

func TestProducer_PublishInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	p := newProducer(w, DefaultProducerConfig(nil), quietLogger())
	e, err := NewEvent("cart.cleared", "storefront", nil)
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, Topic("cart", "trace-test"), e))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", header(w.msgs[0], "traceparent"))
}

func TestProducer_PublishErrorCounted(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, DefaultProducerConfig(nil), quietLogger())
	topic := Topic("cart", "error-test")

	e, err := NewEvent("cart.updated", "storefront", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), topic, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to "+topic)
	assert.Equal(t, float64(1), testutil.ToFloat64(publishErrors.WithLabelValues(topic)))
}

func TestProducer_PublishNilEvent(t *testing.T) {
	p := newProducer(&fakeWriter{}, DefaultProducerConfig(nil), quietLogger())
	assert.Error(t, p.Publish(context.Background(), "t", nil))
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, DefaultProducerConfig(nil), quietLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), nil)
	require.NotNil(t, p)
	assert.Equal(t, []string{"localhost:19092"}, p.brokers)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestPingBrokers_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := PingBrokers(ctx, []string{"127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all brokers unreachable")
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "n")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.Equal(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, headers, 2)
}
