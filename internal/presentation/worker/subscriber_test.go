package workerpresentation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"
)

type recordingLogger struct {
	mu     *sync.Mutex
	fields []observability.Field
	lines  *[][]observability.Field
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{mu: &sync.Mutex{}, lines: &[][]observability.Field{}}
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{mu: l.mu, lines: l.lines, fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func (l *recordingLogger) record(fields []observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.lines = append(*l.lines, append(append([]observability.Field(nil), l.fields...), fields...))
}

func (l *recordingLogger) Debug(_ string, f ...observability.Field) { l.record(f) }
func (l *recordingLogger) Info(_ string, f ...observability.Field)  { l.record(f) }
func (l *recordingLogger) Warn(_ string, f ...observability.Field)  { l.record(f) }
func (l *recordingLogger) Error(_ string, f ...observability.Field) { l.record(f) }

func fieldMap(fs []observability.Field) map[string]any {
	m := make(map[string]any, len(fs))
	for _, f := range fs {
		m[f.Key] = f.Value
	}
	return m
}

type namedEvent string

func (e namedEvent) EventName() string { return string(e) }

type directSubscriber struct {
	handlers map[string]domoutbox.Handler
}

func (d *directSubscriber) Subscribe(name string, h domoutbox.Handler) {
	if d.handlers == nil {
		d.handlers = make(map[string]domoutbox.Handler)
	}
	d.handlers[name] = h
}

func TestWithEventContextFields(t *testing.T) {
	base := newRecordingLogger()
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})

	ctx := WithEventContext(context.Background(), base, sc, map[string]string{
		"event_id": "evt-1",
		"event":    "order.created",
		"empty":    "",
	})
	logctx.From(ctx).Info("x")

	require.Len(t, *base.lines, 1)
	got := fieldMap((*base.lines)[0])
	assert.Equal(t, "evt-1", got["event_id"])
	assert.Equal(t, "order.created", got["event"])
	assert.Equal(t, sc.TraceID().String(), got["trace_id"])
	assert.Equal(t, sc.SpanID().String(), got["span_id"])
	assert.NotContains(t, got, "empty")
}

func TestWithEventContextGeneratesEventID(t *testing.T) {
	base := newRecordingLogger()
	ctx := WithEventContext(context.Background(), base, trace.SpanContext{}, nil)
	logctx.From(ctx).Info("x")

	got := fieldMap((*base.lines)[0])
	assert.NotEmpty(t, got["event_id"])
	assert.NotContains(t, got, "trace_id")
}

func TestSubscriberScopesHandlers(t *testing.T) {
	inner := &directSubscriber{}
	sub := NewSubscriber(inner, "catalog", observability.Nop())

	base := newRecordingLogger()
	var seen bool
	sub.Subscribe("order.created", func(ctx context.Context, e domoutbox.Event) error {
		seen = true
		logctx.FromOr(ctx, nil).Info("handled")
		return nil
	})

	require.Contains(t, inner.handlers, "order.created")
	ctx := logctx.With(context.Background(), base)
	require.NoError(t, inner.handlers["order.created"](ctx, namedEvent("order.created")))

	assert.True(t, seen)
	require.Len(t, *base.lines, 1)
	got := fieldMap((*base.lines)[0])
	assert.Equal(t, "order.created", got["event"])
	assert.Equal(t, "catalog", got["handler"])
	assert.NotEmpty(t, got["event_id"])
}
