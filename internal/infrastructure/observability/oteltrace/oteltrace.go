// Package oteltrace adapts the global OpenTelemetry tracer provider to the
// observability.Tracer port.
package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/storefront/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultScope = "github.com/Zhima-Mochi/storefront"

type tracer struct {
	t      trace.Tracer
	common []attribute.KeyValue
}

// New returns a tracer for service. Spans stay non-recording until an SDK
// provider is installed with otel.SetTracerProvider, but they still carry the
// propagated trace and span ids into logs and events.
func New(service, version string) observability.Tracer {
	var opts []trace.TracerOption
	if version != "" {
		opts = append(opts, trace.WithInstrumentationVersion(version))
	}
	t := &tracer{t: otel.Tracer(defaultScope, opts...)}
	if service != "" {
		t.common = []attribute.KeyValue{attribute.String("service.name", service)}
	}
	return t
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if len(t.common) > 0 {
		attrs = append(attrs[:len(attrs):len(attrs)], t.common...)
	}
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
