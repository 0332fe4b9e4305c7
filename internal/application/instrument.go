package application

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/storefront/internal/domain/outbox"
	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/Zhima-Mochi/storefront/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanPrefix       = "UC."
	publishPeer      = "outbox"
	publishTimeout   = 300 * time.Millisecond
	outcomeSuccess   = "success"
	outcomeError     = "error"
	statusOK         = "OK"
	statusPubFailed  = "EVENT_PUBLISH_FAILED"
	statusPubTimeout = "EVENT_PUBLISH_TIMEOUT"
)

// Instrument carries the RED instruments and base logger shared by the use
// cases of one service.
type Instrument struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstrument(tel observability.Observability, service string) *Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return &Instrument{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in *Instrument) Logger() observability.Logger { return in.log }

// Run tracks one use case execution from Begin to End.
type Run struct {
	in      *Instrument
	ctx     context.Context
	span    trace.Span
	log     observability.Logger
	useCase string
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Begin opens the span and resolves the request logger for useCase.
func (in *Instrument) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) *Run {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+spanName, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	return &Run{
		in:      in,
		ctx:     logctx.With(ctx, logger),
		span:    span,
		log:     logger,
		useCase: useCase,
		start:   time.Now(),
		outcome: outcomeSuccess,
		status:  statusOK,
	}
}

func (r *Run) Context() context.Context     { return r.ctx }
func (r *Run) Span() trace.Span             { return r.span }
func (r *Run) Logger() observability.Logger { return r.log }

// SetStatus records a non-error status such as a replay.
func (r *Run) SetStatus(status string) { r.status = status }

// Field attaches a field to the final use_case_done line.
func (r *Run) Field(k string, v any) { r.fields = append(r.fields, observability.F(k, v)) }

// Fail marks the run failed with status and returns err unchanged.
func (r *Run) Fail(status string, err error) error {
	r.outcome, r.status = outcomeError, status
	return err
}

// End closes the span, records metrics and writes the use_case_done line.
func (r *Run) End(err error) {
	if err != nil && r.outcome == outcomeSuccess {
		r.outcome, r.status = outcomeError, "FAILED"
	}
	lat := time.Since(r.start).Seconds()

	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, r.status)
	} else {
		r.span.SetStatus(codes.Ok, r.status)
	}
	r.span.End()

	r.in.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.in.durHistogram.Observe(lat, observability.L("use_case", r.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.Err(err))
	}
	r.log.Info("use_case_done", fields...)
}

// Publish emits e best-effort. A failure is recorded on the run and never
// returned to the caller of the use case.
func (r *Run) Publish(pub domoutbox.Publisher, e domoutbox.Event) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(r.ctx, publishTimeout)
	defer cancel()
	start := time.Now()
	outcome := outcomeSuccess

	err := pub.Publish(ctx, e)
	switch {
	case err != nil:
		outcome = outcomeError
		r.status = statusPubFailed
	case ctx.Err() != nil:
		outcome = "canceled"
		err = ctx.Err()
		r.status = statusPubTimeout
	}

	r.in.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	r.in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)

	if err != nil {
		r.span.RecordError(err)
		r.Field("event_publish_error", err.Error())
		return
	}
	r.span.AddEvent(e.EventName())
}
