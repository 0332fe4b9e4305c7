// Package observability assembles the concrete tracer, logger and metric
// instruments into the observability.Observability port.
package observability

import (
	"github.com/Zhima-Mochi/storefront/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

type registeredMetrics struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// Unknown keys resolve to nop instruments so callers never nil-check.
func (m *registeredMetrics) Counter(name observability.MetricKey) observability.Counter {
	if c, ok := m.counters[name]; ok && c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m *registeredMetrics) Histogram(name observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[name]; ok && h != nil {
		return h
	}
	return observability.NopHistogram()
}

type Option func(*provider, *registeredMetrics)

func WithTracer(t observability.Tracer) Option {
	return func(p *provider, _ *registeredMetrics) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(p *provider, _ *registeredMetrics) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithCounters(c map[observability.MetricKey]observability.Counter) Option {
	return func(_ *provider, m *registeredMetrics) {
		for k, v := range c {
			if v != nil {
				m.counters[k] = v
			}
		}
	}
}

func WithHistograms(h map[observability.MetricKey]observability.Histogram) Option {
	return func(_ *provider, m *registeredMetrics) {
		for k, v := range h {
			if v != nil {
				m.histograms[k] = v
			}
		}
	}
}

// New assembles an Observability provider. Anything not supplied falls back to nop.
func New(opts ...Option) observability.Observability {
	p := &provider{
		tracer: observability.NopTracer(),
		logger: observability.NopLogger(),
	}
	m := &registeredMetrics{
		counters:   make(map[observability.MetricKey]observability.Counter),
		histograms: make(map[observability.MetricKey]observability.Histogram),
	}
	for _, opt := range opts {
		opt(p, m)
	}
	p.metrics = m
	return p
}

func (p *provider) Tracer() observability.Tracer   { return p.tracer }
func (p *provider) Logger() observability.Logger   { return p.logger }
func (p *provider) Metrics() observability.Metrics { return p.metrics }
