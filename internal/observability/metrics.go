package observability

// MetricKey names a registered instrument. Label sets are fixed per key at
// registration time.
type MetricKey string

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"            // use_case, outcome
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"          // use_case
	MHTTPRequests            MetricKey = "http_requests_total"               // method, route, status
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"     // method, route, status
	MExternalRequests        MetricKey = "external_requests_total"           // peer, endpoint, outcome
	MExternalRequestDuration MetricKey = "external_request_duration_seconds" // peer, endpoint
	MCacheLookups            MetricKey = "cache_lookups_total"               // cache, result
	MEventsHandled           MetricKey = "events_handled_total"              // event, outcome
)

type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

type Counter interface {
	Add(delta float64, labels ...Label)
	// Bind fixes labels for hot paths.
	Bind(labels ...Label) BoundCounter
}

type BoundCounter interface {
	Add(delta float64)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
	Bind(labels ...Label) BoundHistogram
}

type BoundHistogram interface {
	Observe(value float64)
}
