package observability

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MInventoryOperations     MetricKey = "inventory_operations_total"
	MOrderTransitions        MetricKey = "order_transitions_total"
)

// MetricSpec describes how a MetricKey is registered with a backend.
type MetricSpec struct {
	Key    MetricKey
	Help   string
	Labels []string
	// Buckets is only meaningful for histograms; nil means backend defaults.
	Buckets []float64
}

// Counters lists every counter the application emits.
func Counters() []MetricSpec {
	return []MetricSpec{
		{Key: MUsecaseRequests, Help: "Total number of use case invocations.", Labels: []string{"use_case", "outcome"}},
		{Key: MHTTPRequests, Help: "Total number of HTTP requests.", Labels: []string{"method", "route", "status"}},
		{Key: MExternalRequests, Help: "Total number of calls to external peers.", Labels: []string{"peer", "endpoint", "outcome"}},
		{Key: MInventoryOperations, Help: "Stock reservations and releases by outcome.", Labels: []string{"operation", "outcome"}},
		{Key: MOrderTransitions, Help: "Order status transitions.", Labels: []string{"from", "to"}},
	}
}

// Histograms lists every histogram the application emits.
func Histograms() []MetricSpec {
	return []MetricSpec{
		{Key: MUsecaseDuration, Help: "Duration of use case execution in seconds.", Labels: []string{"use_case"}},
		{Key: MHTTPRequestDuration, Help: "Duration of HTTP requests in seconds.", Labels: []string{"method", "route", "status"}},
		{Key: MExternalRequestDuration, Help: "Duration of calls to external peers in seconds.", Labels: []string{"peer", "endpoint"}},
	}
}
