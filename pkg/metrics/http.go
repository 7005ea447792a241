package metrics

import (
	"strconv"
)

// HTTPMetrics records request-level metrics for the API surface.
type HTTPMetrics struct {
	registry *Registry
}

// HTTP returns the HTTP metrics interface for the registry.
func (r *Registry) HTTP() *HTTPMetrics {
	return &HTTPMetrics{registry: r}
}

// RecordRequest records the counter, duration, and size observations for a
// completed request. Negative sizes mean the size was not measured.
func (h *HTTPMetrics) RecordRequest(method, path string, statusCode int, duration float64, reqSize, respSize int64) {
	status := strconv.Itoa(statusCode)

	h.registry.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	h.registry.httpRequestDuration.WithLabelValues(method, path).Observe(duration)

	if reqSize >= 0 {
		h.registry.httpRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	}
	if respSize >= 0 {
		h.registry.httpResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// IncActiveRequests increments the in-flight request gauge.
func (h *HTTPMetrics) IncActiveRequests(method, path string) {
	h.registry.httpActiveRequests.WithLabelValues(method, path).Inc()
}

// DecActiveRequests decrements the in-flight request gauge.
func (h *HTTPMetrics) DecActiveRequests(method, path string) {
	h.registry.httpActiveRequests.WithLabelValues(method, path).Dec()
}
