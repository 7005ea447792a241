package metrics

// DispatchMetrics provides methods to record dispatch-related metrics.
type DispatchMetrics struct {
	registry *Registry
}

// Dispatch returns the dispatch metrics interface for the registry.
func (r *Registry) Dispatch() *DispatchMetrics {
	return &DispatchMetrics{registry: r}
}

// RecordSend records one completed dispatch invocation.
func (d *DispatchMetrics) RecordSend(provider, status string, duration float64) {
	d.registry.dispatchSendsTotal.WithLabelValues(provider, status).Inc()
	d.registry.dispatchSendDuration.WithLabelValues(provider).Observe(duration)
}

// RecordLinks records links persisted for click tracking.
func (d *DispatchMetrics) RecordLinks(count int) {
	d.registry.dispatchLinksTracked.Add(float64(count))
}

// TransportMetrics provides methods to record provider transmission metrics.
type TransportMetrics struct {
	registry *Registry
}

// Transport returns the transport metrics interface for the registry.
func (r *Registry) Transport() *TransportMetrics {
	return &TransportMetrics{registry: r}
}

// RecordCall records one provider transmission attempt.
func (t *TransportMetrics) RecordCall(provider string, err error, duration float64) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.registry.transportCallsTotal.WithLabelValues(provider, outcome).Inc()
	t.registry.transportCallDuration.WithLabelValues(provider).Observe(duration)
}
