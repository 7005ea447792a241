// Package health reports whether the dispatch service and its
// dependencies (database, credential cache) can take traffic. The registry
// aggregates individual checks into the responses served at /health,
// /health/live and /health/ready.
package health

import (
	"context"
	"sync"
	"time"
)

// checkTimeout bounds a single aggregation pass over all checks.
const checkTimeout = 5 * time.Second

// Status is the reported state of a component or of the service overall.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Severity decides whether a failing check blocks readiness. A critical
// failure takes the node out of rotation; a warning only degrades the
// reported status.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Checker probes one dependency.
type Checker interface {
	Name() string
	Severity() Severity
	Check(ctx context.Context) CheckResult
}

// CheckResult is the outcome of a single probe.
type CheckResult struct {
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// Response is the aggregate served by the health endpoints.
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Registry holds the registered checkers and runs them on demand.
type Registry struct {
	mu       sync.RWMutex
	checkers []Checker
	version  string
	started  time.Time
}

func NewRegistry(version string) *Registry {
	return &Registry{
		version: version,
		started: time.Now(),
	}
}

func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	r.checkers = append(r.checkers, checker)
	r.mu.Unlock()
}

// Liveness never probes dependencies: a live process answers healthy even
// when the database is down, so the orchestrator restarts nothing it
// cannot fix.
func (r *Registry) Liveness(_ context.Context) Response {
	return Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   r.version,
		Uptime:    time.Since(r.started).String(),
	}
}

// Readiness runs only the critical checks.
func (r *Registry) Readiness(ctx context.Context) Response {
	return r.collect(ctx, func(c Checker) bool { return c.Severity() == SeverityCritical })
}

// Health runs every registered check.
func (r *Registry) Health(ctx context.Context) Response {
	return r.collect(ctx, func(Checker) bool { return true })
}

type namedResult struct {
	name     string
	severity Severity
	result   CheckResult
}

func (r *Registry) collect(ctx context.Context, include func(Checker) bool) Response {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		if include(c) {
			checkers = append(checkers, c)
		}
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(chan namedResult, len(checkers))
	var wg sync.WaitGroup
	for _, c := range checkers {
		wg.Add(1)
		go func(c Checker) {
			defer wg.Done()
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			results <- namedResult{name: c.Name(), severity: c.Severity(), result: result}
		}(c)
	}
	wg.Wait()
	close(results)

	overall := StatusHealthy
	checks := make(map[string]CheckResult, len(checkers))
	for nr := range results {
		checks[nr.name] = nr.result
		overall = worse(overall, nr.result.Status, nr.severity)
	}

	return Response{
		Status:    overall,
		Timestamp: time.Now(),
		Version:   r.version,
		Uptime:    time.Since(r.started).String(),
		Checks:    checks,
	}
}

// worse folds one check outcome into the aggregate. A warning-severity
// failure can degrade the aggregate but never mark it unhealthy.
func worse(current Status, check Status, severity Severity) Status {
	switch check {
	case StatusUnhealthy:
		if severity == SeverityCritical {
			return StatusUnhealthy
		}
		if current == StatusHealthy {
			return StatusDegraded
		}
	case StatusDegraded:
		if current == StatusHealthy {
			return StatusDegraded
		}
	}
	return current
}
