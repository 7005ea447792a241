package metrics

import (
	"net/http"
	"regexp"
	"time"
)

// MiddlewareOptions tunes the HTTP metrics middleware.
type MiddlewareOptions struct {
	// PathNormalizer collapses dynamic path segments before they become
	// label values. Defaults to DefaultPathNormalizer.
	PathNormalizer func(string) string

	// SkipPaths lists normalized paths to leave out entirely, typically
	// /metrics and the health probes.
	SkipPaths []string
}

// HTTPMiddleware records request count, duration, size and in-flight
// gauge for every request.
func HTTPMiddleware(registry *Registry) func(http.Handler) http.Handler {
	return HTTPMiddlewareWithOptions(registry, MiddlewareOptions{})
}

// HTTPMiddlewareWithOptions is HTTPMiddleware with path normalization
// and skip-list control.
func HTTPMiddlewareWithOptions(registry *Registry, opts MiddlewareOptions) func(http.Handler) http.Handler {
	normalize := opts.PathNormalizer
	if normalize == nil {
		normalize = DefaultPathNormalizer
	}
	skip := make(map[string]bool, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := normalize(r.URL.Path)
			if skip[path] {
				next.ServeHTTP(w, r)
				return
			}

			httpMetrics := registry.HTTP()
			httpMetrics.IncActiveRequests(r.Method, path)
			defer httpMetrics.DecActiveRequests(r.Method, path)

			recorder := &sizeRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			reqSize := r.ContentLength
			if reqSize < 0 {
				reqSize = 0
			}
			httpMetrics.RecordRequest(r.Method, path, recorder.status,
				time.Since(start).Seconds(), reqSize, recorder.size)
		})
	}
}

// sizeRecorder captures the status and body size for the request metrics.
type sizeRecorder struct {
	http.ResponseWriter
	status int
	size   int64
}

func (w *sizeRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *sizeRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

func (w *sizeRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (w *sizeRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Message and link identifiers are UUIDs on the SQL backend and 24-hex
// ObjectIDs on MongoDB; both collapse to {id} to bound label cardinality.
var (
	uuidPattern  = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexIDPattern = regexp.MustCompile(`/[0-9a-fA-F]{24}(?:/|$)`)
)

// DefaultPathNormalizer replaces dynamic path segments with {id}.
func DefaultPathNormalizer(path string) string {
	path = uuidPattern.ReplaceAllString(path, "{id}")
	return hexIDPattern.ReplaceAllStringFunc(path, func(s string) string {
		if s[len(s)-1] == '/' {
			return "/{id}/"
		}
		return "/{id}"
	})
}
