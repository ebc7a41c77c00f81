package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Init registers metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// resourceRoots lists collection prefixes whose next path segment is an entity
// identifier. Collapsing the identifier keeps label cardinality bounded.
var resourceRoots = map[string]bool{
	"trials":           true,
	"publications":     true,
	"experts":          true,
	"favorites":        true,
	"forums":           true,
	"meeting-requests": true,
	"connections":      true,
}

// forum sub-collections live under /api/forums/{posts,replies}; those
// segments are route names, not identifiers.
var forumSubCollections = map[string]bool{
	"posts":   true,
	"replies": true,
}

// CanonicalPath replaces entity identifiers in known API paths with ":id".
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" {
		return path
	}
	if !resourceRoots[parts[1]] {
		return path
	}
	if parts[1] == "forums" && forumSubCollections[parts[2]] {
		switch len(parts) {
		case 3:
			// /api/forums/posts
			return path
		case 4:
			// /api/forums/posts/p1 -> /api/forums/posts/:id
			return "/api/forums/" + parts[2] + "/:id"
		case 5:
			// /api/forums/posts/p1/replies
			return "/api/forums/" + parts[2] + "/:id/" + parts[4]
		default:
			return path
		}
	}
	switch len(parts) {
	case 3:
		// /api/trials/NCT123 -> /api/trials/:id
		return "/api/" + parts[1] + "/:id"
	case 4:
		// /api/forums/f1/posts, /api/connections/c1/respond
		return "/api/" + parts[1] + "/:id/" + parts[3]
	default:
		return path
	}
}

// statusWriter captures the response status code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
