package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xam-dev-ux/BaseReview/internal/app/domain/dispute"
	"github.com/xam-dev-ux/BaseReview/internal/app/domain/review"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "basereview",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "basereview",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	appsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "registry",
			Name:      "apps_registered_total",
			Help:      "Total number of mini-apps registered.",
		},
	)

	reviewsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "reviews",
			Name:      "submitted_total",
			Help:      "Total number of reviews submitted.",
		},
		[]string{"type"},
	)

	votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "voting",
			Name:      "votes_total",
			Help:      "Total number of helpful votes accepted.",
		},
		[]string{"helpful"},
	)

	disputesOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "disputes",
			Name:      "opened_total",
			Help:      "Total number of disputes opened.",
		},
	)

	disputesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "basereview",
			Subsystem: "disputes",
			Name:      "resolved_total",
			Help:      "Total number of disputes closed, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		appsRegistered,
		reviewsSubmitted,
		votesCast,
		disputesOpened,
		disputesResolved,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// AppRegistered records a successful app registration.
func AppRegistered() {
	appsRegistered.Inc()
}

// ReviewSubmitted records an accepted review by type.
func ReviewSubmitted(t review.Type) {
	reviewsSubmitted.WithLabelValues(t.String()).Inc()
}

// VoteCast records an accepted helpful vote.
func VoteCast(helpful bool) {
	votesCast.WithLabelValues(strconv.FormatBool(helpful)).Inc()
}

// DisputeOpened records a newly opened dispute.
func DisputeOpened() {
	disputesOpened.Inc()
}

// DisputeResolved records a dispute closed with the given outcome.
func DisputeResolved(outcome dispute.Status) {
	disputesResolved.WithLabelValues(outcome.String()).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "apps":
		if len(parts) == 1 {
			return "/apps"
		}
		if len(parts) == 2 {
			return "/apps/:id"
		}
		return "/apps/:id/" + parts[2]
	case "reviews":
		if len(parts) == 1 {
			return "/reviews"
		}
		if len(parts) == 2 {
			return "/reviews/:id"
		}
		return "/reviews/:id/" + parts[2]
	case "disputes":
		if len(parts) == 1 {
			return "/disputes"
		}
		if len(parts) == 2 {
			return "/disputes/:id"
		}
		return "/disputes/:id/" + parts[2]
	default:
		return "/" + parts[0]
	}
}
