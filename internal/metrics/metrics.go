package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ActionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regza_actions_total",
			Help: "Device actions processed, by device, action and outcome.",
		},
		[]string{"device", "action", "outcome"},
	)

	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "regza_action_duration_seconds",
			Help:    "Time spent processing a device action.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"device"},
	)

	DuplicateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regza_duplicate_actions_total",
			Help: "Actions answered from the nonce cache.",
		},
		[]string{"device"},
	)

	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "regza_api_requests_total",
			Help: "API requests by route, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
)

func init() {
	prometheus.MustRegister(ActionCounter, ActionDuration, DuplicateCounter, RequestCounter)
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAction records one processed action
func ObserveAction(deviceID, action string, success bool, elapsed time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	ActionCounter.WithLabelValues(deviceID, action, outcome).Inc()
	ActionDuration.WithLabelValues(deviceID).Observe(elapsed.Seconds())
}

// Middleware counts requests per route template
func Middleware(routeName func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			RequestCounter.WithLabelValues(routeName(r), r.Method, strconv.Itoa(rw.status)).Inc()
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
