// Package telemetry holds the Prometheus instruments for chat turns and
// for the development stream server.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hiwar"

// Metrics records client-side turn activity. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	turns       *prometheus.CounterVec
	chunks      prometheus.Counter
	duration    *prometheus.HistogramVec
	storeErrors *prometheus.CounterVec
}

// New creates the turn instruments and registers them with reg when
// reg is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "chunks_total",
			Help:      "Stream chunks received.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "Time from send to the end of the turn.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"outcome"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Session store failures by operation.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.turns, m.chunks, m.duration, m.storeErrors)
	}
	return m
}

// TurnFinished counts a turn that ended with outcome after d.
func (m *Metrics) TurnFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ChunkReceived counts one stream fragment.
func (m *Metrics) ChunkReceived() {
	if m == nil {
		return
	}
	m.chunks.Inc()
}

// StoreError counts a failed ReadAll or WriteAll.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// ServerMetrics records what the development server streamed.
type ServerMetrics struct {
	requests *prometheus.CounterVec
	chunks   prometheus.Counter
}

// NewServer creates the server instruments and registers them with reg
// when reg is not nil.
func NewServer(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "Stream requests by HTTP status.",
		}, []string{"code"}),
		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "devserver",
			Name:      "chunks_sent_total",
			Help:      "Stream chunks written.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.chunks)
	}
	return m
}

// Request counts a finished request with its status code text.
func (m *ServerMetrics) Request(code string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(code).Inc()
}

// ChunkSent counts one written chunk.
func (m *ServerMetrics) ChunkSent() {
	if m == nil {
		return
	}
	m.chunks.Inc()
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
