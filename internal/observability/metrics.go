// Package observability exposes decode counters in Prometheus format.
package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels used by RecordFrame.
const (
	OutcomeDecoded = "decoded"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Metrics holds the counters for one monitor run. A nil *Metrics records
// nothing.
type Metrics struct {
	frames   *prometheus.CounterVec
	failures *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goktmcan",
				Subsystem: "decoder",
				Name:      "frames_total",
				Help:      "Frames received, by identifier and outcome.",
			},
			[]string{"id", "outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "goktmcan",
				Subsystem: "decoder",
				Name:      "failures_total",
				Help:      "Decode failures, by identifier and error kind.",
			},
			[]string{"id", "kind"},
		),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "goktmcan",
			Subsystem: "decoder",
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding one frame.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.frames, m.failures, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// RecordFrame counts one frame. id is formatted the way the decoder prints it.
func (m *Metrics) RecordFrame(id uint32, extended bool, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	label := idLabel(id, extended)
	m.frames.WithLabelValues(label, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.latency.Observe(took.Seconds())
	}
}

// RecordFailure counts one failed decode under kind ("layout", "malformed"
// or "other").
func (m *Metrics) RecordFailure(id uint32, kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(idLabel(id, false), kind).Inc()
}

func idLabel(id uint32, extended bool) string {
	if extended {
		return fmt.Sprintf("0x%08X", id)
	}
	return fmt.Sprintf("0x%03X", id)
}

// Serve exposes gatherer on addr under /metrics until the server fails.
// The returned server can be shut down by the caller.
func Serve(addr string, gatherer prometheus.Gatherer) (*http.Server, <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
		close(errc)
	}()
	return srv, errc
}
