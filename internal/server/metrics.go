package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a report.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed (malformed input or upload problems).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lookml_validator",
			Name:      "analyses_total",
			Help:      "Total number of dashboard analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookml_validator",
			Name:      "analysis_seconds",
			Help:      "Dashboard analysis latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
	)

	uploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lookml_validator",
			Name:      "upload_bytes",
			Help:      "Size of uploaded dashboard definitions in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
)

// RegisterMetrics attaches validator collectors to the supplied Prometheus registerer.
func RegisterMetrics(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		uploadBytes,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveUpload records the size of an uploaded dashboard definition.
func ObserveUpload(size int64) {
	if size < 0 {
		return
	}
	uploadBytes.Observe(float64(size))
}
