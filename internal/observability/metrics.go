package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "registrations_total",
		Help:      "Total number of face registration attempts",
	}, []string{"outcome"})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "verifications_total",
		Help:      "Total number of verification attempts",
	}, []string{"outcome"})

	CaptureRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "capture_rejections_total",
		Help:      "Frames rejected before encoding, by reason",
	}, []string{"reason"})

	MatchConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "presence",
		Name:      "match_confidence",
		Help:      "Fused confidence of successful matches",
		Buckets:   prometheus.LinearBuckets(0.0, 0.05, 20),
	})

	AttendanceTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "attendance_transitions_total",
		Help:      "Attendance lifecycle transitions by action and result",
	}, []string{"action", "result"})

	TrainingSamplesAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "presence",
		Name:      "training_samples_added_total",
		Help:      "Samples accumulated through auto-training",
	})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "presence",
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of signature pipeline stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "presence",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "presence",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
