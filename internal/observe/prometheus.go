package observe

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports operation counts and latencies.
type PrometheusRecorder struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the efdcrun_operations_total counter and
// efdcrun_operation_duration_seconds histogram on reg. Collectors that are
// already registered are reused.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efdcrun",
		Name:      "operations_total",
		Help:      "Finished operations by name and outcome.",
	}, []string{"operation", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "efdcrun",
		Name:      "operation_duration_seconds",
		Help:      "Wall time of finished operations.",
		// model runs take minutes to hours
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 12),
	}, []string{"operation"})

	var err error
	if total, err = register(reg, total); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	return &PrometheusRecorder{total: total, duration: duration}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.total.WithLabelValues(operation, status(success)).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}
