package handlers

import (
	"context"
	"time"

	"github.com/payme/contracts/internal/platform/host"
	"github.com/payme/contracts/internal/platform/logger"
	"github.com/payme/contracts/pkg/protocol"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts contract invocations.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	sequence   prometheus.Gauge
}

// NewMetrics registers the invocation metrics with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "payme",
			Name:      "operations_total",
			Help:      "Contract invocations by operation and result.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "payme",
			Name:      "operation_duration_seconds",
			Help:      "Time spent inside contract invocations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		sequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "payme",
			Name:      "ledger_sequence",
			Help:      "Current ledger sequence.",
		}),
	}

	registry.MustRegister(m.operations, m.duration, m.sequence)
	return m
}

// Middleware records the result and duration of every invocation.
func (m *Metrics) Middleware(next host.Handler) host.Handler {
	return func(ctx context.Context) error {
		start := time.Now()
		err := next(ctx)

		operation := "unknown"
		if v := host.FromContext(ctx); v != nil {
			operation = v.Operation
		}

		m.operations.WithLabelValues(operation, result(err)).Inc()
		m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		return err
	}
}

// SetSequence publishes the ledger sequence.
func (m *Metrics) SetSequence(seq uint32) {
	m.sequence.Set(float64(seq))
}

// LogInvocations logs the outcome of every invocation.
func LogInvocations(next host.Handler) host.Handler {
	return func(ctx context.Context) error {
		err := next(ctx)

		v := host.FromContext(ctx)
		if v == nil {
			return err
		}

		switch {
		case err == nil:
			logger.Info(ctx, "%s : %s accepted at ledger %d", v.TraceID, v.Operation, v.Sequence)
		case protocol.IsRejection(err):
			logger.Info(ctx, "%s : %s rejected : %s", v.TraceID, v.Operation, err)
		default:
			logger.Error(ctx, "%s : %s failed : %s", v.TraceID, v.Operation, err)
		}
		return err
	}
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	if rejection := protocol.RejectionFromError(err); rejection != nil {
		return rejection.Code.String()
	}
	return "error"
}
