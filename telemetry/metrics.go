// Package telemetry instruments dango transports with Prometheus
// metrics through go-kit's metrics facade.
package telemetry

import (
	"errors"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/blockberries/dango"
)

const (
	namespace = "dango"
	subsystem = "client"

	queriesTotal         = "queries_total"
	queryErrorsTotal     = "query_errors_total"
	queryDurationSeconds = "query_duration_seconds"
)

// Metrics holds the collectors recorded by MeteredTransport.
type Metrics struct {
	// QueriesTotal counts every query sent, labelled by 'kind'.
	QueriesTotal metrics.Counter

	// QueryErrorsTotal counts failed queries, labelled by 'kind' and
	// 'class' (see Class).
	QueryErrorsTotal metrics.Counter

	// QueryDurationSeconds observes round-trip latency, labelled by
	// 'kind' and 'status' ("ok" or "error").
	//
	// Buckets span 1ms to 10s: local transports answer in microseconds,
	// remote nodes in tens of milliseconds.
	QueryDurationSeconds metrics.Histogram

	queries   *stdprometheus.CounterVec
	errors    *stdprometheus.CounterVec
	durations *stdprometheus.HistogramVec
}

// NewMetrics creates the query collectors and registers them with reg.
// Collectors already registered by an earlier call are reused, so
// several transports can share one registry.
func NewMetrics(reg stdprometheus.Registerer) (*Metrics, error) {
	queries := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      queriesTotal,
		Help:      "Total number of queries sent, labeled by query kind.",
	}, []string{"kind"})
	errs := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      queryErrorsTotal,
		Help:      "Total number of failed queries, labeled by query kind and error class.",
	}, []string{"kind", "class"})
	durations := stdprometheus.NewHistogramVec(stdprometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      queryDurationSeconds,
		Help:      "Histogram of query round-trip durations.",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2, 10},
	}, []string{"kind", "status"})

	var err error
	if queries, err = register(reg, queries); err != nil {
		return nil, err
	}
	if errs, err = register(reg, errs); err != nil {
		return nil, err
	}
	if durations, err = register(reg, durations); err != nil {
		return nil, err
	}

	return &Metrics{
		QueriesTotal:         prometheus.NewCounter(queries),
		QueryErrorsTotal:     prometheus.NewCounter(errs),
		QueryDurationSeconds: prometheus.NewHistogram(durations),
		queries:              queries,
		errors:               errs,
		durations:            durations,
	}, nil
}

func register[C stdprometheus.Collector](reg stdprometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are stdprometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Class names the error class of err for the 'class' label.
func Class(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, dango.ErrProtocol):
		return "protocol"
	case errors.Is(err, dango.ErrNotFound):
		return "not_found"
	case errors.Is(err, dango.ErrKeyNotFound):
		return "key_not_found"
	case errors.Is(err, dango.ErrDecode):
		return "decode"
	case errors.Is(err, dango.ErrQueryFailed):
		return "query_failed"
	case errors.Is(err, dango.ErrTransport):
		return "transport"
	default:
		return "unclassified"
	}
}
