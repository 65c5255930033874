package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nimburion/invigilate/pkg/invigilate"
	"github.com/nimburion/invigilate/pkg/loggers"
)

// Observer records invigilate registry activity as Prometheus metrics.
//
// Metrics:
//   - invigilate_units_registered_total{linked}
//   - invigilate_logger_assignments_total
//   - invigilate_cascade_updates_total
//   - invigilate_cascade_size (histogram of contexts rewritten per assignment)
//   - invigilate_dispatches_total{method,tier}
type Observer struct {
	registered  *prometheus.CounterVec
	assignments prometheus.Counter
	updates     prometheus.Counter
	cascadeSize prometheus.Histogram
	dispatches  *prometheus.CounterVec
}

var _ invigilate.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors on reg.
func NewObserver(reg *Registry) (*Observer, error) {
	o := &Observer{
		registered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invigilate_units_registered_total",
				Help: "Total number of registered units",
			},
			[]string{"linked"},
		),
		assignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invigilate_logger_assignments_total",
			Help: "Total number of logger assignments, resets and detaches",
		}),
		updates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "invigilate_cascade_updates_total",
			Help: "Total number of contexts rewritten by logger assignments",
		}),
		cascadeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "invigilate_cascade_size",
			Help:    "Number of contexts rewritten per logger assignment",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invigilate_dispatches_total",
				Help: "Total number of proxy calls by method and serving tier",
			},
			[]string{"method", "tier"},
		),
	}

	for _, c := range []prometheus.Collector{o.registered, o.assignments, o.updates, o.cascadeSize, o.dispatches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Registered implements invigilate.Observer.
func (o *Observer) Registered(_, _ invigilate.ID, linked bool) {
	o.registered.WithLabelValues(strconv.FormatBool(linked)).Inc()
}

// Cascaded implements invigilate.Observer.
func (o *Observer) Cascaded(_ invigilate.ID, updated int) {
	o.assignments.Inc()
	o.updates.Add(float64(updated))
	o.cascadeSize.Observe(float64(updated))
}

// Dispatched implements invigilate.Observer.
func (o *Observer) Dispatched(method loggers.Method, tier invigilate.Tier) {
	o.dispatches.WithLabelValues(string(method), tier.String()).Inc()
}
