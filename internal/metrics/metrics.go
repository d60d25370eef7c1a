// Package metrics exposes Prometheus counters for conversations, storage and updates.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fuelbot"

// Recorder owns the bot's collectors. A nil *Recorder records nothing.
type Recorder struct {
	flowEvents       *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	storeFailures    *prometheus.CounterVec
	tripsRecorded    prometheus.Counter
	tripFuel         prometheus.Histogram
	updates          *prometheus.CounterVec
	updateDuration   *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		flowEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_events_total",
			Help:      "Conversation flow transitions by flow and event.",
		}, []string{"flow", "event"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Rejected inputs by conversation step.",
		}, []string{"step"}),
		storeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Failed storage and session operations.",
		}, []string{"op"}),
		tripsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trips_recorded_total",
			Help:      "Trips stored.",
		}),
		tripFuel: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trip_fuel_litres",
			Help:      "Estimated fuel of recorded trips.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates handled by kind and status.",
		}, []string{"kind", "status"}),
		updateDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent handling one update.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{
		r.flowEvents, r.validationErrors, r.storeFailures,
		r.tripsRecorded, r.tripFuel, r.updates, r.updateDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// FlowEvent counts a flow transition such as started or completed.
func (r *Recorder) FlowEvent(flow, event string) {
	if r == nil {
		return
	}
	r.flowEvents.WithLabelValues(flow, event).Inc()
}

// ValidationError counts a rejected input.
func (r *Recorder) ValidationError(step string) {
	if r == nil {
		return
	}
	r.validationErrors.WithLabelValues(step).Inc()
}

// StoreFailure counts a failed storage call.
func (r *Recorder) StoreFailure(op string) {
	if r == nil {
		return
	}
	r.storeFailures.WithLabelValues(op).Inc()
}

// TripRecorded counts a stored trip and observes its fuel.
func (r *Recorder) TripRecorded(litres float64) {
	if r == nil {
		return
	}
	r.tripsRecorded.Inc()
	r.tripFuel.Observe(litres)
}

// ObserveUpdate records one handled Telegram update.
func (r *Recorder) ObserveUpdate(kind, status string, took time.Duration) {
	if r == nil {
		return
	}
	r.updates.WithLabelValues(kind, status).Inc()
	r.updateDuration.WithLabelValues(kind).Observe(took.Seconds())
}
