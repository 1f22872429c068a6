// Package metrics exposes run counters for the converter and upload server.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jalad-shrimali/callreport/calllog"
)

const namespace = "callreport"

// Outcome labels for runs.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder tracks pipeline runs. A nil *Recorder records nothing.
type Recorder struct {
	runs      *prometheus.CounterVec
	rowsRead  prometheus.Counter
	excluded  prometheus.Counter
	callbacks prometheus.Counter
	delay     prometheus.Histogram
	gatherer  prometheus.Gatherer
}

// NewRecorder registers the collectors on reg. When reg is also a Gatherer,
// Handler serves it.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome and error kind.",
		}, []string{"outcome", "kind"}),
		rowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Data rows read from call-log exports.",
		}),
		excluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_excluded_total",
			Help:      "Rows dropped by the exclusion list.",
		}),
		callbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_total",
			Help:      "Callback entries emitted.",
		}),
		delay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "callback_delay_minutes",
			Help:      "Minutes between a missed call and its callback.",
			Buckets:   []float64{5, 10, 20, 30, 40, 60, 120, 240, 480, 1440},
		}),
	}
	for _, c := range []prometheus.Collector{r.runs, r.rowsRead, r.excluded, r.callbacks, r.delay} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r, nil
}

// ObserveReport records a successful run.
func (r *Recorder) ObserveReport(rep *calllog.Report) {
	if r == nil || rep == nil {
		return
	}
	r.runs.WithLabelValues(OutcomeSuccess, "").Inc()
	r.rowsRead.Add(float64(rep.RowsRead))
	r.excluded.Add(float64(rep.Excluded))
	r.callbacks.Add(float64(len(rep.Callbacks)))
	for _, cb := range rep.Callbacks {
		r.delay.Observe(float64(cb.DelayMinutes))
	}
}

// ObserveFailure records a failed run, labelled with the calllog error kind
// when there is one.
func (r *Recorder) ObserveFailure(err error) {
	if r == nil {
		return
	}
	kind := "UNKNOWN"
	var ce *calllog.Error
	if errors.As(err, &ce) {
		kind = string(ce.Kind)
	}
	r.runs.WithLabelValues(OutcomeFailure, kind).Inc()
}

// Handler serves the registry the recorder was built with, falling back to
// the default gatherer.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
