// Package metrics records batch run outcomes as Prometheus metrics.
//
// A load is a short-lived job, so metrics are pushed to a Pushgateway at the
// end of the run instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "cpload"

// Recorder implements core.Recorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	rows         *prometheus.CounterVec
	derivedRows  *prometheus.CounterVec
	failures     *prometheus.CounterVec
	duration     prometheus.Gauge
	failedTables prometheus.Gauge
	aborted      prometheus.Gauge

	// lastSuccess is kept off the registry and pushed only after a
	// successful run, so the Pushgateway keeps the previous value otherwise.
	lastSuccess prometheus.Gauge
	succeeded   bool
}

// New creates a recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Rows inserted per table.",
		}, []string{"table"}),
		derivedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "derived_rows_inserted_total",
			Help:      "Satellite rows inserted on behalf of a parent table.",
		}, []string{"table"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_failures_total",
			Help:      "Table imports that were rolled back, by error code.",
		}, []string{"table", "code"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		failedTables: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_failed_tables",
			Help:      "Tables that failed in the last run.",
		}),
		aborted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_aborted",
			Help:      "1 if the last run stopped on a fatal error.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run without failed tables.",
		}),
	}

	r.registry.MustRegister(r.rows, r.derivedRows, r.failures, r.duration, r.failedTables, r.aborted)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) TableLoaded(table string, rows, derived int) {
	r.rows.WithLabelValues(table).Add(float64(rows))
	if derived > 0 {
		r.derivedRows.WithLabelValues(table).Add(float64(derived))
	}
}

func (r *Recorder) TableFailed(table, code string) {
	r.failures.WithLabelValues(table, code).Inc()
}

// RunFinished records the run totals. A run is a success only when it was
// not aborted and no table failed.
func (r *Recorder) RunFinished(d time.Duration, failed int, aborted bool) {
	r.duration.Set(d.Seconds())
	r.failedTables.Set(float64(failed))
	if aborted {
		r.aborted.Set(1)
	} else {
		r.aborted.Set(0)
	}

	r.succeeded = !aborted && failed == 0
	if r.succeeded {
		r.lastSuccess.SetToCurrentTime()
	}
}

// Push sends this run's metrics to a Pushgateway. It uses POST, which
// replaces only the metric names being sent, so the success timestamp of an
// earlier run survives a failed one.
func (r *Recorder) Push(ctx context.Context, url, job string) error {
	p := push.New(url, job).Gatherer(r.registry)
	if r.succeeded {
		p = p.Collector(r.lastSuccess)
	}
	if err := p.AddContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
