// Package metrics exposes Prometheus counters for the replay engine.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the replay engine.
type Metrics struct {
	TicksTotal       prometheus.Counter
	BarsTotal        prometheus.Counter
	IntentsTotal     prometheus.Counter
	OrderEventsTotal *prometheus.CounterVec // labels: status
	WALRecordsTotal  *prometheus.CounterVec // labels: kind
	RolloversTotal   *prometheus.CounterVec // labels: mode
	ViolationsTotal  prometheus.Counter
	RunDuration      prometheus.Histogram
}

// New registers and returns all replay metrics on a private registry.
// Each replay process owns its registry so independent runs never
// collide on collector registration.
func New() (*Metrics, *prometheus.Registry) {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_ticks_total",
			Help: "Total ticks consumed from the tick source",
		}),
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_bars_total",
			Help: "Total minute bars emitted",
		}),
		IntentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_intents_total",
			Help: "Total strategy intents processed",
		}),
		OrderEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_order_events_total",
			Help: "Order events emitted by the execution simulator",
		}, []string{"status"}),
		WALRecordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_wal_records_total",
			Help: "WAL records appended",
		}, []string{"kind"}),
		RolloversTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_rollovers_total",
			Help: "Contract rollover events observed",
		}, []string{"mode"}),
		ViolationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "replay_invariant_violations_total",
			Help: "Ledger invariant violations found at report time",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "replay_run_duration_seconds",
			Help:    "Wall-clock duration of complete replay runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		m.TicksTotal,
		m.BarsTotal,
		m.IntentsTotal,
		m.OrderEventsTotal,
		m.WALRecordsTotal,
		m.RolloversTotal,
		m.ViolationsTotal,
		m.RunDuration,
	)
	return m, reg
}

// Serve starts the Prometheus HTTP endpoint in a background goroutine.
func Serve(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[metrics] serving on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}
