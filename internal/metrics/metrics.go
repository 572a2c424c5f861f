package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus instruments of the screener.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	FetchDuration  *prometheus.HistogramVec
	FetchErrors    *prometheus.CounterVec
	AnalysesTotal  *prometheus.CounterVec
	WarningsTotal  *prometheus.CounterVec
	SignalsTotal   *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	ScreenRuns     prometheus.Counter
	ScreenDuration prometheus.Histogram
}

// NewMetrics creates all instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_fetch_duration_seconds",
			Help:    "Latency of price and constituent fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_fetch_errors_total",
			Help: "Failed fetches by source",
		}, []string{"source"}),
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_analyses_total",
			Help: "Pipeline runs by result (ok, empty_series, fetch_failure, invalid_request, error)",
		}, []string{"result"}),
		WarningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_analysis_warnings_total",
			Help: "Warnings attached to analyses by code",
		}, []string{"code"}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_alerted_signals_total",
			Help: "Latest-bar signals alerted by the watchlist screen",
		}, []string{"kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_cache_lookups_total",
			Help: "Constituent cache lookups (hit, miss)",
		}, []string{"result"}),
		ScreenRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_watchlist_runs_total",
			Help: "Completed watchlist screens",
		}),
		ScreenDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "screener_watchlist_duration_seconds",
			Help:    "Wall time of a watchlist screen",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}

	reg.MustRegister(
		m.FetchDuration,
		m.FetchErrors,
		m.AnalysesTotal,
		m.WarningsTotal,
		m.SignalsTotal,
		m.CacheLookups,
		m.ScreenRuns,
		m.ScreenDuration,
	)
	return m
}

// ObserveFetch records the latency and outcome of one fetch.
func (m *Metrics) ObserveFetch(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ObserveAnalysis(result string) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveWarning(code string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveSignal(kind string) {
	if m == nil {
		return
	}
	m.SignalsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveScreen(d time.Duration) {
	if m == nil {
		return
	}
	m.ScreenRuns.Inc()
	m.ScreenDuration.Observe(d.Seconds())
}
