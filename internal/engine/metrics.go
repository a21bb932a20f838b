package engine

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Passes          *prometheus.CounterVec
	PassDuration    *prometheus.HistogramVec
	Verdicts        *prometheus.CounterVec
	FetchFailures   *prometheus.CounterVec
	BlockingScopes  prometheus.Gauge
	SnapshotVersion prometheus.Gauge
}

func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundguard_validation_passes_total",
				Help: "Total validation passes.",
			},
			[]string{"result"},
		),
		PassDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundguard_validation_pass_duration_seconds",
				Help:    "Validation pass duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		Verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundguard_verdicts_total",
				Help: "Verdicts by outcome.",
			},
			[]string{"outcome"},
		),
		FetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundguard_fetch_failures_total",
				Help: "Failed external fetches by kind.",
			},
			[]string{"kind"},
		),
		BlockingScopes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundguard_blocking_scopes",
				Help: "Number of blocking scopes in the latest report.",
			},
		),
		SnapshotVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundguard_snapshot_version",
				Help: "Snapshot version of the latest report.",
			},
		),
	}

	registry.MustRegister(m.Passes, m.PassDuration, m.Verdicts, m.FetchFailures, m.BlockingScopes, m.SnapshotVersion)
	return m
}

func (m *Metrics) observePass(result string, seconds float64) {
	if m == nil {
		return
	}
	m.Passes.WithLabelValues(result).Inc()
	m.PassDuration.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) observeFetchFailure(kind string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeReport(r *Report) {
	if m == nil {
		return
	}
	blocking := 0
	for _, v := range r.Verdicts {
		switch {
		case v.Degraded:
			m.Verdicts.WithLabelValues("degraded").Inc()
		case !v.Sufficient():
			m.Verdicts.WithLabelValues("insufficient").Inc()
		default:
			m.Verdicts.WithLabelValues("sufficient").Inc()
		}
		if v.Blocking() {
			blocking++
		}
	}
	m.BlockingScopes.Set(float64(blocking))
	m.SnapshotVersion.Set(float64(r.SnapshotVersion))
}
