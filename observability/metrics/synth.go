package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// SynthMetrics tracks issuance engine activity: operation outcomes, oracle
// staleness rejections and liquidation volume.
type SynthMetrics struct {
	operations       *prometheus.CounterVec
	staleQuotes      *prometheus.CounterVec
	healthRejections prometheus.Counter
	liquidations     *prometheus.CounterVec
	seizedTotal      *prometheus.CounterVec
	openDebt         prometheus.Gauge
}

var (
	synthOnce     sync.Once
	synthRegistry *SynthMetrics
)

// Synth returns the lazily-initialised engine metrics registry.
func Synth() *SynthMetrics {
	synthOnce.Do(func() {
		synthRegistry = &SynthMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Count of engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			staleQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "oracle",
				Name:      "stale_quotes_total",
				Help:      "Count of operations rejected because a price quote aged past the window.",
			}, []string{"asset"}),
			healthRejections: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "health_rejections_total",
				Help:      "Count of operations rejected by the solvency post-condition.",
			}),
			liquidations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Count of completed liquidations segmented by collateral asset.",
			}, []string{"asset"}),
			seizedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "collateral_seized_total",
				Help:      "Cumulative collateral seized by liquidations, in native units.",
			}, []string{"asset"}),
			openDebt: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "synthvault",
				Subsystem: "engine",
				Name:      "open_debt",
				Help:      "Outstanding synthetic debt across all positions.",
			}),
		}
		prometheus.MustRegister(
			synthRegistry.operations,
			synthRegistry.staleQuotes,
			synthRegistry.healthRejections,
			synthRegistry.liquidations,
			synthRegistry.seizedTotal,
			synthRegistry.openDebt,
		)
	})
	return synthRegistry
}

func normalizeLabel(value, fallback string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

// ObserveOperation records one engine operation outcome.
func (m *SynthMetrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveStaleQuote records an operation rejected by the staleness window.
func (m *SynthMetrics) ObserveStaleQuote(asset string) {
	if m == nil {
		return
	}
	m.staleQuotes.WithLabelValues(normalizeLabel(asset, "UNKNOWN")).Inc()
}

// ObserveHealthRejection records a solvency post-condition failure.
func (m *SynthMetrics) ObserveHealthRejection() {
	if m == nil {
		return
	}
	m.healthRejections.Inc()
}

// ObserveLiquidation records a completed liquidation and the seized quantity.
func (m *SynthMetrics) ObserveLiquidation(asset string, seized float64) {
	if m == nil {
		return
	}
	label := normalizeLabel(asset, "UNKNOWN")
	m.liquidations.WithLabelValues(label).Inc()
	if seized > 0 {
		m.seizedTotal.WithLabelValues(label).Add(seized)
	}
}

// SetOpenDebt publishes the current aggregate debt.
func (m *SynthMetrics) SetOpenDebt(amount float64) {
	if m == nil {
		return
	}
	m.openDebt.Set(amount)
}
