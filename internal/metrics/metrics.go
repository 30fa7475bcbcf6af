// Package metrics implements the core.MetricsSink interface on top of
// Prometheus collectors. The pipeline emits events; this package turns
// them into counters and histograms.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mikey/contract-spam-filter/internal/core"
)

var (
	providerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contract_spam_filter",
		Subsystem: "provider",
		Name:      "calls_total",
		Help:      "Provider fetch outcomes",
	}, []string{"provider", "outcome"})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contract_spam_filter",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Prediction cache lookups",
	}, []string{"result"})

	classifierCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "contract_spam_filter",
		Subsystem: "classifier",
		Name:      "calls_total",
		Help:      "Classifier invocation outcomes",
	}, []string{"outcome"})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contract_spam_filter",
		Subsystem: "request",
		Name:      "duration_seconds",
		Help:      "Contract status request latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"chain"})

	requestAddresses = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "contract_spam_filter",
		Subsystem: "request",
		Name:      "addresses",
		Help:      "Unique addresses per request",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	}, []string{"chain"})
)

// Sink is the Prometheus-backed event sink.
type Sink struct{}

// NewSink returns a MetricsSink recording to the default registry.
func NewSink() *Sink { return &Sink{} }

func (s *Sink) ProviderCall(provider string, outcome string) {
	providerCalls.WithLabelValues(provider, outcome).Inc()
}

func (s *Sink) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

func (s *Sink) ClassifierCall(outcome string) {
	classifierCalls.WithLabelValues(outcome).Inc()
}

func (s *Sink) RequestCompleted(chainID core.ChainID, addresses int, seconds float64) {
	chain := strconv.FormatUint(uint64(chainID), 10)
	requestLatency.WithLabelValues(chain).Observe(seconds)
	requestAddresses.WithLabelValues(chain).Observe(float64(addresses))
}
