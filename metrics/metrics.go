// Package metrics provides prometheus instrumentation for the pulse service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksProcessed counts ticks accepted into the tick buffer.
	TicksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_ticks_processed_total",
		Help: "Number of ticks accepted into the tick buffer",
	}, []string{"market"})

	// TicksRejected counts duplicate or out-of-order ticks discarded at the
	// buffer boundary.
	TicksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_ticks_rejected_total",
		Help: "Number of duplicate or out-of-order ticks discarded",
	}, []string{"market"})

	// CandlesClosed counts finalized candlesticks per timeframe.
	CandlesClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_candles_closed_total",
		Help: "Number of finalized candlesticks",
	}, []string{"market", "timeframe"})

	// CombinedProbability tracks the most recently computed combined
	// touch probability.
	CombinedProbability = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pulse_combined_probability",
		Help: "Most recently computed combined touch probability",
	}, []string{"market"})

	// EmpiricalSampleSize tracks the sample size backing the most recent
	// empirical probability.
	EmpiricalSampleSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pulse_empirical_sample_size",
		Help: "Sample size backing the most recent empirical probability",
	}, []string{"market"})

	// RelayClients tracks the number of connected display clients.
	RelayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pulse_relay_clients",
		Help: "Number of connected display clients",
	})
)

// StartServer exposes the metrics endpoint on the provided address.
func StartServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
