package connectors

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics shared by all connectors.
type Metrics struct {
	QuotesTotal     *prometheus.CounterVec
	TradesSubmitted *prometheus.CounterVec
	TradeErrors     *prometheus.CounterVec
	PoolsResolved   *prometheus.GaugeVec
	PoolsSkipped    *prometheus.CounterVec
	InitDuration    *prometheus.HistogramVec
}

var connectorLabels = []string{"connector", "chain", "network"}

func withLabels(extra ...string) []string {
	return append(append([]string(nil), connectorLabels...), extra...)
}

// NewMetrics creates and registers the connector metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		QuotesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "amm_gateway_quotes_total",
			Help: "Trade estimates served, labeled by side and outcome.",
		}, withLabels("side", "outcome")),

		TradesSubmitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "amm_gateway_trades_submitted_total",
			Help: "Swap transactions accepted by the node, labeled by gas strategy.",
		}, withLabels("gas")),

		TradeErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "amm_gateway_trade_errors_total",
			Help: "Swap submissions that failed before the node accepted them, labeled by stage.",
		}, withLabels("stage")),

		PoolsResolved: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "amm_gateway_pools_resolved",
			Help: "Configured pools found on chain during the last pool update.",
		}, connectorLabels),

		PoolsSkipped: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "amm_gateway_pools_skipped_total",
			Help: "Configured pools skipped during pool updates, labeled by reason.",
		}, withLabels("reason")),

		InitDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "amm_gateway_connector_init_duration_seconds",
			Help:    "Time taken by connector initialization.",
			Buckets: prometheus.DefBuckets,
		}, connectorLabels),
	}
}
