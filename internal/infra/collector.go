package infra

import (
	"nft_market/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "nft_market"

// MetricsCollector exports Metrics counters and market balances to Prometheus.
// Values are read at scrape time, so nothing is duplicated into client-side
// counters.
type MetricsCollector struct {
	metrics  *Metrics
	balances domain.BalanceSource

	ops         *prometheus.Desc
	rejected    *prometheus.Desc
	events      *prometheus.Desc
	latency     *prometheus.Desc
	connections *prometheus.Desc

	listed    *prometheus.Desc
	badges    *prometheus.Desc
	proceeds  *prometheus.Desc
	pending   *prometheus.Desc
	fees      *prometheus.Desc
	feeAmount *prometheus.Desc
}

// NewMetricsCollector builds a collector. balances may be nil.
func NewMetricsCollector(metrics *Metrics, balances domain.BalanceSource, market string) *MetricsCollector {
	labels := prometheus.Labels{"market": market}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "", name), help, variable, labels)
	}
	return &MetricsCollector{
		metrics:  metrics,
		balances: balances,

		ops:         desc("operations_total", "Successful market operations by kind.", "op"),
		rejected:    desc("rejected_total", "Market commands rejected with an error."),
		events:      desc("journal_events_total", "Events written to the journal."),
		latency:     desc("command_latency_avg_seconds", "Average command processing latency."),
		connections: desc("feed_connections", "Active event feed subscribers."),

		listed:    desc("listed_assets", "Assets held in custody under an active offer."),
		badges:    desc("live_badges", "Badges minted and not yet burned."),
		proceeds:  desc("proceeds_vault", "Currency held in the proceeds vault."),
		pending:   desc("pending_collection", "Sum of proceeds owed to badge holders."),
		fees:      desc("fee_vault", "Currency held in the fee treasury."),
		feeAmount: desc("fee_amount", "Tracked fee amount since the last sweep."),
	}
}

// Describe implements prometheus.Collector.
func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.ops, c.rejected, c.events, c.latency, c.connections,
		c.listed, c.badges, c.proceeds, c.pending, c.fees, c.feeAmount,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()
	for op, v := range map[string]uint64{
		domain.OpSell:        snap.Sells,
		domain.OpUpdate:      snap.Updates,
		domain.OpCancel:      snap.Cancels,
		domain.OpBuy:         snap.Buys,
		domain.OpCollect:     snap.Collects,
		domain.OpCollectFees: snap.FeeSweeps,
	} {
		ch <- prometheus.MustNewConstMetric(c.ops, prometheus.CounterValue, float64(v), op)
	}
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(snap.Rejected))
	ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(snap.EventsSaved))
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, float64(snap.AvgLatencyNs)/1e9)
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(snap.ActiveConnections))

	if c.balances == nil {
		return
	}
	bal := c.balances.Balances()
	ch <- prometheus.MustNewConstMetric(c.listed, prometheus.GaugeValue, float64(bal.ListedAssets))
	ch <- prometheus.MustNewConstMetric(c.badges, prometheus.GaugeValue, float64(bal.LiveBadges))
	ch <- prometheus.MustNewConstMetric(c.proceeds, prometheus.GaugeValue, bal.Proceeds.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, bal.Pending.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.fees, prometheus.GaugeValue, bal.Fees.InexactFloat64())
	ch <- prometheus.MustNewConstMetric(c.feeAmount, prometheus.GaugeValue, bal.FeeAmount.InexactFloat64())
}
