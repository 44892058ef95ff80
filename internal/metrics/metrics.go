package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the stats pipeline.
type Metrics struct {
	EventsConsumed     *prometheus.CounterVec
	EventsDeduplicated prometheus.Counter
	BatchesFlushed     prometheus.Counter
	FlushDuration      prometheus.Histogram
	CampaignTxFailures prometheus.Counter
	DeadLetters        prometheus.Counter
	SnapshotsUpdated   *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	PoolOverflow       prometheus.Counter
}

// New creates and registers all metrics against the given registerer.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_consumed_total",
				Help:      "Confirmed payment events accepted from the feed",
			},
			[]string{"driver"},
		),
		EventsDeduplicated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_deduplicated_total",
				Help:      "Events skipped because their payment id was already processed",
			},
		),
		BatchesFlushed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_flushed_total",
				Help:      "Accumulator flush cycles completed",
			},
		),
		FlushDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flush_duration_seconds",
				Help:      "Wall time of one accumulator flush",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CampaignTxFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "campaign_tx_failures_total",
				Help:      "Per-campaign transactions rolled back",
			},
		),
		DeadLetters: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dead_letters_total",
				Help:      "Events written to the dead-letter table",
			},
		),
		SnapshotsUpdated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_updated_total",
				Help:      "Daily snapshot rows written, by entity kind",
			},
			[]string{"kind"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Events buffered in the accumulator",
			},
		),
		PoolOverflow: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_pool_overflow_total",
				Help:      "Ad hoc sessions opened because the pool was empty",
			},
		),
	}
}
