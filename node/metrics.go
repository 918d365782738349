package node

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "operator"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Last committed child block number.
	Height metrics.Gauge
	// Number of transactions in the last block.
	NumTxs metrics.Gauge
	// Total number of transactions committed.
	TotalTxs metrics.Counter
	// Transactions dropped by the miner.
	DroppedTxs metrics.Counter
	// Pending transactions waiting for the miner.
	QueueSize metrics.Gauge
	// Last fully ingested external ledger block.
	LedgerCheckpoint metrics.Gauge
	// Last header confirmed by the ledger.
	SubmittedHeight metrics.Gauge
	// Deposits staged for inclusion.
	Deposits metrics.Counter
	// Exits applied to the withdrawal index.
	Exits metrics.Counter
	// 1 while header submission is paused on a desync.
	BridgeDesync metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Last committed child block number.",
		}, labels).With(labelsAndValues...),
		NumTxs: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "num_txs",
			Help:      "Number of transactions in the last block.",
		}, labels).With(labelsAndValues...),
		TotalTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "total_txs",
			Help:      "Total number of transactions committed.",
		}, labels).With(labelsAndValues...),
		DroppedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "dropped_txs",
			Help:      "Transactions dropped by the miner.",
		}, labels).With(labelsAndValues...),
		QueueSize: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "queue_size",
			Help:      "Pending transactions waiting for the miner.",
		}, labels).With(labelsAndValues...),
		LedgerCheckpoint: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "ledger_checkpoint",
			Help:      "Last fully ingested external ledger block.",
		}, labels).With(labelsAndValues...),
		SubmittedHeight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submitted_height",
			Help:      "Last header confirmed by the ledger.",
		}, labels).With(labelsAndValues...),
		Deposits: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "deposits",
			Help:      "Deposits staged for inclusion.",
		}, labels).With(labelsAndValues...),
		Exits: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "exits",
			Help:      "Exits applied to the withdrawal index.",
		}, labels).With(labelsAndValues...),
		BridgeDesync: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "bridge_desync",
			Help:      "1 while header submission is paused on a desync.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Height:           discard.NewGauge(),
		NumTxs:           discard.NewGauge(),
		TotalTxs:         discard.NewCounter(),
		DroppedTxs:       discard.NewCounter(),
		QueueSize:        discard.NewGauge(),
		LedgerCheckpoint: discard.NewGauge(),
		SubmittedHeight:  discard.NewGauge(),
		Deposits:         discard.NewCounter(),
		Exits:            discard.NewCounter(),
		BridgeDesync:     discard.NewGauge(),
	}
}
