package metrics

import (
	"github.com/fystack/payment-indexer/internal/indexer"
	"github.com/fystack/payment-indexer/pkg/store/checkpointstore"
	"github.com/prometheus/client_golang/prometheus"
)

// StatsSource is anything that can report running ingestion totals.
type StatsSource interface {
	Snapshot() indexer.Stats
}

// Collector exposes the ingestion counters and the checkpoint as Prometheus
// metrics. Values are read on every scrape.
type Collector struct {
	stats       StatsSource
	checkpoints checkpointstore.Store

	blocks          *prometheus.Desc
	transactions    *prometheus.Desc
	messages        *prometheus.Desc
	sendMsgs        *prometheus.Desc
	transferMsgs    *prometheus.Desc
	transferTxs     *prometheus.Desc
	skippedMessages *prometheus.Desc
	malformedTxs    *prometheus.Desc
	foreignSenders  *prometheus.Desc
	sendVolume      *prometheus.Desc
	checkpoint      *prometheus.Desc
}

// NewCollector builds a collector labelled with chain. checkpoints may be nil.
func NewCollector(chain string, stats StatsSource, checkpoints checkpointstore.Store) *Collector {
	labels := prometheus.Labels{"chain": chain}
	desc := func(name, help string, variable ...string) *prometheus.Desc {
		return prometheus.NewDesc("payment_indexer_"+name, help, variable, labels)
	}
	return &Collector{
		stats:       stats,
		checkpoints: checkpoints,

		blocks:          desc("blocks_total", "Blocks processed since start"),
		transactions:    desc("transactions_total", "Transactions processed since start"),
		messages:        desc("messages_total", "Messages seen since start"),
		sendMsgs:        desc("send_messages_total", "Bank send messages persisted since start"),
		transferMsgs:    desc("transfer_messages_total", "IBC transfer messages persisted since start"),
		transferTxs:     desc("transfer_transactions_total", "Transactions containing at least one IBC transfer"),
		skippedMessages: desc("skipped_messages_total", "Messages skipped because they could not be decoded"),
		malformedTxs:    desc("malformed_transactions_total", "Transactions skipped because the envelope or body could not be decoded"),
		foreignSenders:  desc("foreign_sender_messages_total", "Persisted messages whose sender lacks the chain address prefix"),
		sendVolume:      desc("send_volume", "Sum of bank send amounts per denom since start", "denom"),
		checkpoint:      desc("checkpoint_height", "Last fully indexed height"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.blocks
	ch <- c.transactions
	ch <- c.messages
	ch <- c.sendMsgs
	ch <- c.transferMsgs
	ch <- c.transferTxs
	ch <- c.skippedMessages
	ch <- c.malformedTxs
	ch <- c.foreignSenders
	ch <- c.sendVolume
	ch <- c.checkpoint
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.blocks, s.Blocks)
	counter(c.transactions, s.Transactions)
	counter(c.messages, s.Messages)
	counter(c.sendMsgs, s.SendMsgs)
	counter(c.transferMsgs, s.TransferMsgs)
	counter(c.transferTxs, s.TransferTxs)
	counter(c.skippedMessages, s.SkippedMessages)
	counter(c.malformedTxs, s.MalformedTxs)
	counter(c.foreignSenders, s.ForeignSenders)

	for denom, amount := range s.SendVolume {
		ch <- prometheus.MustNewConstMetric(c.sendVolume, prometheus.GaugeValue, amount.InexactFloat64(), denom)
	}

	if c.checkpoints == nil {
		return
	}
	if height, found, err := c.checkpoints.Load(); err == nil && found {
		ch <- prometheus.MustNewConstMetric(c.checkpoint, prometheus.GaugeValue, float64(height))
	}
}
