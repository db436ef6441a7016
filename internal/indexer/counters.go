package indexer

import (
	"maps"
	"sync"

	"github.com/shopspring/decimal"
)

// Stats are ingestion totals for some unit of work: a block, a sub-range, a
// window or the whole process.
type Stats struct {
	Blocks          uint64
	Transactions    uint64
	Messages        uint64
	SendMsgs        uint64
	TransferMsgs    uint64
	TransferTxs     uint64
	SkippedMessages uint64
	MalformedTxs    uint64
	// ForeignSenders counts persisted messages whose sender lacks the chain's
	// address prefix.
	ForeignSenders uint64
	// SendVolume sums send amounts per denom.
	SendVolume map[string]decimal.Decimal
}

func (s *Stats) Add(o Stats) {
	s.Blocks += o.Blocks
	s.Transactions += o.Transactions
	s.Messages += o.Messages
	s.SendMsgs += o.SendMsgs
	s.TransferMsgs += o.TransferMsgs
	s.TransferTxs += o.TransferTxs
	s.SkippedMessages += o.SkippedMessages
	s.MalformedTxs += o.MalformedTxs
	s.ForeignSenders += o.ForeignSenders
	for denom, amount := range o.SendVolume {
		s.addVolume(denom, amount)
	}
}

func (s *Stats) addVolume(denom string, amount decimal.Decimal) {
	if s.SendVolume == nil {
		s.SendVolume = make(map[string]decimal.Decimal)
	}
	s.SendVolume[denom] = s.SendVolume[denom].Add(amount)
}

func (s Stats) clone() Stats {
	s.SendVolume = maps.Clone(s.SendVolume)
	return s
}

// Counters is the process-lifetime aggregate shared by concurrent tasks.
// It is not persisted.
type Counters struct {
	mu    sync.Mutex
	total Stats
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) Add(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total.Add(s)
}

func (c *Counters) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total.clone()
}
