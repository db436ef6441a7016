package indexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRange(t *testing.T) {
	assert.Equal(t, []SubRange{{1, 100}}, SplitRange(1, 100, 500))
	assert.Equal(t, []SubRange{{1, 500}, {501, 1000}, {1001, 1001}}, SplitRange(1, 1001, 500))
	assert.Equal(t, []SubRange{{7, 7}}, SplitRange(7, 7, 500))
	assert.Nil(t, SplitRange(8, 7, 500))
	assert.Nil(t, SplitRange(1, 7, 0))

	top := ^uint64(0)
	assert.Equal(t, []SubRange{{top - 1, top}}, SplitRange(top-1, top, 500))
}

func TestSplitRange_CoversEveryHeightOnce(t *testing.T) {
	ranges := SplitRange(3, 4321, 500)
	next := uint64(3)
	for _, r := range ranges {
		require.Equal(t, next, r.Start)
		require.LessOrEqual(t, r.End-r.Start+1, uint64(500))
		next = r.End + 1
	}
	assert.Equal(t, uint64(4322), next)
}

func newTestScheduler(t *testing.T, chain *fakeChain, batchSize uint64, executeSize int) (*Scheduler, *Counters, testStores) {
	t.Helper()
	stores := newTestStores(t)
	counters := NewCounters()
	processor := NewProcessor("test", stores.records, nil, discardLogger())
	fetcher := NewFetcher(chain, 5, time.Millisecond, discardLogger())
	return NewScheduler(fetcher, processor, counters, batchSize, executeSize, discardLogger()), counters, stores
}

func TestIndexRange_SingleSubRange(t *testing.T) {
	chain := newFakeChain(1, 100)
	chain.txs[42] = [][]byte{sendTx(t, "A", "B", "uabc", "10")}
	s, counters, stores := newTestScheduler(t, chain, 500, 10)

	summary := s.IndexRange(context.Background(), 1, 100)
	assert.Equal(t, 1, summary.SubRanges)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(100), summary.Stats.Blocks)
	assert.Equal(t, uint64(1), summary.Stats.SendMsgs)
	assert.Equal(t, uint64(100), counters.Snapshot().Blocks)
	assert.Len(t, allKeys(t, stores.records), 1)
}

func TestIndexRange_BoundedWindows(t *testing.T) {
	chain := newFakeChain(1, 1000)
	chain.rangeLatency = 2 * time.Millisecond
	s, counters, _ := newTestScheduler(t, chain, 10, 4)

	summary := s.IndexRange(context.Background(), 1, 1000)
	assert.Equal(t, 100, summary.SubRanges)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(1000), counters.Snapshot().Blocks)

	chain.mu.Lock()
	defer chain.mu.Unlock()
	assert.LessOrEqual(t, chain.maxInFlight, 4)
	assert.Greater(t, chain.maxInFlight, 1)
}

func TestIndexRange_NextWindowWaitsForWholeWindow(t *testing.T) {
	chain := newFakeChain(1, 40)
	release := make(chan struct{})
	var mu sync.Mutex
	started := map[uint64]bool{}
	chain.onRange = func(start uint64) {
		mu.Lock()
		started[start] = true
		mu.Unlock()
		if start == 1 {
			<-release
		}
	}
	s, _, _ := newTestScheduler(t, chain, 10, 2)

	done := make(chan BatchSummary)
	go func() { done <- s.IndexRange(context.Background(), 1, 40) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return started[11]
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	assert.False(t, started[21], "second window opened before the first finished")
	mu.Unlock()

	close(release)
	summary := <-done
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(40), summary.Stats.Blocks)
}

func TestIndexRange_FailedSubRangeDoesNotStopOthers(t *testing.T) {
	chain := newFakeChain(1, 30)
	chain.rangeErrsAt[11] = 5
	s, counters, _ := newTestScheduler(t, chain, 10, 10)

	summary := s.IndexRange(context.Background(), 1, 30)
	assert.Equal(t, 3, summary.SubRanges)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, uint64(11), summary.FirstUnindexed)
	assert.Equal(t, uint64(20), summary.Stats.Blocks)
	assert.Equal(t, uint64(20), counters.Snapshot().Blocks)
}

func TestIndexRange_StopsAtTruncation(t *testing.T) {
	chain := newFakeChain(1, 55)
	s, _, _ := newTestScheduler(t, chain, 500, 10)

	summary := s.IndexRange(context.Background(), 1, 100)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, uint64(55), summary.Stats.Blocks)
}
