package indexer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// SubRange is an inclusive height interval handled by one task.
type SubRange struct {
	Start uint64
	End   uint64
}

// SplitRange cuts [start, end] into consecutive sub-ranges of at most size heights.
func SplitRange(start, end, size uint64) []SubRange {
	if start > end || size == 0 {
		return nil
	}
	var out []SubRange
	for s := start; ; s += size {
		e := s + size - 1
		if e >= end || e < s {
			out = append(out, SubRange{Start: s, End: end})
			return out
		}
		out = append(out, SubRange{Start: s, End: e})
	}
}

// BatchSummary describes one IndexRange pass.
type BatchSummary struct {
	SubRanges int
	Failed    int
	// FirstUnindexed is the lowest height a failed task did not reach. Only
	// meaningful when Failed > 0.
	FirstUnindexed uint64
	Stats          Stats
}

type taskResult struct {
	stats  Stats
	failed bool
	resume uint64
}

type Scheduler struct {
	fetcher     *Fetcher
	processor   *Processor
	counters    *Counters
	batchSize   uint64
	executeSize int
	logger      *slog.Logger
}

func NewScheduler(fetcher *Fetcher, processor *Processor, counters *Counters, batchSize uint64, executeSize int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		fetcher:     fetcher,
		processor:   processor,
		counters:    counters,
		batchSize:   batchSize,
		executeSize: executeSize,
		logger:      logger,
	}
}

// IndexRange indexes [start, end] in windows of executeSize concurrent
// sub-range tasks. A window opens only after the previous one has fully
// completed; its stats reach the shared counters in a single update.
func (s *Scheduler) IndexRange(ctx context.Context, start, end uint64) BatchSummary {
	ranges := SplitRange(start, end, s.batchSize)
	summary := BatchSummary{SubRanges: len(ranges)}

	for i := 0; i < len(ranges) && ctx.Err() == nil; i += s.executeSize {
		window := ranges[i:min(i+s.executeSize, len(ranges))]
		results := make([]taskResult, len(window))

		began := time.Now()
		var g errgroup.Group
		for j, r := range window {
			j, r := j, r
			g.Go(func() error {
				results[j] = s.runTask(ctx, r)
				return nil
			})
		}
		_ = g.Wait()

		var windowStats Stats
		failed := 0
		for _, res := range results {
			windowStats.Add(res.stats)
			if !res.failed {
				continue
			}
			failed++
			if summary.Failed == 0 || res.resume < summary.FirstUnindexed {
				summary.FirstUnindexed = res.resume
			}
			summary.Failed++
		}
		s.counters.Add(windowStats)
		summary.Stats.Add(windowStats)

		s.logger.Info("Indexed window",
			"from", window[0].Start,
			"to", window[len(window)-1].End,
			"tasks", len(window),
			"failed", failed,
			"blocks", windowStats.Blocks,
			"txs", windowStats.Transactions,
			"send_msgs", windowStats.SendMsgs,
			"transfer_msgs", windowStats.TransferMsgs,
			"elapsed", time.Since(began).Round(time.Millisecond),
		)
	}
	return summary
}

// runTask fetches and processes r page by page until it is exhausted, the node
// has nothing more, or a page cannot be fetched.
func (s *Scheduler) runTask(ctx context.Context, r SubRange) taskResult {
	var res taskResult
	cur := r.Start
	for cur <= r.End {
		blocks, next, err := s.fetcher.FetchRange(ctx, cur, r.End)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				s.logger.Error("Sub-range failed", "start", r.Start, "end", r.End, "stopped_at", cur, "err", err)
			}
			res.failed, res.resume = true, cur
			return res
		}
		if len(blocks) == 0 {
			s.logger.Warn("Node returned no blocks, ending sub-range early", "start", r.Start, "end", r.End, "stopped_at", cur)
			return res
		}
		for _, block := range blocks {
			stats, err := s.processor.ProcessBlock(ctx, block)
			res.stats.Add(stats)
			if err != nil {
				s.logger.Error("Process block failed", "height", block.Height, "err", err)
				res.failed, res.resume = true, block.Height
				return res
			}
		}
		if next <= cur {
			return res
		}
		cur = next
	}
	return res
}
