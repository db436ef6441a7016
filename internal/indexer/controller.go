package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/events"
	"github.com/fystack/payment-indexer/pkg/retry"
	"github.com/fystack/payment-indexer/pkg/store/checkpointstore"
	"github.com/fystack/payment-indexer/pkg/store/recordstore"
)

type Options struct {
	BatchSize      uint64
	ExecuteSize    int
	MaxRetries     int
	RetryDelay     time.Duration
	PollInterval   time.Duration
	FollowErrDelay time.Duration
	// SupervisorDelay is the first wait before retrying a failed bootstrap; it
	// doubles on every further failure.
	SupervisorDelay time.Duration
	TestMode        bool
	TestBlockLimit  uint64
	// AddressPrefix is the chain's bech32 prefix. Senders outside it are
	// still indexed but counted as foreign.
	AddressPrefix string
}

func (o *Options) applyDefaults() {
	if o.BatchSize == 0 {
		o.BatchSize = constant.DefaultBatchSize
	}
	if o.ExecuteSize <= 0 {
		o.ExecuteSize = constant.DefaultExecuteSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = constant.DefaultMaxRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = constant.DefaultRetryDelay
	}
	if o.PollInterval <= 0 {
		o.PollInterval = constant.DefaultPollInterval
	}
	if o.FollowErrDelay <= 0 {
		o.FollowErrDelay = constant.DefaultFollowErrDelay
	}
	if o.SupervisorDelay <= 0 {
		o.SupervisorDelay = time.Second
	}
	if o.TestMode && o.TestBlockLimit == 0 {
		o.TestBlockLimit = constant.DefaultTestBlockLimit
	}
}

// Controller drives bootstrap, bulk catch-up and the follow loop for one chain.
type Controller struct {
	chainName   string
	chain       ChainClient
	checkpoints checkpointstore.Store
	locator     *Locator
	scheduler   *Scheduler
	processor   *Processor
	counters    *Counters
	emitter     events.Emitter
	opts        Options
	logger      *slog.Logger
}

func NewController(
	chainName string,
	chain ChainClient,
	records recordstore.Store,
	checkpoints checkpointstore.Store,
	emitter events.Emitter,
	counters *Counters,
	opts Options,
	logger *slog.Logger,
) *Controller {
	opts.applyDefaults()
	if counters == nil {
		counters = NewCounters()
	}
	if emitter == nil {
		emitter = events.NewNoopEmitter()
	}
	logger = logger.With("chain", chainName)

	processor := NewProcessor(chainName, records, emitter, logger.With("component", "processor"))
	processor.addressPrefix = opts.AddressPrefix
	fetcher := NewFetcher(chain, opts.MaxRetries, opts.RetryDelay, logger.With("component", "fetcher"))
	return &Controller{
		chainName:   chainName,
		chain:       chain,
		checkpoints: checkpoints,
		locator:     NewLocator(chain, logger.With("component", "locator")),
		scheduler:   NewScheduler(fetcher, processor, counters, opts.BatchSize, opts.ExecuteSize, logger.With("component", "scheduler")),
		processor:   processor,
		counters:    counters,
		emitter:     emitter,
		opts:        opts,
		logger:      logger,
	}
}

func (c *Controller) Counters() *Counters { return c.counters }

// Run catches up to the tip and then follows the chain until ctx is done.
// A failed bootstrap or catch-up is retried with a doubling delay, forever.
func (c *Controller) Run(ctx context.Context) error {
	err := retry.Exponential(ctx, func() error {
		start, end, err := c.Bootstrap(ctx)
		if err != nil {
			return err
		}
		return c.CatchUp(ctx, start, end)
	}, retry.ExponentialConfig{
		InitialInterval: c.opts.SupervisorDelay,
		OnRetry: func(err error, next time.Duration) {
			c.logger.Error("Bootstrap failed, backing off", "err", err, "retry_in", next)
			c.emitError(ctx, err)
		},
	})
	if err != nil {
		return err
	}
	return c.Follow(ctx)
}

func (c *Controller) emitError(ctx context.Context, err error) {
	if eErr := c.emitter.EmitError(ctx, c.chainName, err); eErr != nil {
		c.logger.Warn("Emit error event failed", "err", eErr)
	}
}

// latestHeight queries the tip, retrying failures and idle answers.
func (c *Controller) latestHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := retry.Constant(ctx, func() error {
		status, err := c.chain.ChainStatus(ctx)
		if err != nil {
			c.logger.Warn("Chain status failed", "err", err)
			return err
		}
		if !status.Moving {
			c.logger.Warn("Chain is idle", "height", status.Height)
			return ErrChainIdle
		}
		height = status.Height
		return nil
	}, c.opts.RetryDelay, c.opts.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("latest height: %w", err)
	}
	return height, nil
}

// Bootstrap resolves the inclusive height span the bulk pass must cover. The
// span is empty (start > end) when the checkpoint is already at the tip.
func (c *Controller) Bootstrap(ctx context.Context) (start, end uint64, err error) {
	tip, err := c.latestHeight(ctx)
	if err != nil {
		return 0, 0, err
	}

	checkpoint, found, err := c.checkpoints.Load()
	if err != nil {
		return 0, 0, err
	}
	if found {
		start = checkpoint + 1
	} else {
		start, err = c.locator.FindEarliest(ctx, 0, tip)
		if err != nil {
			return 0, 0, fmt.Errorf("find earliest block: %w", err)
		}
	}

	// Test mode indexes at most TestBlockLimit heights starting at start.
	end = tip
	if c.opts.TestMode && start+c.opts.TestBlockLimit-1 < end {
		end = start + c.opts.TestBlockLimit - 1
	}
	c.logger.Info("Bootstrapped",
		"tip", tip, "start", start, "end", end, "checkpoint_found", found, "test_mode", c.opts.TestMode)
	return start, end, nil
}

// CatchUp indexes [start, end] with the batch scheduler and checkpoints end.
// When a sub-range fails the checkpoint stops below the first unindexed
// height and ErrIncompleteCatchUp is returned.
func (c *Controller) CatchUp(ctx context.Context, start, end uint64) error {
	if start > end {
		c.logger.Info("Already caught up", "start", start, "end", end)
		return nil
	}

	began := time.Now()
	summary := c.scheduler.IndexRange(ctx, start, end)
	if err := ctx.Err(); err != nil {
		return err
	}

	if summary.Failed > 0 {
		checkpoint := summary.FirstUnindexed - 1
		if err := c.checkpoints.Save(checkpoint); err != nil {
			return err
		}
		return fmt.Errorf("%w: %d of %d sub-ranges failed, resuming from %d",
			ErrIncompleteCatchUp, summary.Failed, summary.SubRanges, summary.FirstUnindexed)
	}

	if err := c.checkpoints.Save(end); err != nil {
		return err
	}
	c.logger.Info("Catch-up complete",
		"blocks", summary.Stats.Blocks,
		"transactions", summary.Stats.Transactions,
		"send_msgs", summary.Stats.SendMsgs,
		"transfer_msgs", summary.Stats.TransferMsgs,
		"transfer_txs", summary.Stats.TransferTxs,
		"malformed_txs", summary.Stats.MalformedTxs,
		"elapsed_seconds", int64(time.Since(began).Seconds()),
	)
	return nil
}

// Follow polls the tip and indexes new heights one at a time until ctx is done.
func (c *Controller) Follow(ctx context.Context) error {
	c.logger.Info("Following chain", "poll_interval", c.opts.PollInterval)
	for {
		delay := c.opts.PollInterval
		if err := c.FollowOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Follow iteration failed", "err", err, "retry_in", c.opts.FollowErrDelay)
			c.emitError(ctx, err)
			delay = c.opts.FollowErrDelay
		}
		if err := retry.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// FollowOnce indexes every height between the checkpoint and the tip. It stops
// at the first height that cannot be fetched or processed so that height is
// retried on the next pass; the checkpoint covers only what was indexed.
func (c *Controller) FollowOnce(ctx context.Context) error {
	checkpoint, found, err := c.checkpoints.Load()
	if err != nil {
		return err
	}
	tip, err := c.latestHeight(ctx)
	if err != nil {
		return err
	}
	if !found {
		c.logger.Warn("No checkpoint, starting follow at tip", "tip", tip)
		return c.checkpoints.Save(tip)
	}
	if tip <= checkpoint {
		return nil
	}

	last := checkpoint
	for h := checkpoint + 1; h <= tip; h++ {
		if !c.followHeight(ctx, h) {
			break
		}
		last = h
	}
	if last == checkpoint {
		return nil
	}
	return c.checkpoints.Save(last)
}

func (c *Controller) followHeight(ctx context.Context, height uint64) bool {
	block, err := c.chain.GetBlock(ctx, height)
	if err != nil {
		c.logger.Error("Fetch block failed", "height", height, "err", err)
		return false
	}
	if block == nil {
		c.logger.Warn("Block not available yet", "height", height)
		return false
	}

	stats, err := c.processor.ProcessBlock(ctx, *block)
	c.counters.Add(stats)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Error("Process block failed", "height", height, "err", err)
		}
		return false
	}
	c.logger.Info("Indexed block",
		"height", height,
		"txs", stats.Transactions,
		"send_msgs", stats.SendMsgs,
		"transfer_msgs", stats.TransferMsgs,
	)
	return true
}
