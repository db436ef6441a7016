package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/retry"
)

type Fetcher struct {
	chain      ChainClient
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewFetcher(chain ChainClient, maxRetries int, retryDelay time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{chain: chain, maxRetries: maxRetries, retryDelay: retryDelay, logger: logger}
}

// FetchRange makes up to maxRetries consecutive attempts at one GetBlockRange
// call. next is one past the highest height returned, or start when nothing was.
func (f *Fetcher) FetchRange(ctx context.Context, start, end uint64) ([]types.Block, uint64, error) {
	if start > end {
		return nil, start, nil
	}

	var blocks []types.Block
	attempt := 0
	err := retry.Constant(ctx, func() error {
		attempt++
		b, err := f.chain.GetBlockRange(ctx, start, end)
		if err != nil {
			f.logger.Warn("Fetch block range failed",
				"start", start, "end", end, "attempt", attempt, "max_attempts", f.maxRetries, "err", err)
			return err
		}
		blocks = b
		return nil
	}, f.retryDelay, f.maxRetries)
	if err != nil {
		if ctx.Err() != nil {
			return nil, start, ctx.Err()
		}
		return nil, start, fmt.Errorf("%w: blocks %d-%d: %v", ErrRetriesExhausted, start, end, err)
	}

	if len(blocks) == 0 {
		return nil, start, nil
	}
	return blocks, blocks[len(blocks)-1].Height + 1, nil
}
