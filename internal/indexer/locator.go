package indexer

import (
	"context"
	"fmt"
	"log/slog"
)

type Locator struct {
	chain  ChainClient
	logger *slog.Logger
}

func NewLocator(chain ChainClient, logger *slog.Logger) *Locator {
	return &Locator{chain: chain, logger: logger}
}

// FindEarliest returns the smallest height in (low, high] the node holds, given
// low is absent (or 0) and high is present. Availability must be monotonic.
// Query errors abort the search.
func (l *Locator) FindEarliest(ctx context.Context, low, high uint64) (uint64, error) {
	if high <= low {
		return high, nil
	}
	probes := 0
	for high-low > 1 {
		mid := low + (high-low)/2
		block, err := l.chain.GetBlock(ctx, mid)
		if err != nil {
			return 0, fmt.Errorf("probe height %d: %w", mid, err)
		}
		probes++
		if block != nil {
			high = mid
		} else {
			low = mid
		}
		l.logger.Debug("Probed height", "height", mid, "present", block != nil, "low", low, "high", high)
	}
	l.logger.Info("Located earliest block", "height", low+1, "probes", probes)
	return low + 1, nil
}
