package indexer

import (
	"context"
	"errors"

	"github.com/fystack/payment-indexer/pkg/common/types"
)

var (
	ErrChainIdle         = errors.New("chain is not producing blocks")
	ErrRetriesExhausted  = errors.New("retries exhausted")
	ErrIncompleteCatchUp = errors.New("catch-up left unindexed heights")
)

// ChainClient is the node query surface the indexer consumes.
type ChainClient interface {
	ChainStatus(ctx context.Context) (types.ChainStatus, error)
	// GetBlock returns (nil, nil) when the node does not hold height.
	GetBlock(ctx context.Context, height uint64) (*types.Block, error)
	// GetBlockRange returns consecutive blocks from start, possibly fewer than
	// requested, in ascending order.
	GetBlockRange(ctx context.Context, start, end uint64) ([]types.Block, error)
}
