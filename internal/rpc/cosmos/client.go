package cosmos

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fystack/payment-indexer/internal/rpc"
	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/ratelimiter"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Timeout       time.Duration
	RangePageSize int
	RangeParallel int
}

type Client struct {
	base          *rpc.BaseClient
	rangePageSize uint64
	rangeParallel int
}

func NewCosmosClient(
	baseURL string,
	auth *rpc.AuthConfig,
	opts Options,
	rl *ratelimiter.RateLimiter,
) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = constant.DefaultRequestTimeout
	}
	if opts.RangePageSize <= 0 {
		opts.RangePageSize = constant.DefaultRangePageSize
	}
	if opts.RangeParallel <= 0 {
		opts.RangeParallel = constant.DefaultRangeParallel
	}
	return &Client{
		base:          rpc.NewBaseClient(baseURL, auth, opts.Timeout, rl),
		rangePageSize: uint64(opts.RangePageSize),
		rangeParallel: opts.RangeParallel,
	}
}

func (c *Client) Close() error { return c.base.Close() }

// ChainStatus reports the latest height. A node that is catching up or has no
// blocks yet is reported as not moving.
func (c *Client) ChainStatus(ctx context.Context) (types.ChainStatus, error) {
	result, err := getResponse[StatusResponse](ctx, c, "/status", nil)
	if err != nil {
		return types.ChainStatus{}, err
	}
	height, err := strconv.ParseUint(result.SyncInfo.LatestBlockHeight, 10, 64)
	if err != nil {
		return types.ChainStatus{}, fmt.Errorf("invalid latest block height: %w", err)
	}
	return types.ChainStatus{
		Moving: !result.SyncInfo.CatchingUp && height > 0,
		Height: height,
	}, nil
}

// GetBlock returns (nil, nil) when the node does not hold the height, either
// because it was pruned or because it is beyond the tip.
func (c *Client) GetBlock(ctx context.Context, height uint64) (*types.Block, error) {
	result, err := getResponse[BlockResponse](ctx, c, "/block", map[string]string{
		"height": strconv.FormatUint(height, 10),
	})
	if err != nil {
		if isHeightUnavailable(err) {
			return nil, nil
		}
		return nil, err
	}
	return convertBlock(result)
}

// GetBlockRange fetches up to one page of consecutive heights starting at start
// and never past end. The result is ascending and stops before the first height
// the node does not hold.
func (c *Client) GetBlockRange(ctx context.Context, start, end uint64) ([]types.Block, error) {
	if start > end {
		return nil, nil
	}
	count := end - start + 1
	if count > c.rangePageSize {
		count = c.rangePageSize
	}

	blocks := make([]*types.Block, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.rangeParallel)
	for i := uint64(0); i < count; i++ {
		i := i
		g.Go(func() error {
			block, err := c.GetBlock(gctx, start+i)
			if err != nil {
				return fmt.Errorf("get block %d: %w", start+i, err)
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]types.Block, 0, count)
	for _, b := range blocks {
		if b == nil {
			break
		}
		out = append(out, *b)
	}
	return out, nil
}

func convertBlock(resp *BlockResponse) (*types.Block, error) {
	height, err := strconv.ParseUint(resp.Block.Header.Height, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid block height %q: %w", resp.Block.Header.Height, err)
	}
	ts, err := parseBlockTime(resp.Block.Header.Time)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}

	txs := make([][]byte, 0, len(resp.Block.Data.Txs))
	for i, encoded := range resp.Block.Data.Txs {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			raw, err = base64.RawStdEncoding.DecodeString(encoded)
		}
		if err != nil {
			return nil, fmt.Errorf("block %d tx %d: invalid base64: %w", height, i, err)
		}
		txs = append(txs, raw)
	}

	return &types.Block{Height: height, Timestamp: ts, Txs: txs}, nil
}

func parseBlockTime(raw string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, fmt.Errorf("invalid block time %q: %w", raw, err)
	}
	return t.Unix(), nil
}

func isHeightUnavailable(err error) bool {
	var rpcErr *rpc.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	msg := strings.ToLower(rpcErr.Error())
	return strings.Contains(msg, "not available") ||
		strings.Contains(msg, "lowest height") ||
		strings.Contains(msg, "must be less than or equal to") ||
		strings.Contains(msg, "could not find block")
}

func getResponse[T any](
	ctx context.Context,
	client *Client,
	endpoint string,
	params map[string]string,
) (*T, error) {
	raw, err := client.base.Do(ctx, http.MethodGet, endpoint, nil, params)
	if err != nil {
		// CometBFT returns JSON-RPC errors with HTTP 500.
		var httpErr *rpc.HTTPError
		if errors.As(err, &httpErr) {
			var response rpc.RPCResponse
			if json.Unmarshal(httpErr.Body, &response) == nil && response.Error != nil {
				return nil, fmt.Errorf("%s failed: %w", endpoint, response.Error)
			}
		}
		return nil, err
	}

	var response rpc.RPCResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	if response.Error != nil {
		return nil, fmt.Errorf("%s failed: %w", endpoint, response.Error)
	}
	if len(response.Result) == 0 {
		return nil, fmt.Errorf("%s returned empty result", endpoint)
	}

	var result T
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", endpoint, err)
	}
	return &result, nil
}
