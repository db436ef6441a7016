package cosmos

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNode serves /status and /block like a pruned CometBFT node holding
// heights [base, tip].
type fakeNode struct {
	base, tip  uint64
	catchingUp bool
	failBlock  uint64
	requests   atomic.Int64
}

func (n *fakeNode) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":-1,"result":{"sync_info":{"latest_block_height":"%d","catching_up":%t}}}`,
			n.tip, n.catchingUp)
	})
	mux.HandleFunc("/block", func(w http.ResponseWriter, r *http.Request) {
		n.requests.Add(1)
		h, err := strconv.ParseUint(r.URL.Query().Get("height"), 10, 64)
		if err != nil {
			http.Error(w, "bad height", http.StatusBadRequest)
			return
		}
		switch {
		case h == n.failBlock:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream unavailable"))
		case h < n.base:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":-1,"error":{"code":-32603,"message":"Internal error","data":"height %d is not available, lowest height is %d"}}`, h, n.base)
		case h > n.tip:
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":-1,"error":{"code":-32603,"message":"Internal error","data":"height %d must be less than or equal to the current blockchain height %d"}}`, h, n.tip)
		default:
			tx := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("tx-%d", h)))
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":-1,"result":{"block_id":{"hash":"AA"},"block":{"header":{"chain_id":"test","height":"%d","time":"2023-11-14T22:13:20.123456789Z"},"data":{"txs":["%s"]}}}}`, h, tx)
		}
	})
	return mux
}

func newTestClient(t *testing.T, node *fakeNode, pageSize int) *Client {
	t.Helper()
	srv := httptest.NewServer(node.handler())
	t.Cleanup(srv.Close)
	return NewCosmosClient(srv.URL, nil, Options{Timeout: time.Second, RangePageSize: pageSize, RangeParallel: 3}, nil)
}

func TestChainStatus(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 1, tip: 120}, 0)
	status, err := c.ChainStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Moving)
	assert.Equal(t, uint64(120), status.Height)
}

func TestChainStatus_CatchingUpIsIdle(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 1, tip: 120, catchingUp: true}, 0)
	status, err := c.ChainStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Moving)
}

func TestGetBlock(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 10, tip: 50}, 0)

	block, err := c.GetBlock(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(42), block.Height)
	assert.Equal(t, int64(1700000000), block.Timestamp)
	require.Len(t, block.Txs, 1)
	assert.Equal(t, []byte("tx-42"), block.Txs[0])
}

func TestGetBlock_AbsentHeights(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 10, tip: 50}, 0)

	block, err := c.GetBlock(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, block)

	block, err = c.GetBlock(context.Background(), 51)
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestGetBlock_TransportErrorIsNotAbsent(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 10, tip: 50, failBlock: 20}, 0)
	_, err := c.GetBlock(context.Background(), 20)
	assert.Error(t, err)
}

func TestGetBlockRange_Page(t *testing.T) {
	node := &fakeNode{base: 1, tip: 100}
	c := newTestClient(t, node, 5)

	blocks, err := c.GetBlockRange(context.Background(), 10, 40)
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	for i, b := range blocks {
		assert.Equal(t, uint64(10+i), b.Height)
	}
	assert.Equal(t, int64(5), node.requests.Load())
}

func TestGetBlockRange_StopsAtEnd(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 1, tip: 100}, 20)

	blocks, err := c.GetBlockRange(context.Background(), 98, 99)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, uint64(99), blocks[1].Height)

	blocks, err = c.GetBlockRange(context.Background(), 5, 4)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestGetBlockRange_TruncatesAtTip(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 1, tip: 100}, 20)

	blocks, err := c.GetBlockRange(context.Background(), 95, 200)
	require.NoError(t, err)
	require.Len(t, blocks, 6)
	assert.Equal(t, uint64(100), blocks[len(blocks)-1].Height)

	blocks, err = c.GetBlockRange(context.Background(), 150, 200)
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestGetBlockRange_FailsOnError(t *testing.T) {
	c := newTestClient(t, &fakeNode{base: 1, tip: 100, failBlock: 12}, 20)
	_, err := c.GetBlockRange(context.Background(), 10, 30)
	assert.Error(t, err)
}
