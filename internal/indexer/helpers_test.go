package indexer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fystack/payment-indexer/internal/codec"
	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/infra"
	"github.com/fystack/payment-indexer/pkg/kvstore"
	"github.com/fystack/payment-indexer/pkg/store/checkpointstore"
	"github.com/fystack/payment-indexer/pkg/store/recordstore"
	"github.com/stretchr/testify/require"
)

var errNode = errors.New("node unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChain holds heights [base, tip]. Range calls return pages of at most
// pageSize blocks.
type fakeChain struct {
	mu       sync.Mutex
	base     uint64
	tip      uint64
	idle     bool
	pageSize uint64
	txs      map[uint64][][]byte

	statusErrs   int
	rangeErrs    int
	rangeErrsAt  map[uint64]int
	blockErrAt   map[uint64]bool
	onRange      func(start uint64)
	getCalls     []uint64
	rangeCalls   int
	inFlight     int
	maxInFlight  int
	rangeLatency time.Duration
}

func newFakeChain(base, tip uint64) *fakeChain {
	return &fakeChain{
		base:        base,
		tip:         tip,
		pageSize:    constant.DefaultRangePageSize,
		txs:         make(map[uint64][][]byte),
		rangeErrsAt: make(map[uint64]int),
		blockErrAt:  make(map[uint64]bool),
	}
}

func (f *fakeChain) block(h uint64) *types.Block {
	if h < f.base || h > f.tip || h == 0 {
		return nil
	}
	return &types.Block{Height: h, Timestamp: 1700000000 + int64(h), Txs: f.txs[h]}
}

func (f *fakeChain) setTip(tip uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tip = tip
}

func (f *fakeChain) ChainStatus(context.Context) (types.ChainStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErrs > 0 {
		f.statusErrs--
		return types.ChainStatus{}, errNode
	}
	return types.ChainStatus{Moving: !f.idle, Height: f.tip}, nil
}

func (f *fakeChain) GetBlock(_ context.Context, height uint64) (*types.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls = append(f.getCalls, height)
	if f.blockErrAt[height] {
		return nil, errNode
	}
	return f.block(height), nil
}

func (f *fakeChain) GetBlockRange(_ context.Context, start, end uint64) ([]types.Block, error) {
	f.mu.Lock()
	f.rangeCalls++
	f.inFlight++
	f.maxInFlight = max(f.maxInFlight, f.inFlight)
	hook, latency := f.onRange, f.rangeLatency
	f.mu.Unlock()

	if hook != nil {
		hook(start)
	}
	if latency > 0 {
		time.Sleep(latency)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	if f.rangeErrs > 0 {
		f.rangeErrs--
		return nil, errNode
	}
	if f.rangeErrsAt[start] > 0 {
		f.rangeErrsAt[start]--
		return nil, errNode
	}

	var out []types.Block
	for h := start; h <= end && uint64(len(out)) < f.pageSize; h++ {
		b := f.block(h)
		if b == nil {
			break
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeChain) calls() (get []uint64, ranges int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.getCalls...), f.rangeCalls
}

func sendTx(t testing.TB, from, to, denom, amount string) []byte {
	t.Helper()
	msg := codec.MsgSend{FromAddress: from, ToAddress: to, Amount: []codec.Coin{{Denom: denom, Amount: amount}}}
	return wrapTx(codec.Any{TypeURL: constant.TypeURLMsgSend, Value: msg.Marshal()})
}

func transferTx(t testing.TB, sender, receiver, denom, amount string) []byte {
	t.Helper()
	msg := codec.MsgTransfer{
		SourcePort:       "transfer",
		SourceChannel:    "channel-0",
		Token:            &codec.Coin{Denom: denom, Amount: amount},
		Sender:           sender,
		Receiver:         receiver,
		TimeoutHeight:    &codec.Height{RevisionNumber: 1, RevisionHeight: 500},
		TimeoutTimestamp: 1700000000000000000,
	}
	return wrapTx(codec.Any{TypeURL: constant.TypeURLMsgTransfer, Value: msg.Marshal()})
}

func wrapTx(msgs ...codec.Any) []byte {
	body := codec.TxBody{Messages: msgs}
	return codec.TxRaw{BodyBytes: body.Marshal(), Signatures: [][]byte{{0x01}}}.Marshal()
}

type testStores struct {
	kv          infra.KVStore
	records     recordstore.Store
	checkpoints checkpointstore.Store
}

func newTestStores(t *testing.T) testStores {
	t.Helper()
	kv, err := kvstore.NewBadgerStore(t.TempDir(), "", infra.JSON)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return testStores{kv: kv, records: recordstore.New(kv), checkpoints: checkpointstore.New(kv)}
}

func allKeys(t *testing.T, records recordstore.Store) []string {
	t.Helper()
	var keys []string
	require.NoError(t, records.Scan(0, ^uint64(0), "", func(r types.Record) bool {
		keys = append(keys, r.Key)
		return true
	}))
	return keys
}

func testOptions() Options {
	return Options{
		RetryDelay:      time.Millisecond,
		PollInterval:    5 * time.Millisecond,
		FollowErrDelay:  5 * time.Millisecond,
		SupervisorDelay: time.Millisecond,
	}
}
