package checkpointstore

import (
	"testing"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/infra"
	"github.com/fystack/payment-indexer/pkg/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKV(t *testing.T) infra.KVStore {
	t.Helper()
	kv, err := kvstore.NewBadgerStore(t.TempDir(), "", infra.JSON)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestLoad_Absent(t *testing.T) {
	store := New(newKV(t))

	height, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, height)
}

func TestSaveLoad(t *testing.T) {
	kv := newKV(t)
	store := New(kv)

	require.NoError(t, store.Save(100))
	require.NoError(t, store.Save(103))

	height, found, err := store.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(103), height)

	raw, err := kv.Get([]byte(constant.KeyLastDownloadBlock))
	require.NoError(t, err)
	assert.Equal(t, "103", string(raw))
}

func TestLoad_RejectsGarbage(t *testing.T) {
	kv := newKV(t)
	require.NoError(t, kv.Set([]byte(constant.KeyLastDownloadBlock), []byte("12a")))

	_, _, err := New(kv).Load()
	assert.Error(t, err)
}
