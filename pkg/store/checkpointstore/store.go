package checkpointstore

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/infra"
)

// Store persists the highest fully indexed height under a single fixed key.
type Store interface {
	Save(height uint64) error
	// Load reports found=false when no checkpoint was ever written.
	Load() (height uint64, found bool, err error)
}

type kvStore struct {
	kv infra.KVStore
}

func New(kv infra.KVStore) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) Save(height uint64) error {
	value := strconv.FormatUint(height, 10)
	if err := s.kv.Set([]byte(constant.KeyLastDownloadBlock), []byte(value)); err != nil {
		return fmt.Errorf("failed to save checkpoint %d: %w", height, err)
	}
	return nil
}

func (s *kvStore) Load() (uint64, bool, error) {
	raw, err := s.kv.Get([]byte(constant.KeyLastDownloadBlock))
	if err != nil {
		if errors.Is(err, infra.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	height, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid checkpoint value %q: %w", raw, err)
	}
	return height, true, nil
}
