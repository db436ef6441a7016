package kvstore

import (
	"github.com/fystack/payment-indexer/pkg/common/config"
	"github.com/fystack/payment-indexer/pkg/infra"
)

// NewFromConfig constructs an infra.KVStore based on kvstore configuration.
func NewFromConfig(cfg config.KVSConfig) (infra.KVStore, error) {
	return NewBadgerStore(cfg.Badger.Directory, cfg.Badger.Prefix, infra.JSON)
}
