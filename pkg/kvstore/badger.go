package kvstore

import (
	"bytes"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/fystack/payment-indexer/pkg/infra"
)

const storeName = "badger"

var (
	ErrKeyNotFound = infra.ErrKeyNotFound
	ErrKeyEmpty    = errors.New("key is empty")
	ErrValueNil    = errors.New("value is nil")
)

type BadgerStore struct {
	db     *badger.DB
	prefix []byte
	codec  infra.Codec
}

func NewBadgerStore(path string, prefix string, codec infra.Codec) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = infra.JSON
	}
	var p []byte
	if prefix != "" {
		p = []byte(prefix + "/")
	}
	return &BadgerStore{
		db:     db,
		prefix: p,
		codec:  codec,
	}, nil
}

func (b *BadgerStore) fullKey(k []byte) ([]byte, error) {
	if len(k) == 0 {
		return nil, ErrKeyEmpty
	}
	if len(b.prefix) == 0 {
		return k, nil
	}
	full := make([]byte, 0, len(b.prefix)+len(k))
	full = append(full, b.prefix...)
	return append(full, k...), nil
}

func (b *BadgerStore) GetName() string {
	return storeName
}

func (b *BadgerStore) Get(key []byte) ([]byte, error) {
	k, err := b.fullKey(key)
	if err != nil {
		return nil, err
	}

	var valCopy []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return valCopy, nil
}

func (b *BadgerStore) Set(key []byte, value []byte) error {
	k, err := b.fullKey(key)
	if err != nil {
		return err
	}
	if value == nil {
		return ErrValueNil
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
}

func (b *BadgerStore) SetAny(key []byte, value any) error {
	if value == nil {
		return ErrValueNil
	}
	data, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}
	return b.Set(key, data)
}

func (b *BadgerStore) GetAny(key []byte, value any) (bool, error) {
	if value == nil {
		return false, ErrValueNil
	}
	data, err := b.Get(key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, b.codec.Unmarshal(data, value)
}

// Scan iterates [from, to) relative to the store prefix. Keys passed to fn have
// the prefix stripped and are only valid for the duration of the call.
func (b *BadgerStore) Scan(from, to []byte, fn func(k, v []byte) bool) error {
	start := append(append([]byte{}, b.prefix...), from...)
	var end []byte
	if to != nil {
		end = append(append([]byte{}, b.prefix...), to...)
	}

	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = b.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(start); it.ValidForPrefix(b.prefix); it.Next() {
			item := it.Item()
			k := item.Key()
			if end != nil && bytes.Compare(k, end) >= 0 {
				return nil
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(k[len(b.prefix):], v) {
				return nil
			}
		}
		return nil
	})
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
