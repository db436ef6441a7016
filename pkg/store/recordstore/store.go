package recordstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/infra"
)

var ErrInvalidKey = errors.New("invalid record key")

// maxPaddedHeight is the largest height whose successor still fits the key padding.
const maxPaddedHeight = 999999999998

// Key builds "<height:012d>:<kind>:<unixSeconds>:<txID>". Zero padding keeps
// lexicographic order equal to height order.
func Key(height uint64, kind string, timestamp int64, txID string) string {
	return fmt.Sprintf("%0*d:%s:%d:%s", constant.HeightKeyWidth, height, kind, timestamp, txID)
}

// keysEnd sorts after every record key (':' follows '9') and before the
// non-numeric keys that share the store, such as the checkpoint.
var keysEnd = []byte(":")

// heightPrefix is the smallest key any record at height can have.
func heightPrefix(height uint64) []byte {
	return []byte(fmt.Sprintf("%0*d:", constant.HeightKeyWidth, height))
}

// ParseKey splits a record key back into its coordinates. Value is left empty.
func ParseKey(key string) (types.Record, error) {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) != 4 || len(parts[0]) < constant.HeightKeyWidth {
		return types.Record{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	height, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("%w: height: %v", ErrInvalidKey, err)
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("%w: timestamp: %v", ErrInvalidKey, err)
	}
	return types.Record{
		Key:       key,
		Height:    height,
		Kind:      parts[1],
		Timestamp: ts,
		TxID:      parts[3],
	}, nil
}

// Store persists normalized payment messages. Writes are plain overwrites so
// re-processing a block leaves exactly one value per key.
type Store interface {
	SavePayment(height uint64, timestamp int64, txID string, msg types.PaymentMessage) (string, error)
	SaveTransfer(height uint64, timestamp int64, txID string, msg types.TransferMessage) (string, error)
	LoadPayment(key string) (*types.PaymentMessage, error)
	LoadTransfer(key string) (*types.TransferMessage, error)
	// Scan visits records with fromHeight <= height <= toHeight in key order.
	// An empty kind matches every kind.
	Scan(fromHeight, toHeight uint64, kind string, fn func(types.Record) bool) error
}

// kvStore relies on kv encoding values as JSON; Scan hands raw values out as
// json.RawMessage.
type kvStore struct {
	kv infra.KVStore
}

func New(kv infra.KVStore) Store {
	return &kvStore{kv: kv}
}

func (s *kvStore) SavePayment(height uint64, timestamp int64, txID string, msg types.PaymentMessage) (string, error) {
	key := Key(height, constant.KindMsgSend, timestamp, txID)
	return key, s.put(key, msg)
}

func (s *kvStore) SaveTransfer(height uint64, timestamp int64, txID string, msg types.TransferMessage) (string, error) {
	key := Key(height, constant.KindMsgIbcTransfer, timestamp, txID)
	return key, s.put(key, msg)
}

func (s *kvStore) put(key string, msg any) error {
	if err := s.kv.SetAny([]byte(key), msg); err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

// LoadPayment returns nil without error when key is absent.
func (s *kvStore) LoadPayment(key string) (*types.PaymentMessage, error) {
	var msg types.PaymentMessage
	found, err := s.load(key, &msg)
	if err != nil || !found {
		return nil, err
	}
	return &msg, nil
}

// LoadTransfer returns nil without error when key is absent.
func (s *kvStore) LoadTransfer(key string) (*types.TransferMessage, error) {
	var msg types.TransferMessage
	found, err := s.load(key, &msg)
	if err != nil || !found {
		return nil, err
	}
	return &msg, nil
}

func (s *kvStore) load(key string, v any) (bool, error) {
	found, err := s.kv.GetAny([]byte(key), v)
	if err != nil {
		return false, fmt.Errorf("load record %s: %w", key, err)
	}
	return found, nil
}

func (s *kvStore) Scan(fromHeight, toHeight uint64, kind string, fn func(types.Record) bool) error {
	if fromHeight > toHeight {
		return nil
	}
	upper := keysEnd
	if toHeight < maxPaddedHeight {
		upper = heightPrefix(toHeight + 1)
	}

	var decodeErr error
	err := s.kv.Scan(heightPrefix(fromHeight), upper, func(k, v []byte) bool {
		rec, err := ParseKey(string(k))
		if err != nil {
			decodeErr = err
			return false
		}
		if rec.Height < fromHeight || rec.Height > toHeight {
			return true
		}
		if kind != "" && rec.Kind != kind {
			return true
		}
		rec.Value = json.RawMessage(v)
		return fn(rec)
	})
	if err != nil {
		return fmt.Errorf("scan records %d-%d: %w", fromHeight, toHeight, err)
	}
	return decodeErr
}
