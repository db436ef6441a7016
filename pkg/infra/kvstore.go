package infra

import (
	"encoding/json"
	"errors"
)

// KVStore is an ordered byte-key/byte-value store. Implementations must make each
// single-key operation atomic; no multi-key transaction is offered.
type KVStore interface {
	GetName() string
	Set(k, v []byte) error
	// Get returns ErrKeyNotFound when k is absent.
	Get(k []byte) ([]byte, error)
	// This method if you want to set v as struct or map
	SetAny(k []byte, v any) error
	GetAny(k []byte, v any) (found bool, err error)

	// Scan visits keys in [from, to) in ascending byte order. A nil to means no
	// upper bound. Returning false from fn stops the scan.
	Scan(from, to []byte, fn func(k, v []byte) bool) error
	Close() error
}

var ErrKeyNotFound = errors.New("key not found")

// Codec encodes/decodes Go values to/from slices of bytes.
type Codec interface {
	// Marshal encodes a Go value to a slice of bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal decodes a slice of bytes into a Go value.
	Unmarshal(data []byte, v any) error
}

// JSON is a JSONcodec that encodes/decodes Go values to/from JSON.
var JSON = JSONcodec{}

// JSONcodec encodes/decodes Go values to/from JSON.
type JSONcodec struct{}

// Marshal encodes a Go value to JSON.
func (c JSONcodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes a JSON value into a Go value.
func (c JSONcodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
