package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Block is a fetched chain block: height, header time in unix seconds and the raw
// transaction envelopes in block order.
type Block struct {
	Height    uint64   `json:"height"`
	Timestamp int64    `json:"timestamp"`
	Txs       [][]byte `json:"txs"`
}

type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// DecimalAmount parses the integer amount string of a coin.
func (c Coin) DecimalAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.Amount))
}

type TimeoutHeight struct {
	RevisionNumber uint64 `json:"revision_number"`
	RevisionHeight uint64 `json:"revision_height"`
}

// PaymentMessage is the normalized form of a bank send message.
type PaymentMessage struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      []Coin `json:"amount"`
}

// TransferMessage is the normalized form of an IBC transfer message. Token holds
// at most one coin; it is kept as a list to stay compatible with stored values.
type TransferMessage struct {
	SourcePort       string         `json:"source_port"`
	SourceChannel    string         `json:"source_channel"`
	Token            []Coin         `json:"token"`
	Sender           string         `json:"sender"`
	Receiver         string         `json:"receiver"`
	TimeoutHeight    *TimeoutHeight `json:"timeout_height"`
	TimeoutTimestamp uint64         `json:"timeout_timestamp"`
}

// Record is a persisted message together with the coordinates encoded in its key.
type Record struct {
	Key       string          `json:"key"`
	Height    uint64          `json:"height"`
	Kind      string          `json:"kind"`
	Timestamp int64           `json:"timestamp"`
	TxID      string          `json:"tx_id"`
	Value     json.RawMessage `json:"value"`
}

func (r Record) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Record) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

func (r Record) String() string {
	return fmt.Sprintf("{Height: %d, Kind: %s, Timestamp: %d, TxID: %s, Value: %s}",
		r.Height, r.Kind, r.Timestamp, r.TxID, string(r.Value))
}

// ChainStatus is the node's view of the chain tip. Moving is false while the
// node is still syncing or reports no blocks.
type ChainStatus struct {
	Moving bool   `json:"moving"`
	Height uint64 `json:"height"`
}
