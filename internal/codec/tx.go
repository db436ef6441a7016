package codec

import (
	"fmt"
)

// TxRaw is the signed envelope broadcast to the chain.
type TxRaw struct {
	BodyBytes     []byte
	AuthInfoBytes []byte
	Signatures    [][]byte
}

// Any is a packed message: a type URL plus its encoded value.
type Any struct {
	TypeURL string
	Value   []byte
}

type TxBody struct {
	Messages      []Any
	Memo          string
	TimeoutHeight uint64
}

func DecodeTxRaw(b []byte) (TxRaw, error) {
	var tx TxRaw
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			tx.BodyBytes, err = f.asBytes()
		case 2:
			tx.AuthInfoBytes, err = f.asBytes()
		case 3:
			var sig []byte
			if sig, err = f.asBytes(); err == nil {
				tx.Signatures = append(tx.Signatures, sig)
			}
		}
		return err
	})
	if err != nil {
		return TxRaw{}, fmt.Errorf("decode tx raw: %w", err)
	}
	return tx, nil
}

func (tx TxRaw) Marshal() []byte {
	var b []byte
	if len(tx.BodyBytes) > 0 {
		b = appendBytesField(b, 1, tx.BodyBytes)
	}
	if len(tx.AuthInfoBytes) > 0 {
		b = appendBytesField(b, 2, tx.AuthInfoBytes)
	}
	for _, sig := range tx.Signatures {
		b = appendBytesField(b, 3, sig)
	}
	return b
}

func decodeAny(b []byte) (Any, error) {
	var a Any
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			a.TypeURL, err = f.asString()
		case 2:
			a.Value, err = f.asBytes()
		}
		return err
	})
	return a, err
}

func (a Any) Marshal() []byte {
	b := appendStringField(nil, 1, a.TypeURL)
	if len(a.Value) > 0 {
		b = appendBytesField(b, 2, a.Value)
	}
	return b
}

func DecodeTxBody(b []byte) (TxBody, error) {
	var body TxBody
	err := walk(b, func(f field) error {
		switch f.num {
		case 1:
			raw, err := f.asBytes()
			if err != nil {
				return err
			}
			msg, err := decodeAny(raw)
			if err != nil {
				return fmt.Errorf("message %d: %w", len(body.Messages), err)
			}
			body.Messages = append(body.Messages, msg)
		case 2:
			memo, err := f.asString()
			if err != nil {
				return err
			}
			body.Memo = memo
		case 3:
			h, err := f.asVarint()
			if err != nil {
				return err
			}
			body.TimeoutHeight = h
		}
		return nil
	})
	if err != nil {
		return TxBody{}, fmt.Errorf("decode tx body: %w", err)
	}
	return body, nil
}

func (body TxBody) Marshal() []byte {
	var b []byte
	for _, m := range body.Messages {
		b = appendBytesField(b, 1, m.Marshal())
	}
	b = appendStringField(b, 2, body.Memo)
	return appendVarintField(b, 3, body.TimeoutHeight)
}
