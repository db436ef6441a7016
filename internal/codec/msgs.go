package codec

import "fmt"

type Coin struct {
	Denom  string
	Amount string
}

// Height is an IBC (revision number, revision height) pair.
type Height struct {
	RevisionNumber uint64
	RevisionHeight uint64
}

type MsgSend struct {
	FromAddress string
	ToAddress   string
	Amount      []Coin
}

type MsgTransfer struct {
	SourcePort       string
	SourceChannel    string
	Token            *Coin
	Sender           string
	Receiver         string
	TimeoutHeight    *Height
	TimeoutTimestamp uint64
	Memo             string
}

func decodeCoin(b []byte) (Coin, error) {
	var c Coin
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			c.Denom, err = f.asString()
		case 2:
			c.Amount, err = f.asString()
		}
		return err
	})
	return c, err
}

func (c Coin) Marshal() []byte {
	b := appendStringField(nil, 1, c.Denom)
	return appendStringField(b, 2, c.Amount)
}

func decodeHeight(b []byte) (Height, error) {
	var h Height
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			h.RevisionNumber, err = f.asVarint()
		case 2:
			h.RevisionHeight, err = f.asVarint()
		}
		return err
	})
	return h, err
}

func (h Height) Marshal() []byte {
	b := appendVarintField(nil, 1, h.RevisionNumber)
	return appendVarintField(b, 2, h.RevisionHeight)
}

func DecodeMsgSend(b []byte) (MsgSend, error) {
	var m MsgSend
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.FromAddress, err = f.asString()
		case 2:
			m.ToAddress, err = f.asString()
		case 3:
			var raw []byte
			if raw, err = f.asBytes(); err != nil {
				return err
			}
			var c Coin
			if c, err = decodeCoin(raw); err == nil {
				m.Amount = append(m.Amount, c)
			}
		}
		return err
	})
	if err != nil {
		return MsgSend{}, fmt.Errorf("decode MsgSend: %w", err)
	}
	return m, nil
}

func (m MsgSend) Marshal() []byte {
	b := appendStringField(nil, 1, m.FromAddress)
	b = appendStringField(b, 2, m.ToAddress)
	for _, c := range m.Amount {
		b = appendBytesField(b, 3, c.Marshal())
	}
	return b
}

func DecodeMsgTransfer(b []byte) (MsgTransfer, error) {
	var m MsgTransfer
	err := walk(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			m.SourcePort, err = f.asString()
		case 2:
			m.SourceChannel, err = f.asString()
		case 3:
			var raw []byte
			if raw, err = f.asBytes(); err != nil {
				return err
			}
			var c Coin
			if c, err = decodeCoin(raw); err == nil {
				m.Token = &c
			}
		case 4:
			m.Sender, err = f.asString()
		case 5:
			m.Receiver, err = f.asString()
		case 6:
			var raw []byte
			if raw, err = f.asBytes(); err != nil {
				return err
			}
			var h Height
			if h, err = decodeHeight(raw); err == nil {
				m.TimeoutHeight = &h
			}
		case 7:
			m.TimeoutTimestamp, err = f.asVarint()
		case 8:
			m.Memo, err = f.asString()
		}
		return err
	})
	if err != nil {
		return MsgTransfer{}, fmt.Errorf("decode MsgTransfer: %w", err)
	}
	return m, nil
}

func (m MsgTransfer) Marshal() []byte {
	b := appendStringField(nil, 1, m.SourcePort)
	b = appendStringField(b, 2, m.SourceChannel)
	if m.Token != nil {
		b = appendBytesField(b, 3, m.Token.Marshal())
	}
	b = appendStringField(b, 4, m.Sender)
	b = appendStringField(b, 5, m.Receiver)
	if m.TimeoutHeight != nil {
		b = appendBytesField(b, 6, m.TimeoutHeight.Marshal())
	}
	b = appendVarintField(b, 7, m.TimeoutTimestamp)
	return appendStringField(b, 8, m.Memo)
}
