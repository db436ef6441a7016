package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestMsgSend_RoundTrip(t *testing.T) {
	in := MsgSend{
		FromAddress: "althea1from",
		ToAddress:   "althea1to",
		Amount:      []Coin{{Denom: "uabc", Amount: "10"}, {Denom: "aalthea", Amount: "1000000000000000000"}},
	}
	out, err := DecodeMsgSend(in.Marshal())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMsgTransfer_RoundTrip(t *testing.T) {
	in := MsgTransfer{
		SourcePort:       "transfer",
		SourceChannel:    "channel-0",
		Token:            &Coin{Denom: "aalthea", Amount: "5"},
		Sender:           "althea1sender",
		Receiver:         "osmo1receiver",
		TimeoutHeight:    &Height{RevisionNumber: 1, RevisionHeight: 123456},
		TimeoutTimestamp: 1700000000000000000,
		Memo:             "hello",
	}
	out, err := DecodeMsgTransfer(in.Marshal())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMsgTransfer_OptionalFieldsAbsent(t *testing.T) {
	out, err := DecodeMsgTransfer(MsgTransfer{SourcePort: "transfer"}.Marshal())
	require.NoError(t, err)
	assert.Nil(t, out.Token)
	assert.Nil(t, out.TimeoutHeight)
	assert.Zero(t, out.TimeoutTimestamp)
}

func TestTxRawAndBody_RoundTrip(t *testing.T) {
	send := MsgSend{FromAddress: "a", ToAddress: "b", Amount: []Coin{{Denom: "uabc", Amount: "1"}}}
	body := TxBody{
		Messages: []Any{
			{TypeURL: "/cosmos.bank.v1beta1.MsgSend", Value: send.Marshal()},
			{TypeURL: "/cosmos.staking.v1beta1.MsgDelegate", Value: []byte{0x0a, 0x01, 'x'}},
		},
		Memo:          "memo",
		TimeoutHeight: 99,
	}
	raw := TxRaw{BodyBytes: body.Marshal(), AuthInfoBytes: []byte{0x01}, Signatures: [][]byte{{0xaa}, {0xbb}}}

	gotRaw, err := DecodeTxRaw(raw.Marshal())
	require.NoError(t, err)
	assert.Equal(t, raw, gotRaw)

	gotBody, err := DecodeTxBody(gotRaw.BodyBytes)
	require.NoError(t, err)
	assert.Equal(t, body, gotBody)

	gotSend, err := DecodeMsgSend(gotBody.Messages[0].Value)
	require.NoError(t, err)
	assert.Equal(t, send, gotSend)
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	b := MsgSend{FromAddress: "a", ToAddress: "b"}.Marshal()
	b = protowire.AppendTag(b, 99, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)
	b = protowire.AppendTag(b, 100, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 1023, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("ext"))

	out, err := DecodeMsgSend(b)
	require.NoError(t, err)
	assert.Equal(t, "a", out.FromAddress)
	assert.Equal(t, "b", out.ToAddress)
}

func TestDecode_Malformed(t *testing.T) {
	valid := MsgSend{FromAddress: "althea1from", ToAddress: "althea1to"}.Marshal()

	_, err := DecodeMsgSend(valid[:len(valid)-3])
	assert.Error(t, err)

	_, err = DecodeTxRaw([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)

	_, err = DecodeTxBody([]byte("not a protobuf message at all"))
	assert.Error(t, err)
}

func TestDecode_WrongWireType(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 5)

	_, err := DecodeMsgSend(b)
	assert.ErrorIs(t, err, ErrWireType)
}

func TestDecode_Empty(t *testing.T) {
	body, err := DecodeTxBody(nil)
	require.NoError(t, err)
	assert.Empty(t, body.Messages)
}
