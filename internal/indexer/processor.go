package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fystack/payment-indexer/internal/codec"
	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/events"
	"github.com/fystack/payment-indexer/pkg/store/recordstore"
)

// Processor decodes the transactions of a block and persists every bank send
// and IBC transfer message it finds.
type Processor struct {
	chainName     string
	addressPrefix string
	records       recordstore.Store
	emitter       events.Emitter
	logger        *slog.Logger
}

// NewProcessor builds a Processor. emitter may be nil.
func NewProcessor(chainName string, records recordstore.Store, emitter events.Emitter, logger *slog.Logger) *Processor {
	return &Processor{chainName: chainName, records: records, emitter: emitter, logger: logger}
}

// TxID is the uppercase hex SHA-256 of the raw transaction bytes.
func TxID(tx []byte) string {
	return fmt.Sprintf("%X", sha256.Sum256(tx))
}

// localSender reports whether addr carries the chain's bech32 prefix. With no
// prefix configured every address is local.
func (p *Processor) localSender(addr string) bool {
	return p.addressPrefix == "" || strings.HasPrefix(addr, p.addressPrefix+"1")
}

func (p *Processor) checkSender(stats *Stats, height uint64, txID, sender string) {
	if p.localSender(sender) {
		return
	}
	stats.ForeignSenders++
	p.logger.Warn("Sender outside chain address prefix",
		"height", height, "tx", txID, "sender", sender, "prefix", p.addressPrefix)
}

// ProcessBlock persists the block's messages and returns what it saw. Malformed
// transactions and undecodable messages are skipped and counted. A storage
// error aborts the block and is returned with the stats gathered so far.
func (p *Processor) ProcessBlock(ctx context.Context, block types.Block) (Stats, error) {
	var stats Stats
	for _, tx := range block.Txs {
		stats.Transactions++
		txID := TxID(tx)

		raw, err := codec.DecodeTxRaw(tx)
		if err != nil {
			stats.MalformedTxs++
			p.logger.Warn("Skipping malformed transaction", "height", block.Height, "tx", txID, "err", err)
			continue
		}
		body, err := codec.DecodeTxBody(raw.BodyBytes)
		if err != nil {
			stats.MalformedTxs++
			p.logger.Warn("Skipping malformed transaction", "height", block.Height, "tx", txID, "err", err)
			continue
		}

		hasTransfer := false
		for _, msg := range body.Messages {
			stats.Messages++
			switch msg.TypeURL {
			case constant.TypeURLMsgSend:
				send, err := codec.DecodeMsgSend(msg.Value)
				if err != nil {
					stats.SkippedMessages++
					p.logger.Debug("Skipping undecodable send", "height", block.Height, "tx", txID, "err", err)
					continue
				}
				payment := normalizeSend(send)
				key, err := p.records.SavePayment(block.Height, block.Timestamp, txID, payment)
				if err != nil {
					return stats, err
				}
				stats.SendMsgs++
				p.checkSender(&stats, block.Height, txID, payment.FromAddress)
				for _, coin := range payment.Amount {
					if amount, err := coin.DecimalAmount(); err == nil {
						stats.addVolume(coin.Denom, amount)
					}
				}
				p.emit(ctx, key, block, txID, constant.KindMsgSend, payment)

			case constant.TypeURLMsgTransfer:
				xfer, err := codec.DecodeMsgTransfer(msg.Value)
				if err != nil {
					stats.SkippedMessages++
					p.logger.Debug("Skipping undecodable transfer", "height", block.Height, "tx", txID, "err", err)
					continue
				}
				transfer := normalizeTransfer(xfer)
				key, err := p.records.SaveTransfer(block.Height, block.Timestamp, txID, transfer)
				if err != nil {
					return stats, err
				}
				stats.TransferMsgs++
				hasTransfer = true
				p.checkSender(&stats, block.Height, txID, transfer.Sender)
				p.emit(ctx, key, block, txID, constant.KindMsgIbcTransfer, transfer)
			}
		}
		if hasTransfer {
			stats.TransferTxs++
		}
	}
	stats.Blocks++
	return stats, nil
}

func (p *Processor) emit(ctx context.Context, key string, block types.Block, txID, kind string, msg any) {
	if p.emitter == nil {
		return
	}
	value, err := json.Marshal(msg)
	if err != nil {
		p.logger.Error("Encode event failed", "key", key, "err", err)
		return
	}
	rec := types.Record{
		Key:       key,
		Height:    block.Height,
		Kind:      kind,
		Timestamp: block.Timestamp,
		TxID:      txID,
		Value:     value,
	}
	if err := p.emitter.EmitRecord(ctx, p.chainName, rec); err != nil {
		p.logger.Error("Publish record failed", "key", key, "err", err)
	}
}

func normalizeCoins(coins []codec.Coin) []types.Coin {
	out := make([]types.Coin, 0, len(coins))
	for _, c := range coins {
		out = append(out, types.Coin{Denom: c.Denom, Amount: c.Amount})
	}
	return out
}

func normalizeSend(m codec.MsgSend) types.PaymentMessage {
	return types.PaymentMessage{
		FromAddress: m.FromAddress,
		ToAddress:   m.ToAddress,
		Amount:      normalizeCoins(m.Amount),
	}
}

func normalizeTransfer(m codec.MsgTransfer) types.TransferMessage {
	out := types.TransferMessage{
		SourcePort:       m.SourcePort,
		SourceChannel:    m.SourceChannel,
		Token:            []types.Coin{},
		Sender:           m.Sender,
		Receiver:         m.Receiver,
		TimeoutTimestamp: m.TimeoutTimestamp,
	}
	if m.Token != nil {
		out.Token = normalizeCoins([]codec.Coin{*m.Token})
	}
	if m.TimeoutHeight != nil {
		out.TimeoutHeight = &types.TimeoutHeight{
			RevisionNumber: m.TimeoutHeight.RevisionNumber,
			RevisionHeight: m.TimeoutHeight.RevisionHeight,
		}
	}
	return out
}
