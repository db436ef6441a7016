package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fystack/payment-indexer/pkg/common/constant"
	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/store/recordstore"
	"github.com/spf13/cobra"
)

var queryFlags struct {
	from  uint64
	to    uint64
	kind  string
	limit int
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print persisted records between two heights as JSON lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(queryFlags.kind)
		if err != nil {
			return err
		}
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		kv, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer kv.Close()

		enc := json.NewEncoder(os.Stdout)
		printed := 0
		var encodeErr error
		err = recordstore.New(kv).Scan(queryFlags.from, queryFlags.to, kind, func(rec types.Record) bool {
			if encodeErr = enc.Encode(rec); encodeErr != nil {
				return false
			}
			printed++
			return queryFlags.limit <= 0 || printed < queryFlags.limit
		})
		if err != nil {
			return err
		}
		return encodeErr
	},
}

func init() {
	queryCmd.Flags().Uint64Var(&queryFlags.from, "from", 0, "first height (inclusive)")
	queryCmd.Flags().Uint64Var(&queryFlags.to, "to", ^uint64(0), "last height (inclusive)")
	queryCmd.Flags().StringVar(&queryFlags.kind, "kind", "", "record kind: send, transfer or empty for both")
	queryCmd.Flags().IntVar(&queryFlags.limit, "limit", 0, "stop after this many records (0 = no limit)")
}

func parseKind(kind string) (string, error) {
	switch kind {
	case "":
		return "", nil
	case "send", constant.KindMsgSend:
		return constant.KindMsgSend, nil
	case "transfer", constant.KindMsgIbcTransfer:
		return constant.KindMsgIbcTransfer, nil
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
}
