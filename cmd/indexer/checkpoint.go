package main

import (
	"fmt"

	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/fystack/payment-indexer/pkg/store/checkpointstore"
	"github.com/spf13/cobra"
)

var checkpointSet uint64

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Show or overwrite the last indexed height",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		kv, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer kv.Close()

		store := checkpointstore.New(kv)
		if cmd.Flags().Changed("set") {
			if err := store.Save(checkpointSet); err != nil {
				return err
			}
			logger.Info("Checkpoint updated", "height", checkpointSet)
			return nil
		}

		height, found, err := store.Load()
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no checkpoint")
			return nil
		}
		fmt.Println(height)
		return nil
	},
}

func init() {
	checkpointCmd.Flags().Uint64Var(&checkpointSet, "set", 0, "overwrite the checkpoint with this height")
}
