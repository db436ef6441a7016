package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/config"
	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/fystack/payment-indexer/pkg/infra"
	"github.com/fystack/payment-indexer/pkg/kvstore"
	"github.com/spf13/cobra"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "indexer",
	Short:         "Cosmos payment message indexer",
	Long:          "Indexes bank send and IBC transfer messages of a Cosmos chain into a local key-value store.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to config file")
	rootCmd.AddCommand(indexCmd, queryCmd, checkpointCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads the config and initialises the logger. debug forces debug level.
func setup(debug bool) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := logger.ParseLevel(cfg.Log.Level)
	if debug {
		level = logger.ParseLevel("debug")
	}
	logger.Init(&logger.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.Log.NoColor,
	})
	return cfg, nil
}

func openStore(cfg *config.Config) (infra.KVStore, error) {
	kv, err := kvstore.NewFromConfig(cfg.KVStore)
	if err != nil {
		return nil, fmt.Errorf("open kv store %s: %w", cfg.KVStore.Badger.Directory, err)
	}
	return kv, nil
}
