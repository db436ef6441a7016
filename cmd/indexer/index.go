package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fystack/payment-indexer/internal/indexer"
	"github.com/fystack/payment-indexer/internal/rpc"
	"github.com/fystack/payment-indexer/internal/rpc/cosmos"
	"github.com/fystack/payment-indexer/pkg/common/config"
	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/fystack/payment-indexer/pkg/events"
	"github.com/fystack/payment-indexer/pkg/infra"
	"github.com/fystack/payment-indexer/pkg/metrics"
	"github.com/fystack/payment-indexer/pkg/ratelimiter"
	"github.com/fystack/payment-indexer/pkg/store/checkpointstore"
	"github.com/fystack/payment-indexer/pkg/store/recordstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var indexFlags struct {
	debug          bool
	testMode       bool
	testBlockLimit uint64
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Catch up from the earliest available block, then follow the chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(indexFlags.debug)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("test-mode") {
			cfg.Indexer.TestMode = indexFlags.testMode
		}
		if cmd.Flags().Changed("test-block-limit") {
			cfg.Indexer.TestBlockLimit = indexFlags.testBlockLimit
		}
		return runIndexer(cfg)
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexFlags.debug, "debug", false, "enable debug logs")
	indexCmd.Flags().BoolVar(&indexFlags.testMode, "test-mode", false, "cap the catch-up span to test-block-limit blocks")
	indexCmd.Flags().Uint64Var(&indexFlags.testBlockLimit, "test-block-limit", 0, "number of blocks indexed in test mode")
}

func runIndexer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.With("chain", cfg.Chain.Name)
	log.Info("Config loaded",
		"env", cfg.Environment,
		"address_prefix", cfg.Chain.AddressPrefix,
		"store", cfg.KVStore.Badger.Directory,
	)

	kv, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	records := recordstore.New(kv)
	checkpoints := checkpointstore.New(kv)

	limiter := ratelimiter.NewRateLimiterFromRPS(cfg.Client.RPS, cfg.Client.Burst)
	client := cosmos.NewCosmosClient(
		cfg.Chain.Node.URL,
		rpc.NodeToAuthConfig(cfg.Chain.Node),
		cosmos.Options{
			Timeout:       cfg.Client.Timeout,
			RangePageSize: cfg.Client.RangePageSize,
			RangeParallel: cfg.Client.RangeParallel,
		},
		limiter,
	)
	defer client.Close()

	emitter, err := newEmitter(ctx, cfg)
	if err != nil {
		return err
	}
	defer emitter.Close()

	counters := indexer.NewCounters()
	controller := indexer.NewController(
		cfg.Chain.Name,
		client,
		records,
		checkpoints,
		emitter,
		counters,
		indexer.Options{
			BatchSize:      cfg.Indexer.BatchSize,
			ExecuteSize:    cfg.Indexer.ExecuteSize,
			MaxRetries:     cfg.Indexer.MaxRetries,
			RetryDelay:     cfg.Indexer.RetryDelay,
			PollInterval:   cfg.Indexer.PollInterval,
			FollowErrDelay: cfg.Indexer.FollowErrDelay,
			TestMode:       cfg.Indexer.TestMode,
			TestBlockLimit: cfg.Indexer.TestBlockLimit,
			AddressPrefix:  cfg.Chain.AddressPrefix,
		},
		logger.L(),
	)

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			metrics.NewCollector(cfg.Chain.Name, counters, checkpoints),
			metrics.NewLimiterCollector(cfg.Chain.Name, limiter),
		)
		server := metrics.StartServer(cfg.Metrics.Port, metrics.NewHandler(registry, version))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	log.Info("Indexer is running... Press Ctrl+C to stop")
	err = controller.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	snap := counters.Snapshot()
	log.Info("Indexer stopped",
		"blocks", snap.Blocks,
		"transactions", snap.Transactions,
		"send_msgs", snap.SendMsgs,
		"transfer_msgs", snap.TransferMsgs,
	)
	return nil
}

func newEmitter(ctx context.Context, cfg *config.Config) (events.Emitter, error) {
	if !cfg.Nats.Enabled {
		return events.NewNoopEmitter(), nil
	}
	nc, err := infra.GetNATSConnection(cfg.Nats, cfg.Environment)
	if err != nil {
		return nil, err
	}
	queue, err := infra.NewJetStreamQueue(ctx, nc, cfg.Nats.Stream, events.Subjects(cfg.Nats.SubjectPrefix))
	if err != nil {
		nc.Close()
		return nil, err
	}
	logger.Info("Publishing records to NATS", "url", nc.ConnectedUrl(), "stream", cfg.Nats.Stream, "subject_prefix", cfg.Nats.SubjectPrefix)
	return events.NewEmitter(queue, cfg.Nats.SubjectPrefix), nil
}
