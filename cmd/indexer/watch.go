package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/fystack/payment-indexer/pkg/events"
	"github.com/fystack/payment-indexer/pkg/infra"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchFlags struct {
	subject string
	logFile string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print record events published to NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(false)
		if err != nil {
			return err
		}
		if cfg.Nats.URL == "" {
			return errors.New("nats.url is not configured")
		}

		out := io.Writer(os.Stdout)
		if watchFlags.logFile != "" {
			f, err := os.OpenFile(watchFlags.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}

		nc, err := infra.GetNATSConnection(cfg.Nats, cfg.Environment)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()

		subject := watchFlags.subject
		if subject == "" {
			subject = events.Subjects(cfg.Nats.SubjectPrefix)[0]
		}
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			var event events.IndexerEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				logger.Error("Unmarshal error", "subject", msg.Subject, "err", err)
				return
			}
			fmt.Fprintf(out, "%s\n", msg.Data)
		})
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer sub.Unsubscribe()
		logger.Info("Subscribed", "subject", subject)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.subject, "subject", "", "subject to subscribe to (default <subject_prefix>.>)")
	watchCmd.Flags().StringVar(&watchFlags.logFile, "log", "", "also append events to this file")
}
