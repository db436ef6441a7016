package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	publishTimeout = 5 * time.Second
	streamMaxAge   = 7 * 24 * time.Hour
)

// MessageQueue publishes messages to a durable stream.
type MessageQueue interface {
	Enqueue(ctx context.Context, topic string, message []byte, options *EnqueueOptions) error
	Close()
}

type EnqueueOptions struct {
	// IdempotentKey is sent as Nats-Msg-Id so the stream drops republished duplicates.
	IdempotentKey string
}

type jetStreamQueue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewJetStreamQueue ensures a stream named streamName exists for subjects and
// returns a queue publishing into it.
func NewJetStreamQueue(ctx context.Context, nc *nats.Conn, streamName string, subjects []string) (MessageQueue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        streamName,
		Description: "Stream for " + streamName,
		Subjects:    subjects,
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      streamMaxAge,
		Duplicates:  time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream %s: %w", streamName, err)
	}

	if info, err := stream.Info(ctx); err == nil {
		logger.Info("Stream ready", "name", info.Config.Name, "subjects", info.Config.Subjects, "msgs", info.State.Msgs)
	}
	return &jetStreamQueue{nc: nc, js: js}, nil
}

func (q *jetStreamQueue) Enqueue(ctx context.Context, topic string, message []byte, options *EnqueueOptions) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := &nats.Msg{
		Subject: topic,
		Data:    message,
		Header:  nats.Header{},
	}
	if options != nil && options.IdempotentKey != "" {
		msg.Header.Set(jetstream.MsgIDHeader, options.IdempotentKey)
	}

	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("error enqueueing message: %w", err)
	}
	return nil
}

func (q *jetStreamQueue) Close() {
	if q.nc != nil {
		q.nc.Close()
	}
}
