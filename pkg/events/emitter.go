package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fystack/payment-indexer/pkg/common/types"
	"github.com/fystack/payment-indexer/pkg/infra"
)

const (
	EventTypeRecord = "record"
	EventTypeError  = "error"
)

type IndexerEvent struct {
	Type      string `json:"type"`
	Chain     string `json:"chain"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type Emitter interface {
	// EmitRecord publishes a persisted record. Republishing the same record key
	// is deduplicated by the stream.
	EmitRecord(ctx context.Context, chain string, rec types.Record) error
	EmitError(ctx context.Context, chain string, err error) error
	Close()
}

type emitter struct {
	queue         infra.MessageQueue
	subjectPrefix string
}

func NewEmitter(queue infra.MessageQueue, subjectPrefix string) Emitter {
	return &emitter{
		queue:         queue,
		subjectPrefix: subjectPrefix,
	}
}

// Subjects lists the subjects an emitter with subjectPrefix publishes on.
func Subjects(subjectPrefix string) []string {
	return []string{subjectPrefix + ".>"}
}

func (e *emitter) subject(kind string) string {
	return e.subjectPrefix + "." + kind
}

func (e *emitter) EmitRecord(ctx context.Context, chain string, rec types.Record) error {
	data, err := json.Marshal(IndexerEvent{
		Type:      EventTypeRecord,
		Chain:     chain,
		Data:      rec,
		Timestamp: time.Now().UTC().Unix(),
	})
	if err != nil {
		return err
	}
	return e.queue.Enqueue(ctx, e.subject(rec.Kind), data, &infra.EnqueueOptions{
		IdempotentKey: chain + "/" + rec.Key,
	})
}

func (e *emitter) EmitError(ctx context.Context, chain string, err error) error {
	payload := map[string]string{}
	if err != nil {
		payload["message"] = err.Error()
	}

	data, mErr := json.Marshal(IndexerEvent{
		Type:      EventTypeError,
		Chain:     chain,
		Data:      payload,
		Timestamp: time.Now().UTC().Unix(),
	})
	if mErr != nil {
		return mErr
	}
	return e.queue.Enqueue(ctx, e.subject(EventTypeError), data, nil)
}

func (e *emitter) Close() {
	if e.queue != nil {
		e.queue.Close()
	}
}

type noopEmitter struct{}

// NewNoopEmitter returns an Emitter that drops everything, used when NATS is disabled.
func NewNoopEmitter() Emitter { return noopEmitter{} }

func (noopEmitter) EmitRecord(context.Context, string, types.Record) error { return nil }
func (noopEmitter) EmitError(context.Context, string, error) error         { return nil }
func (noopEmitter) Close()                                                 {}
