package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/registry"
)

const (
	sendTimeout = 15 * time.Second
	maxIdleWait = 10 * time.Second
)

type txRunner interface {
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

// sender delivers one message and waits for the broker's ack.
type sender interface {
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) (string, error)
}

type eventStore interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type RelayParams struct {
	Logger   *logger.Logger
	DB       txRunner
	Store    eventStore
	Registry resolver
	Sender   sender
	Metrics  *metrics.OutboxMetrics
	Outbox   config.OutboxConfig
}

// Relay moves committed outbox rows to Pub/Sub. Rows are claimed and settled
// in the same transaction, so a crash mid-batch only re-sends, never drops.
type Relay struct {
	logg      *logger.Logger
	db        txRunner
	store     eventStore
	registry  resolver
	sender    sender
	metrics   *metrics.OutboxMetrics
	batchSize int
	attempts  int
	poll      time.Duration
}

func NewRelay(p RelayParams) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.DB == nil:
		return nil, errors.New("database client is required")
	case p.Store == nil:
		return nil, errors.New("outbox store is required")
	case p.Registry == nil:
		return nil, errors.New("event registry is required")
	case p.Sender == nil:
		return nil, errors.New("sender is required")
	}

	r := &Relay{
		logg:      p.Logger,
		db:        p.DB,
		store:     p.Store,
		registry:  p.Registry,
		sender:    p.Sender,
		metrics:   p.Metrics,
		batchSize: p.Outbox.BatchSize,
		attempts:  p.Outbox.MaxAttempts,
		poll:      time.Duration(p.Outbox.PollIntervalMS) * time.Millisecond,
	}
	if r.batchSize <= 0 {
		r.batchSize = 50
	}
	if r.attempts <= 0 {
		r.attempts = 10
	}
	if r.poll <= 0 {
		r.poll = 500 * time.Millisecond
	}
	return r, nil
}

// Run drains the outbox until ctx is cancelled. A full batch is followed
// immediately by the next one; an empty batch waits one poll interval and a
// failing batch waits twice as long as the previous failure.
func (r *Relay) Run(ctx context.Context) error {
	wait := r.poll
	for {
		n, err := r.drain(ctx)
		switch {
		case err != nil:
			r.logg.Error(ctx, "outbox.batch_failed", err)
			wait = min(wait*2, maxIdleWait)
		case n == r.batchSize:
			wait = r.poll
			continue
		default:
			wait = r.poll
		}

		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "outbox.relay_stopped")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// outcome is what happened to one row during a batch.
type outcome int

const (
	sent outcome = iota
	retry
	parked
)

// drain claims one batch and settles every row in it. It returns the number
// of rows claimed.
func (r *Relay) drain(ctx context.Context) (int, error) {
	claimed := 0
	err := r.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.attempts)
		if err != nil {
			return fmt.Errorf("claim outbox rows: %w", err)
		}
		claimed = len(events)
		for _, event := range events {
			result, cause := r.deliver(ctx, event)
			if err := r.settle(ctx, tx, event, result, cause); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

func (r *Relay) deliver(ctx context.Context, event models.OutboxEvent) (outcome, error) {
	resolved, err := r.registry.Resolve(event)
	if err != nil {
		return parked, err
	}

	msg := &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: event.AggregateID.String(),
		Attributes:  map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"schema_version": fmt.Sprint(resolved.Envelope.Version),
			"occurred_at":    resolved.Envelope.OccurredAt.UTC().Format(time.RFC3339Nano),
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if _, err := r.sender.Send(sendCtx, resolved.Descriptor.Topic, msg); err != nil {
		var permanent registry.NonRetryableError
		if errors.As(err, &permanent) {
			return parked, err
		}
		if event.AttemptCount+1 >= r.attempts {
			return parked, fmt.Errorf("giving up after %d attempts: %w", event.AttemptCount+1, err)
		}
		return retry, err
	}
	return sent, nil
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, result outcome, cause error) error {
	eventType := string(event.EventType)
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     event.ID.String(),
		"event_type":    eventType,
		"aggregate_id":  event.AggregateID.String(),
		"attempt_count": event.AttemptCount,
	})

	switch result {
	case sent:
		if err := r.store.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		r.metrics.IncPublished(eventType)
		r.logg.Info(logCtx, "outbox.event_published")
	case retry:
		if err := r.store.MarkFailedTx(tx, event.ID, cause); err != nil {
			return fmt.Errorf("mark %s failed: %w", event.ID, err)
		}
		r.metrics.IncFailed(eventType)
		r.logg.Warn(r.logg.WithField(logCtx, "error", cause.Error()), "outbox.publish_failed")
	case parked:
		// The row keeps last_error for inspection and is never claimed again.
		if err := r.store.MarkTerminalTx(tx, event.ID, cause, r.attempts); err != nil {
			return fmt.Errorf("park %s: %w", event.ID, err)
		}
		r.metrics.IncParked(eventType)
		r.logg.Warn(r.logg.WithField(logCtx, "error", cause.Error()), "outbox.event_parked")
	}
	return nil
}
