package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db/models"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox/registry"
)

func TestDrainSettlesEachRowIndependently(t *testing.T) {
	placed := orderPlacedRow(t, 0)
	cleared := cartClearedRow(t)
	store := &memoryStore{rows: []models.OutboxEvent{placed, cleared}}
	send := &scriptedSender{errs: []error{errors.New("unavailable"), nil}}
	relay := newTestRelay(t, store, send, config.OutboxConfig{MaxAttempts: 5})

	n, err := relay.drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 claimed rows got %d", n)
	}
	if len(store.failed) != 1 || store.failed[0] != placed.ID {
		t.Fatalf("expected order row marked failed, got %v", store.failed)
	}
	if len(store.published) != 1 || store.published[0] != cleared.ID {
		t.Fatalf("expected cart row published, got %v", store.published)
	}
}

func TestDrainSetsMessageAttributes(t *testing.T) {
	row := orderPlacedRow(t, 0)
	store := &memoryStore{rows: []models.OutboxEvent{row}}
	send := &scriptedSender{}
	relay := newTestRelay(t, store, send, config.OutboxConfig{})

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(send.sent) != 1 {
		t.Fatalf("expected one message got %d", len(send.sent))
	}
	msg := send.sent[0]
	if send.topics[0] != "shop-events" {
		t.Fatalf("unexpected topic %q", send.topics[0])
	}
	if msg.Attributes["event_type"] != string(enums.EventOrderPlaced) {
		t.Fatalf("unexpected event_type %q", msg.Attributes["event_type"])
	}
	if msg.OrderingKey != row.AggregateID.String() {
		t.Fatalf("expected ordering by aggregate, got %q", msg.OrderingKey)
	}
	if msg.Attributes["aggregate_id"] != row.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id %q", msg.Attributes["aggregate_id"])
	}
	if msg.Attributes["schema_version"] != "1" {
		t.Fatalf("unexpected schema_version %q", msg.Attributes["schema_version"])
	}
}

func TestDrainParksUndecodableRows(t *testing.T) {
	row := orderPlacedRow(t, 0)
	row.Payload = json.RawMessage(`{"version":1,"data":null}`)
	store := &memoryStore{rows: []models.OutboxEvent{row}}
	send := &scriptedSender{}
	relay := newTestRelay(t, store, send, config.OutboxConfig{MaxAttempts: 4})

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.parked) != 1 || store.parked[0] != row.ID {
		t.Fatalf("expected row parked, got %v", store.parked)
	}
	if store.parkedAttempts != 4 {
		t.Fatalf("expected attempts raised to 4 got %d", store.parkedAttempts)
	}
	if len(send.sent) != 0 {
		t.Fatalf("parked row must not be sent")
	}
}

func TestDrainParksOnLastAttempt(t *testing.T) {
	row := orderPlacedRow(t, 2)
	store := &memoryStore{rows: []models.OutboxEvent{row}}
	send := &scriptedSender{errs: []error{errors.New("deadline exceeded")}}
	relay := newTestRelay(t, store, send, config.OutboxConfig{MaxAttempts: 3})

	if _, err := relay.drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.parked) != 1 {
		t.Fatalf("expected row parked after final attempt")
	}
	if len(store.failed) != 0 {
		t.Fatalf("parked row should not also be marked failed")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	relay := newTestRelay(t, &memoryStore{}, &scriptedSender{}, config.OutboxConfig{PollIntervalMS: 10})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := relay.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error got %v", err)
	}
}

func TestNewRelayAppliesDefaults(t *testing.T) {
	relay := newTestRelay(t, &memoryStore{}, &scriptedSender{}, config.OutboxConfig{})
	if relay.batchSize != 50 || relay.attempts != 10 || relay.poll != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: batch=%d attempts=%d poll=%s", relay.batchSize, relay.attempts, relay.poll)
	}
	if _, err := NewRelay(RelayParams{}); err == nil {
		t.Fatalf("expected error without dependencies")
	}
}

func newTestRelay(t *testing.T, store eventStore, send sender, cfg config.OutboxConfig) *Relay {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{DomainTopic: "shop-events"})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	relay, err := NewRelay(RelayParams{
		Logger:   logger.New(logger.Options{ServiceName: "outbox-relay-test", Output: io.Discard}),
		DB:       inlineTx{},
		Store:    store,
		Registry: reg,
		Sender:   send,
		Outbox:   cfg,
	})
	if err != nil {
		t.Fatalf("new relay: %v", err)
	}
	return relay
}

func orderPlacedRow(t *testing.T, attempts int) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, map[string]any{"order_id": uuid.NewString(), "total_amount": "150.00"}),
		AttemptCount:  attempts,
	}
}

func cartClearedRow(t *testing.T) models.OutboxEvent {
	t.Helper()
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventCartCleared,
		AggregateType: enums.AggregateCart,
		AggregateID:   uuid.New(),
		Payload:       envelope(t, map[string]any{"cart_id": uuid.NewString()}),
	}
}

func envelope(t *testing.T, data any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	payload, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type inlineTx struct{}

func (inlineTx) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type memoryStore struct {
	rows           []models.OutboxEvent
	published      []uuid.UUID
	failed         []uuid.UUID
	parked         []uuid.UUID
	parkedAttempts int
}

func (m *memoryStore) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if len(m.rows) > limit {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

func (m *memoryStore) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	m.published = append(m.published, id)
	return nil
}

func (m *memoryStore) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	m.failed = append(m.failed, id)
	return nil
}

func (m *memoryStore) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, attempts int) error {
	m.parked = append(m.parked, id)
	m.parkedAttempts = attempts
	return nil
}

// scriptedSender returns errs in order, then succeeds.
type scriptedSender struct {
	errs   []error
	sent   []*gcppubsub.Message
	topics []string
}

func (s *scriptedSender) Send(_ context.Context, topic string, msg *gcppubsub.Message) (string, error) {
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	s.sent = append(s.sent, msg)
	s.topics = append(s.topics, topic)
	return "msg-" + topic, nil
}
