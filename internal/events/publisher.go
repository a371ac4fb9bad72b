package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cartboost/cartboost-blocks-service/internal/config"
	"github.com/cartboost/cartboost-blocks-service/internal/models"
)

// EventType identifies a lifecycle event.
type EventType string

const (
	EventTypePurchaseStatusChanged EventType = "purchase.status_changed"
	EventTypeSubscriptionCancelled EventType = "subscription.cancelled"
	EventTypeBlocksInstalled       EventType = "shop.blocks_installed"
)

// LifecycleEvent is the envelope published for every lifecycle change.
type LifecycleEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Shop      string          `json:"shop"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// Publisher publishes lifecycle events. Publishing failures are logged
// by callers and never fail the triggering operation.
type Publisher interface {
	PublishPurchaseStatusChanged(ctx context.Context, p *models.Purchase, previous models.PurchaseStatus) error
	PublishSubscriptionCancelled(ctx context.Context, sub *models.Subscription, test bool) error
	PublishBlocksInstalled(ctx context.Context, shop string, blockIDs []string) error
	Close() error
}

// KafkaPublisher publishes lifecycle events to Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a new Kafka-based lifecycle event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.LifecycleTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

var _ Publisher = (*KafkaPublisher)(nil)

// PublishPurchaseStatusChanged publishes a purchase transition event.
func (p *KafkaPublisher) PublishPurchaseStatusChanged(ctx context.Context, purchase *models.Purchase, previous models.PurchaseStatus) error {
	payload := struct {
		Purchase       *models.Purchase      `json:"purchase"`
		PreviousStatus models.PurchaseStatus `json:"previous_status"`
		NewStatus      models.PurchaseStatus `json:"new_status"`
	}{
		Purchase:       purchase,
		PreviousStatus: previous,
		NewStatus:      purchase.Status,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.publish(ctx, EventTypePurchaseStatusChanged, purchase.Shop, data)
}

// PublishSubscriptionCancelled publishes a cancellation event.
func (p *KafkaPublisher) PublishSubscriptionCancelled(ctx context.Context, sub *models.Subscription, test bool) error {
	payload := struct {
		Subscription *models.Subscription `json:"subscription"`
		Test         bool                 `json:"test"`
	}{
		Subscription: sub,
		Test:         test,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.publish(ctx, EventTypeSubscriptionCancelled, sub.Shop, data)
}

// PublishBlocksInstalled publishes the registered block set for a shop.
func (p *KafkaPublisher) PublishBlocksInstalled(ctx context.Context, shop string, blockIDs []string) error {
	payload := struct {
		Shop   string   `json:"shop"`
		Blocks []string `json:"blocks"`
	}{
		Shop:   shop,
		Blocks: blockIDs,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.publish(ctx, EventTypeBlocksInstalled, shop, data)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType EventType, shop string, data []byte) error {
	event := LifecycleEvent{
		ID:        "evt_" + uuid.NewString(),
		Type:      eventType,
		Shop:      shop,
		Data:      data,
		Timestamp: time.Now(),
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(shop),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Str("shop", shop).
			Msg("Failed to publish event")
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("shop", shop).
		Msg("Event published")

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info().Msg("Closing Kafka publisher")
	return p.writer.Close()
}

// NoopPublisher drops all events. Used when lifecycle events are
// disabled and in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishPurchaseStatusChanged(ctx context.Context, p *models.Purchase, previous models.PurchaseStatus) error {
	return nil
}

func (NoopPublisher) PublishSubscriptionCancelled(ctx context.Context, sub *models.Subscription, test bool) error {
	return nil
}

func (NoopPublisher) PublishBlocksInstalled(ctx context.Context, shop string, blockIDs []string) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
