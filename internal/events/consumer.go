package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/cartboost/cartboost-blocks-service/internal/config"
)

// BillingEventType identifies an event emitted by the platform's
// billing system.
type BillingEventType string

const (
	BillingEventChargeActivated BillingEventType = "charge.activated"
	BillingEventChargeCancelled BillingEventType = "charge.cancelled"
	BillingEventChargeDeclined  BillingEventType = "charge.declined"
)

// BillingEvent is a billing platform event as it arrives on the
// billing topic.
type BillingEvent struct {
	ID        string           `json:"id"`
	Type      BillingEventType `json:"type"`
	Shop      string           `json:"shop"`
	ChargeID  string           `json:"charge_id"`
	Test      bool             `json:"test"`
	Timestamp time.Time        `json:"timestamp"`
}

// BillingEventHandler reacts to billing platform events. Implemented by
// the billing service; charge.cancelled doubles as the reconciliation
// path that closes the crash window between an external cancellation
// and the local status update.
type BillingEventHandler interface {
	HandleChargeActivated(ctx context.Context, shop, chargeID string) error
	HandleChargeCancelled(ctx context.Context, shop, chargeID string) error
	HandleChargeDeclined(ctx context.Context, shop, chargeID string) error
}

// KafkaConsumer consumes billing platform events from Kafka.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler BillingEventHandler
	logger  zerolog.Logger
	stopCh  chan struct{}
}

// NewKafkaConsumer creates a new Kafka-based billing event consumer.
func NewKafkaConsumer(cfg config.KafkaConfig, handler BillingEventHandler, logger zerolog.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.BillingTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins consuming events. Blocks until the context is cancelled
// or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info().Msg("Starting billing event consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info().Msg("Billing event consumer stopped")
			return nil
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Error().Err(err).Msg("Failed to read message")
				continue
			}

			c.handleMessage(ctx, msg)
		}
	}
}

// Stop stops the consumer.
func (c *KafkaConsumer) Stop() {
	close(c.stopCh)
	c.reader.Close()
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	var event BillingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		c.logger.Error().Err(err).Msg("Failed to unmarshal billing event")
		return
	}

	if event.Shop == "" || event.ChargeID == "" {
		c.logger.Warn().Str("event_id", event.ID).Msg("Billing event missing shop or charge_id, skipping")
		return
	}

	logger := c.logger.With().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("shop", event.Shop).
		Str("charge_id", event.ChargeID).
		Logger()

	var err error
	switch event.Type {
	case BillingEventChargeActivated:
		err = c.handler.HandleChargeActivated(ctx, event.Shop, event.ChargeID)
	case BillingEventChargeCancelled:
		err = c.handler.HandleChargeCancelled(ctx, event.Shop, event.ChargeID)
	case BillingEventChargeDeclined:
		err = c.handler.HandleChargeDeclined(ctx, event.Shop, event.ChargeID)
	default:
		logger.Debug().Msg("Ignoring unknown billing event type")
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("Failed to handle billing event")
		return
	}

	logger.Info().Msg("Billing event handled")
}
