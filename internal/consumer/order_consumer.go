package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/robinhoot/robinhoot_api/internal/config"
	"github.com/robinhoot/robinhoot_api/internal/metrics"
	"github.com/robinhoot/robinhoot_api/internal/service"
)

// Order event types carried in the message key.
const (
	EventOrderCreated   = "created"
	EventOrderCancelled = "cancelled"
)

// OrderLine is one product line of an order event.
type OrderLine struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// OrderEvent is the payload published by the order service.
type OrderEvent struct {
	OrderID         int         `json:"orderId"`
	ProductRequests []OrderLine `json:"productRequests"`
}

// StockAdjuster applies stock deltas and reprices the affected product.
type StockAdjuster interface {
	ApplyStockDelta(ctx context.Context, productID, delta int) (*service.RepriceResult, error)
}

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// OrderConsumer listens for order events and keeps stock and prices in step.
type OrderConsumer struct {
	reader MessageReader
	stock  StockAdjuster
}

// NewKafkaReader builds the order topic reader from configuration.
func NewKafkaReader(cfg *config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.OrderTopic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
}

// NewOrderConsumer constructs an OrderConsumer.
func NewOrderConsumer(reader MessageReader, stock StockAdjuster) *OrderConsumer {
	return &OrderConsumer{reader: reader, stock: stock}
}

// Start reads messages until ctx is canceled, then closes the reader.
func (c *OrderConsumer) Start(ctx context.Context) {
	log.Info().Msg("Starting order event consumer")
	defer func() {
		if err := c.reader.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka reader")
		}
		log.Info().Msg("Order event consumer stopped")
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Msg("Error reading order event")
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		c.processMessage(ctx, msg)
	}
}

func (c *OrderConsumer) processMessage(ctx context.Context, msg kafka.Message) {
	eventType, err := ParseEventType(string(msg.Key))
	if err != nil {
		metrics.RecordOrderEvent("unknown", "skipped")
		log.Warn().Err(err).Str("key", string(msg.Key)).Msg("Skipping order event")
		return
	}

	var event OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		metrics.RecordOrderEvent(eventType, "invalid")
		log.Error().Err(err).Str("key", string(msg.Key)).Msg("Error unmarshalling order event")
		return
	}

	sign := -1
	if eventType == EventOrderCancelled {
		sign = 1
	}

	outcome := "processed"
	for _, line := range event.ProductRequests {
		if line.ProductID <= 0 || line.Quantity <= 0 {
			continue
		}
		if _, err := c.stock.ApplyStockDelta(ctx, line.ProductID, sign*line.Quantity); err != nil {
			outcome = "failed"
			log.Error().Err(err).
				Int("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Str("event", eventType).
				Msg("Error updating stock for order line")
		}
	}
	metrics.RecordOrderEvent(eventType, outcome)
}

// ParseEventType extracts the event type from keys of the form
// "order.{type}.{orderId}".
func ParseEventType(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) < 2 || parts[0] != "order" {
		return "", fmt.Errorf("unrecognized order event key %q", key)
	}
	switch parts[1] {
	case EventOrderCreated, EventOrderCancelled:
		return parts[1], nil
	default:
		return "", fmt.Errorf("unknown order event type %q", parts[1])
	}
}
