package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/events"
)

// EventSink appends flattened events to an external stream.
type EventSink interface {
	Append(ctx context.Context, stream string, values map[string]interface{}) error
}

// NotificationService fans inventory events out to the log and, when a sink
// is configured, to a durable stream for downstream consumers.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sink       EventSink
	stream     string
}

// NewNotificationService creates the service. sink may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, sink EventSink, stream string) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		sink:       sink,
		stream:     stream,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventItemCreated, n.handleCatalogChanged)
	n.dispatcher.Subscribe(events.EventItemUpdated, n.handleCatalogChanged)
	n.dispatcher.Subscribe(events.EventItemDeleted, n.handleCatalogChanged)
	n.dispatcher.Subscribe(events.EventItemPurchased, n.handleStockChanged)
	n.dispatcher.Subscribe(events.EventItemRestocked, n.handleStockChanged)
	n.dispatcher.Subscribe(events.EventItemSoldOut, n.handleSoldOut)
}

func (n *NotificationService) handleCatalogChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("catalog changed",
		zap.String("event_type", string(event.Type)),
		zap.Int64("item_id", event.ItemID),
		zap.Int64("actor_id", event.Actor.UserID))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleStockChanged(ctx context.Context, event events.Event) error {
	n.logger.Debug("stock changed",
		zap.String("event_type", string(event.Type)),
		zap.Int64("item_id", event.ItemID),
		zap.Any("payload", event.Payload))
	return n.forward(ctx, event)
}

func (n *NotificationService) handleSoldOut(ctx context.Context, event events.Event) error {
	n.logger.Warn("item sold out", zap.Int64("item_id", event.ItemID))
	return n.forward(ctx, event)
}

func (n *NotificationService) forward(ctx context.Context, event events.Event) error {
	if n.sink == nil || n.stream == "" {
		return nil
	}
	values, err := flattenEvent(event)
	if err != nil {
		return err
	}
	if err := n.sink.Append(ctx, n.stream, values); err != nil {
		return fmt.Errorf("append %s to %s: %w", event.Type, n.stream, err)
	}
	return nil
}

func flattenEvent(event events.Event) (map[string]interface{}, error) {
	values := map[string]interface{}{
		"id":         event.ID,
		"type":       string(event.Type),
		"item_id":    strconv.FormatInt(event.ItemID, 10),
		"actor_id":   strconv.FormatInt(event.Actor.UserID, 10),
		"actor_role": string(event.Actor.Role),
		"timestamp":  event.Timestamp.Format(time.RFC3339Nano),
	}
	if event.Payload != nil {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", event.Type, err)
		}
		values["payload"] = string(payload)
	}
	return values, nil
}
