package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventItemCreated   EventType = "item_created"
	EventItemUpdated   EventType = "item_updated"
	EventItemDeleted   EventType = "item_deleted"
	EventItemPurchased EventType = "item_purchased"
	EventItemRestocked EventType = "item_restocked"
	EventItemSoldOut   EventType = "item_sold_out"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom builds the actor block from a verified principal.
func ActorFrom(p domain.Principal) Actor {
	return Actor{UserID: p.SubjectID, Role: p.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ItemID    int64       `json:"item_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, itemID int64, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ItemID:    itemID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// StockChangedPayload is attached to purchase and restock events.
type StockChangedPayload struct {
	Delta    int `json:"delta"`
	Quantity int `json:"quantity"`
}

// ItemSnapshotPayload is attached to create and update events.
type ItemSnapshotPayload struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// SnapshotOf copies the catalog fields of an item.
func SnapshotOf(item *domain.Item) ItemSnapshotPayload {
	return ItemSnapshotPayload{
		Name:     item.Name,
		Category: item.Category,
		Price:    item.Price,
		Quantity: item.Quantity,
	}
}
