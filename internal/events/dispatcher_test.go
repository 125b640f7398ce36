package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sweet-shop/internal/domain"
)

func TestDispatcher_DeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []EventType
	d.Subscribe(EventItemPurchased, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})
	d.Subscribe(EventItemRestocked, func(context.Context, Event) error {
		t.Fatal("restock handler must not see purchase events")
		return nil
	})

	actor := ActorFrom(domain.Principal{SubjectID: 3, Role: domain.RoleUser})
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventItemPurchased, 1, actor, StockChangedPayload{Delta: -1, Quantity: 4})))

	assert.Equal(t, []EventType{EventItemPurchased}, got)
}

func TestDispatcher_FailingHandlerDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0
	d.Subscribe(EventItemCreated, func(context.Context, Event) error { calls++; return boom })
	d.Subscribe(EventItemCreated, func(context.Context, Event) error { calls++; return nil })

	err := d.Publish(context.Background(), NewEvent(EventItemCreated, 1, Actor{}, nil))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestNewEvent(t *testing.T) {
	item := &domain.Item{ID: 5, Name: "Toffee", Category: "Candy", Price: 1.5, Quantity: 2}
	e := NewEvent(EventItemUpdated, item.ID, Actor{UserID: 1, Role: domain.RoleAdmin}, SnapshotOf(item))

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, ItemSnapshotPayload{Name: "Toffee", Category: "Candy", Price: 1.5, Quantity: 2}, e.Payload)
}
