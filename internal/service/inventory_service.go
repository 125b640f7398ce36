package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/events"
	"github.com/spec-kit/sweet-shop/internal/repository"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// InventoryService owns catalog CRUD and the two stock mutations. It holds no
// stock state of its own; every decision is made by the store.
type InventoryService struct {
	items      repository.ItemRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// InventoryDependencies bundles collaborators for the inventory service.
type InventoryDependencies struct {
	ItemRepo   repository.ItemRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ItemInput describes a new catalog item.
type ItemInput struct {
	Name     string
	Category string
	Price    float64
	Quantity int
}

// NewInventoryService constructs the service.
func NewInventoryService(deps InventoryDependencies) *InventoryService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		items:      deps.ItemRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create adds an item. Admin role is enforced by the caller.
func (s *InventoryService) Create(ctx context.Context, actor domain.Principal, input ItemInput) (*domain.Item, error) {
	item := &domain.Item{
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Price:    input.Price,
		Quantity: input.Quantity,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.items.Create(ctx, item); err != nil {
		return nil, s.storeError("create item", err)
	}

	s.publish(ctx, events.NewEvent(events.EventItemCreated, item.ID, events.ActorFrom(actor), events.SnapshotOf(item)))
	return item, nil
}

// Get returns a single item.
func (s *InventoryService) Get(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError("get item", id, err)
	}
	return item, nil
}

// List returns the whole catalog ordered by id.
func (s *InventoryService) List(ctx context.Context) ([]domain.Item, error) {
	items, err := s.items.List(ctx, domain.ItemFilter{})
	if err != nil {
		return nil, s.fault("list items", err)
	}
	return items, nil
}

// Search filters the catalog. Absent fields do not filter.
func (s *InventoryService) Search(ctx context.Context, filter domain.ItemFilter) ([]domain.Item, error) {
	for _, bound := range []*float64{filter.MinPrice, filter.MaxPrice} {
		if bound != nil && (math.IsNaN(*bound) || math.IsInf(*bound, 0)) {
			return nil, apperrors.NewValidationError("price bounds must be finite numbers", nil)
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, apperrors.NewValidationError("minPrice must not exceed maxPrice", map[string]any{
			"minPrice": *filter.MinPrice,
			"maxPrice": *filter.MaxPrice,
		})
	}

	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, s.fault("search items", err)
	}
	return items, nil
}

// Update applies a partial change. Admin role is enforced by the caller.
func (s *InventoryService) Update(ctx context.Context, actor domain.Principal, id int64, patch domain.ItemPatch) (*domain.Item, error) {
	if patch.Empty() {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if patch.Category != nil {
		category := strings.TrimSpace(*patch.Category)
		patch.Category = &category
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	item, err := s.items.Update(ctx, id, patch)
	if err != nil {
		return nil, s.mapStoreError("update item", id, err)
	}

	s.publish(ctx, events.NewEvent(events.EventItemUpdated, item.ID, events.ActorFrom(actor), events.SnapshotOf(item)))
	return item, nil
}

// Delete removes an item. Admin role is enforced by the caller.
func (s *InventoryService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	if err := s.items.Delete(ctx, id); err != nil {
		return s.mapStoreError("delete item", id, err)
	}
	s.publish(ctx, events.NewEvent(events.EventItemDeleted, id, events.ActorFrom(actor), nil))
	return nil
}

// Purchase takes exactly one unit of stock. The check and the decrement are a
// single conditional write in the store, so concurrent buyers cannot oversell.
func (s *InventoryService) Purchase(ctx context.Context, actor domain.Principal, id int64) (*domain.Item, error) {
	item, err := s.items.ConditionalDecrement(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			s.logger.Debug("purchase rejected: out of stock", zap.Int64("item_id", id), zap.Int64("user_id", actor.SubjectID))
			return nil, apperrors.NewOutOfStock(map[string]any{"id": id})
		}
		return nil, s.mapStoreError("purchase item", id, err)
	}

	actorInfo := events.ActorFrom(actor)
	s.publish(ctx, events.NewEvent(events.EventItemPurchased, item.ID, actorInfo,
		events.StockChangedPayload{Delta: -1, Quantity: item.Quantity}))
	if item.Quantity == 0 {
		s.publish(ctx, events.NewEvent(events.EventItemSoldOut, item.ID, actorInfo, events.SnapshotOf(item)))
	}
	return item, nil
}

// Restock adds amount units. amount must be positive.
func (s *InventoryService) Restock(ctx context.Context, actor domain.Principal, id int64, amount int) (*domain.Item, error) {
	if amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be greater than 0", map[string]any{"amount": amount})
	}

	item, err := s.items.Increment(ctx, id, amount)
	if err != nil {
		return nil, s.mapStoreError("restock item", id, err)
	}

	s.publish(ctx, events.NewEvent(events.EventItemRestocked, item.ID, events.ActorFrom(actor),
		events.StockChangedPayload{Delta: amount, Quantity: item.Quantity}))
	return item, nil
}

func (s *InventoryService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(event.Type)),
			zap.Int64("item_id", event.ItemID),
			zap.Error(err))
	}
}

func (s *InventoryService) mapStoreError(op string, id int64, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("item", map[string]any{"id": id})
	}
	return s.storeError(op, err)
}

// storeError turns a column overflow into caller-fixable input and anything
// else into a fault.
func (s *InventoryService) storeError(op string, err error) error {
	if errors.Is(err, repository.ErrOutOfRange) {
		s.logger.Debug("store rejected value", zap.String("op", op), zap.Error(err))
		return apperrors.NewValidationError("value out of range", nil)
	}
	return s.fault(op, err)
}

func (s *InventoryService) fault(op string, err error) error {
	s.logger.Error("inventory operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewInternalError(err)
}

func validateItem(item *domain.Item) error {
	details := map[string]any{}
	if item.Name == "" {
		details["name"] = "required"
	}
	if item.Category == "" {
		details["category"] = "required"
	}
	if !validPrice(item.Price) {
		details["price"] = priceRule
	}
	if item.Quantity < 0 {
		details["quantity"] = "must be non-negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid item", details)
	}
	return nil
}

func validatePatch(patch domain.ItemPatch) error {
	details := map[string]any{}
	if patch.Name != nil && *patch.Name == "" {
		details["name"] = "must not be empty"
	}
	if patch.Category != nil && *patch.Category == "" {
		details["category"] = "must not be empty"
	}
	if patch.Price != nil && !validPrice(*patch.Price) {
		details["price"] = priceRule
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		details["quantity"] = "must be non-negative"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid item", details)
	}
	return nil
}

const priceRule = "must be a number between 0 and 9999999999.99"

func validPrice(p float64) bool {
	return p >= 0 && p <= domain.MaxPrice && !math.IsNaN(p)
}
