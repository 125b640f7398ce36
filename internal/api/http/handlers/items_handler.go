package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sweet-shop/internal/api/dto"
	"github.com/spec-kit/sweet-shop/internal/auth"
	"github.com/spec-kit/sweet-shop/internal/domain"
	"github.com/spec-kit/sweet-shop/internal/observability"
	"github.com/spec-kit/sweet-shop/internal/service"
	apperrors "github.com/spec-kit/sweet-shop/pkg/util/errorutil"
)

// ItemsHandler exposes the catalog and stock endpoints.
type ItemsHandler struct {
	inventory *service.InventoryService
	validator *RequestValidator
	metrics   *observability.Metrics
}

// NewItemsHandler constructs handler. metrics may be nil.
func NewItemsHandler(inventory *service.InventoryService, validator *RequestValidator, metrics *observability.Metrics) *ItemsHandler {
	return &ItemsHandler{inventory: inventory, validator: validator, metrics: metrics}
}

// List GET /api/sweets.
func (h *ItemsHandler) List(c *fiber.Ctx) error {
	items, err := h.inventory.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Search GET /api/sweets/search.
func (h *ItemsHandler) Search(c *fiber.Ctx) error {
	var q dto.SearchQuery
	if err := c.QueryParser(&q); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}

	filter := domain.ItemFilter{
		Name:     optionalString(q.Name),
		Category: optionalString(q.Category),
	}
	var err error
	if filter.MinPrice, err = optionalFloat("minPrice", q.MinPrice); err != nil {
		return err
	}
	if filter.MaxPrice, err = optionalFloat("maxPrice", q.MaxPrice); err != nil {
		return err
	}

	items, err := h.inventory.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Get GET /api/sweets/:id.
func (h *ItemsHandler) Get(c *fiber.Ctx) error {
	id, err := itemID(c)
	if err != nil {
		return err
	}
	item, err := h.inventory.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// Create POST /api/sweets.
func (h *ItemsHandler) Create(c *fiber.Ctx) error {
	principal, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	input := service.ItemInput{Name: req.Name, Category: req.Category, Price: *req.Price}
	if req.Quantity != nil {
		input.Quantity = *req.Quantity
	}
	item, err := h.inventory.Create(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(item)
}

// Update PUT /api/sweets/:id.
func (h *ItemsHandler) Update(c *fiber.Ctx) error {
	principal, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	item, err := h.inventory.Update(c.UserContext(), principal, id, req.Patch())
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// Delete DELETE /api/sweets/:id.
func (h *ItemsHandler) Delete(c *fiber.Ctx) error {
	principal, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := itemID(c)
	if err != nil {
		return err
	}
	if err := h.inventory.Delete(c.UserContext(), principal, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Purchase POST /api/sweets/:id/purchase.
func (h *ItemsHandler) Purchase(c *fiber.Ctx) error {
	principal, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := itemID(c)
	if err != nil {
		return err
	}

	item, err := h.inventory.Purchase(c.UserContext(), principal, id)
	h.metrics.RecordPurchase(purchaseResult(err))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// Restock POST /api/sweets/:id/restock.
func (h *ItemsHandler) Restock(c *fiber.Ctx) error {
	principal, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := itemID(c)
	if err != nil {
		return err
	}
	var req dto.RestockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.validator.Validate(req); err != nil {
		return err
	}

	item, err := h.inventory.Restock(c.UserContext(), principal, id, req.Amount)
	if err != nil {
		return err
	}
	h.metrics.RecordRestock(req.Amount)
	return c.JSON(item)
}

func callerOf(c *fiber.Ctx) (domain.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func itemID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid item id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalFloat(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid number", map[string]any{field: raw})
	}
	return &v, nil
}

func purchaseResult(err error) string {
	switch apperrors.KindOf(err) {
	case "":
		return observability.PurchaseSuccess
	case apperrors.KindOutOfStock:
		return observability.PurchaseOutOfStock
	case apperrors.KindNotFound:
		return observability.PurchaseNotFound
	default:
		return observability.PurchaseError
	}
}
