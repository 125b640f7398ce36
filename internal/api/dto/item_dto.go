package dto

import "github.com/spec-kit/sweet-shop/internal/domain"

// CreateItemRequest payload for POST /api/sweets.
type CreateItemRequest struct {
	Name     string   `json:"name" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Price    *float64 `json:"price" validate:"required,gte=0,lte=9999999999.99"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}

// UpdateItemRequest payload for PUT /api/sweets/:id. Absent fields are kept.
type UpdateItemRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=1"`
	Category *string  `json:"category" validate:"omitempty,min=1"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0,lte=9999999999.99"`
	Quantity *int     `json:"quantity" validate:"omitempty,gte=0"`
}

// Patch converts the request into a domain patch.
func (r UpdateItemRequest) Patch() domain.ItemPatch {
	return domain.ItemPatch{
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

// RestockRequest payload for POST /api/sweets/:id/restock.
type RestockRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

// SearchQuery is bound from GET /api/sweets/search query parameters.
type SearchQuery struct {
	Name     string `query:"name"`
	Category string `query:"category"`
	MinPrice string `query:"minPrice"`
	MaxPrice string `query:"maxPrice"`
}
