package domain

import "time"

// MaxPrice is the largest price the store can hold, NUMERIC(12,2). Prices
// are kept to cents; finer fractions are rounded on write.
const MaxPrice = 9_999_999_999.99

// Item is a purchasable product with a non-negative stock counter.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemPatch carries the fields an update should change. Nil means untouched.
type ItemPatch struct {
	Name     *string
	Category *string
	Price    *float64
	Quantity *int
}

// Empty reports whether the patch would change nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Price == nil && p.Quantity == nil
}

// ItemFilter narrows a catalog listing. Nil fields do not filter.
type ItemFilter struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}
