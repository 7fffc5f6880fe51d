// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// LineItem represents one entry in a session cart. ID is generated server
// side when the line is first created and is the handle clients use for
// quantity updates and removal.
type LineItem struct {
	ID         string    `json:"id"`
	ProductID  uint      `json:"product_id"`
	VariantKey string    `json:"variant_key"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	ImageURL   string    `json:"image_url"`
	UnitPrice  int64     `json:"unit_price"` // In cents, price at time of adding
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

// LineTotal returns the extended price of the line.
func (li *LineItem) LineTotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// Cart is the persisted cart document for one browsing session. Count and
// Total are derived from Items and recomputed on every mutation.
type Cart struct {
	SessionID string     `json:"session_id"`
	Items     []LineItem `json:"items"`
	Count     int        `json:"count"`
	Total     int64      `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Recompute refreshes the derived Count and Total fields from Items.
func (c *Cart) Recompute() {
	c.Count = 0
	c.Total = 0
	for i := range c.Items {
		c.Count += c.Items[i].Quantity
		c.Total += c.Items[i].LineTotal()
	}
}

// FindLine returns the index of the line with the given id, or -1.
func (c *Cart) FindLine(lineID string) int {
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			return i
		}
	}
	return -1
}

// findMergeLine returns the index of the line matching the merge key, or -1.
func (c *Cart) findMergeLine(productID uint, variantKey string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariantKey == variantKey {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
