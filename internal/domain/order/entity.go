// internal/domain/order/entity.go
package order

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Order represents a placed order. Everything except Status, PaymentStatus
// and UpdatedAt is frozen at creation time: LineItems is a snapshot of the
// cart, and TotalAmount is never recomputed from current catalog prices.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID        uint          `gorm:"not null;index" json:"user_id"`
	CustomerName  string        `gorm:"size:200" json:"customer_name"`
	CustomerEmail string        `gorm:"size:255;index" json:"customer_email"`
	Status        OrderStatus   `gorm:"not null;default:'pending';size:20" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';size:20" json:"payment_status"`

	// Snapshot of the cart at checkout time, stored as an embedded JSON
	// array so later catalog edits cannot reach into historical orders.
	LineItems   LineItems `gorm:"serializer:json;type:jsonb" json:"line_items"`
	TotalAmount int64     `gorm:"not null" json:"total_amount"` // In cents

	// Shipping information
	ShippingAddress string `gorm:"not null;size:255" json:"shipping_address"`
	ShippingCity    string `gorm:"not null;size:100" json:"shipping_city"`
	ShippingCountry string `gorm:"not null;size:100" json:"shipping_country"`
	ShippingPhone   string `gorm:"not null;size:30" json:"shipping_phone"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// LineItem is one frozen order line. It deliberately carries its own copy of
// the display fields and unit price instead of referencing live products.
type LineItem struct {
	ProductID  uint   `json:"product_id"`
	VariantKey string `json:"variant_key"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	ImageURL   string `json:"image_url"`
	UnitPrice  int64  `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	TotalPrice int64  `json:"total_price"` // UnitPrice * Quantity
}

// LineItems is the serialized order line collection.
type LineItems []LineItem

// Payment tracks the gateway-side payment for an order and the ledger of
// webhook events already applied to it.
type Payment struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	PaymentIntentID   string        `gorm:"uniqueIndex;not null;size:255" json:"payment_intent_id"`
	OrderNumber       string        `gorm:"index;size:50" json:"order_number"`
	Status            PaymentStatus `gorm:"not null;default:'pending';size:20" json:"status"`
	ProcessedEventIDs EventIDSet    `gorm:"serializer:json;type:jsonb" json:"processed_event_ids"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// EventIDSet records webhook event ids that have already been applied.
type EventIDSet []string

// Contains reports whether the set holds the given event id.
func (s EventIDSet) Contains(eventID string) bool {
	for _, id := range s {
		if id == eventID {
			return true
		}
	}
	return false
}

// Add returns the set extended with the event id, without duplicates.
func (s EventIDSet) Add(eventID string) EventIDSet {
	if s.Contains(eventID) {
		return s
	}
	return append(s, eventID)
}

// TableName overrides
func (Order) TableName() string   { return "orders" }
func (Payment) TableName() string { return "payments" }

// IsTerminal reports whether no further order status transition is allowed.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// GetFormattedTotal returns total amount as float
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}
