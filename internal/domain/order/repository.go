// internal/domain/order/repository.go
package order

import (
	"context"
)

// ListRequest represents order list query parameters
type ListRequest struct {
	Page          int           `form:"page,default=1"`
	Limit         int           `form:"limit,default=20"`
	Status        OrderStatus   `form:"status"`
	PaymentStatus PaymentStatus `form:"payment_status"`
	UserID        uint          `form:"user_id"`
	Search        string        `form:"q"`
	SortBy        string        `form:"sort_by,default=created_at"`
	SortOrder     string        `form:"sort_order,default=desc"`
}

// Repository is the persistence contract for orders. The postgres
// implementation backs it with a unique constraint on order_number and
// guarded UPDATEs for the two status columns, so transitions are conditional
// writes rather than blind overwrites.
type Repository interface {
	// Create persists a new order. A duplicate order number surfaces as a
	// Conflict error.
	Create(ctx context.Context, o *Order) error

	ByID(ctx context.Context, id uint) (*Order, error)
	ByNumber(ctx context.Context, number string) (*Order, error)
	List(ctx context.Context, req *ListRequest) ([]Order, int64, error)

	// SetStatusIf moves the order status from one value to another only if
	// the stored status still matches from. Returns whether the write
	// applied.
	SetStatusIf(ctx context.Context, number string, from, to OrderStatus) (bool, error)

	// SetPaymentStatusIf is the payment-status counterpart of SetStatusIf.
	SetPaymentStatusIf(ctx context.Context, number string, from, to PaymentStatus) (bool, error)
}
