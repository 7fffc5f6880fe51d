// internal/domain/order/factory.go
package order

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/cart"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// CartStore is the slice of the cart contract the factory needs: read the
// authoritative cart for a session and clear it once the order is durable.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

// Directory resolves buyer contact details for denormalizing onto orders.
type Directory interface {
	Contact(ctx context.Context, userID uint) (name, email string, err error)
}

// ProfileStore persists the buyer's shipping profile so future checkouts
// prefill with the last submitted address.
type ProfileStore interface {
	UpsertShippingProfile(ctx context.Context, userID uint, info ShippingInfo) error
}

// IdempotencyKV is the key-value contract backing the checkout idempotency
// ledger. Satisfied by the Redis client wrapper.
type IdempotencyKV interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ShippingInfo carries the shipping fields submitted at checkout.
type ShippingInfo struct {
	Address string `json:"shipping_address" binding:"required"`
	City    string `json:"shipping_city" binding:"required"`
	Country string `json:"shipping_country" binding:"required"`
	Phone   string `json:"shipping_phone" binding:"required"`
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingInfo
	Notes string `json:"notes,omitempty"`

	// IdempotencyKey is optional. When the client supplies one, a replayed
	// request within the idempotency window returns the order created by
	// the first request instead of creating a second one.
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// Factory converts a cart plus shipping details into an immutable order
// snapshot.
type Factory struct {
	orders   Repository
	carts    CartStore
	users    Directory
	profiles ProfileStore
	idem     IdempotencyKV
	window   time.Duration
	logger   *logrus.Logger
}

// NewFactory creates a new order factory
func NewFactory(orders Repository, carts CartStore, users Directory, profiles ProfileStore, idem IdempotencyKV, cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		orders:   orders,
		carts:    carts,
		users:    users,
		profiles: profiles,
		idem:     idem,
		window:   cfg.Payment.IdempotencyWindow,
		logger:   logger,
	}
}

// idemPlaceholder marks an idempotency key whose first request is still in
// flight.
const idemPlaceholder = "pending"

// CreateOrder validates the cart and shipping details, snapshots the cart
// into a new order and persists it. On success the cart is cleared and the
// buyer's shipping profile is upserted.
func (f *Factory) CreateOrder(ctx context.Context, userID uint, sessionID string, req *CreateOrderRequest) (o *Order, err error) {
	if req.IdempotencyKey != "" {
		existing, cerr := f.claimIdempotencyKey(ctx, userID, req.IdempotencyKey)
		if cerr != nil {
			return nil, cerr
		}
		if existing != nil {
			return existing, nil
		}

		// The claim must not outlive a failed attempt: a validation error or
		// store failure followed by a corrected retry has to go through, not
		// bounce off the stale placeholder.
		defer func() {
			if err == nil {
				return
			}
			if derr := f.idem.Del(ctx, f.idemKey(userID, req.IdempotencyKey)); derr != nil {
				f.logger.WithFields(logrus.Fields{
					"user_id": userID,
					"error":   derr.Error(),
				}).Warn("Failed to release idempotency key after failed checkout")
			}
		}()
	}

	c, err := f.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperrors.Validation("empty_cart", "cannot create an order from an empty cart")
	}

	if err := validateShippingInfo(&req.ShippingInfo); err != nil {
		return nil, err
	}

	name, email, err := f.users.Contact(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	o = &Order{
		OrderNumber:     generateOrderNumber(),
		UserID:          userID,
		CustomerName:    name,
		CustomerEmail:   email,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		LineItems:       snapshotLineItems(c),
		ShippingAddress: req.Address,
		ShippingCity:    req.City,
		ShippingCountry: req.Country,
		ShippingPhone:   req.Phone,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range o.LineItems {
		o.TotalAmount += o.LineItems[i].TotalPrice
	}

	if err := f.orders.Create(ctx, o); err != nil {
		// One regeneration retry on an order-number collision before
		// surfacing the conflict.
		if !apperrors.IsKind(err, apperrors.KindConflict) {
			return nil, err
		}
		o.OrderNumber = generateOrderNumber()
		if err := f.orders.Create(ctx, o); err != nil {
			return nil, err
		}
	}

	if err := f.carts.Clear(ctx, sessionID); err != nil {
		f.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"session_id":   sessionID,
			"error":        err.Error(),
		}).Warn("Failed to clear cart after order creation")
	}

	if err := f.profiles.UpsertShippingProfile(ctx, userID, req.ShippingInfo); err != nil {
		f.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"user_id":      userID,
			"error":        err.Error(),
		}).Warn("Failed to upsert shipping profile after order creation")
	}

	if req.IdempotencyKey != "" {
		if err := f.idem.Set(ctx, f.idemKey(userID, req.IdempotencyKey), o.OrderNumber, f.window); err != nil {
			f.logger.WithField("order_number", o.OrderNumber).
				Warn("Failed to record idempotency key; replay protection degraded")
		}
	}

	return o, nil
}

// claimIdempotencyKey reserves the key for this request. It returns the
// previously created order when the key has already completed, a Conflict
// error when the first request is still in flight, and (nil, nil) when the
// claim succeeded and order creation should proceed.
func (f *Factory) claimIdempotencyKey(ctx context.Context, userID uint, key string) (*Order, error) {
	stored, err := f.idem.SetNX(ctx, f.idemKey(userID, key), idemPlaceholder, f.window)
	if err != nil {
		return nil, apperrors.TransientStore("failed to reserve idempotency key", err)
	}
	if stored {
		return nil, nil
	}

	value, err := f.idem.Get(ctx, f.idemKey(userID, key))
	if err != nil {
		return nil, apperrors.TransientStore("failed to read idempotency key", err)
	}
	if value == idemPlaceholder {
		return nil, apperrors.Conflict("duplicate_request", "an identical request is already in progress")
	}

	existing, err := f.orders.ByNumber(ctx, value)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (f *Factory) idemKey(userID uint, key string) string {
	return fmt.Sprintf("checkout:idem:%d:%s", userID, key)
}

// snapshotLineItems deep-copies cart lines into frozen order lines carrying
// the price at checkout time.
func snapshotLineItems(c *cart.Cart) LineItems {
	items := make(LineItems, len(c.Items))
	for i, line := range c.Items {
		items[i] = LineItem{
			ProductID:  line.ProductID,
			VariantKey: line.VariantKey,
			Name:       line.Name,
			Category:   line.Category,
			ImageURL:   line.ImageURL,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
			TotalPrice: line.LineTotal(),
		}
	}
	return items
}

func validateShippingInfo(info *ShippingInfo) error {
	missing := ""
	switch {
	case info.Address == "":
		missing = "shipping_address"
	case info.City == "":
		missing = "shipping_city"
	case info.Country == "":
		missing = "shipping_country"
	case info.Phone == "":
		missing = "shipping_phone"
	}
	if missing != "" {
		return apperrors.Validation("missing_"+missing, missing+" is required")
	}
	return nil
}

const orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateOrderNumber produces a number in the form
// ORD-<epoch millis>-<6 random uppercase alphanumerics>. Uniqueness is
// ultimately backstopped by the database constraint, not this format.
func generateOrderNumber() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// Extremely unlikely; fall back to a time-derived suffix.
		return fmt.Sprintf("ORD-%d-%06d", time.Now().UnixMilli(), time.Now().Nanosecond()%1000000)
	}
	for i := range buf {
		buf[i] = orderNumberCharset[int(buf[i])%len(orderNumberCharset)]
	}
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), string(buf))
}
