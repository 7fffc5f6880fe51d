// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/product"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// KV is the minimal key-value contract the cart store needs. Satisfied by
// the Redis client wrapper in production and by an in-memory map in tests.
// Get reports a key miss as a NotFound-kind error; any other error means
// the store could not answer.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Store handles cart business logic for session-scoped carts
type Store struct {
	kv          KV
	maxQuantity int
	ttl         time.Duration
	logger      *logrus.Logger
}

// NewStore creates a new cart store
func NewStore(kv KV, cfg *config.Config, logger *logrus.Logger) *Store {
	return &Store{
		kv:          kv,
		maxQuantity: cfg.Cart.MaxQuantity,
		ttl:         cfg.Cart.TTL,
		logger:      logger,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Get loads the cart for a session. A missing or unparseable stored cart is
// treated as an empty cart; a store failure is not, because a fabricated
// empty cart would overwrite the real document on the next mutation.
func (s *Store) Get(ctx context.Context, sessionID string) (*Cart, error) {
	if sessionID == "" {
		return nil, apperrors.Validation("session_required", "session ID is required")
	}

	data, err := s.kv.Get(ctx, cartKey(sessionID))
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		return s.emptyCart(sessionID), nil
	}
	if err != nil {
		return nil, apperrors.TransientStore("failed to load cart", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		s.logger.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err.Error(),
		}).Warn("Discarding unparseable cart state")
		return s.emptyCart(sessionID), nil
	}

	c.SessionID = sessionID
	c.Recompute()
	return &c, nil
}

// AddItem adds a sample variant to the cart. A line with the same
// (productID, variantKey) pair absorbs the added quantity instead of
// creating a duplicate line.
func (s *Store) AddItem(ctx context.Context, sessionID string, prod *product.Product, variant *product.SampleVariant, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("invalid_quantity", "quantity must be at least 1")
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if idx := c.findMergeLine(prod.ID, variant.VariantKey); idx >= 0 {
		c.Items[idx].Quantity = s.clampQuantity(c.Items[idx].Quantity + quantity)
	} else {
		c.Items = append(c.Items, LineItem{
			ID:         uuid.NewString(),
			ProductID:  prod.ID,
			VariantKey: variant.VariantKey,
			Name:       prod.Name,
			Category:   prod.Category,
			ImageURL:   prod.ImageURL,
			UnitPrice:  variant.UnitPrice,
			Quantity:   s.clampQuantity(quantity),
			AddedAt:    time.Now().UTC(),
		})
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity below 1
// removes the line. Unknown line ids signal NotFound.
func (s *Store) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := c.FindLine(lineID)
	if idx < 0 {
		return nil, apperrors.NotFound("line_not_found", "cart line not found")
	}

	if quantity < 1 {
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	} else {
		c.Items[idx].Quantity = s.clampQuantity(quantity)
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem removes a line from the cart. Removing a line that does not
// exist is a no-op.
func (s *Store) RemoveItem(ctx context.Context, sessionID, lineID string) (*Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := c.FindLine(lineID)
	if idx < 0 {
		return c, nil
	}

	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear empties the cart. Called by the order factory once an order has been
// durably created, and by the explicit clear endpoint.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return apperrors.Validation("session_required", "session ID is required")
	}
	if err := s.kv.Del(ctx, cartKey(sessionID)); err != nil {
		return apperrors.TransientStore("failed to clear cart", err)
	}
	return nil
}

func (s *Store) emptyCart(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: sessionID,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Store) save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = time.Now().UTC()
	c.Recompute()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}

	if err := s.kv.Set(ctx, cartKey(c.SessionID), data, s.ttl); err != nil {
		return apperrors.TransientStore("failed to persist cart", err)
	}
	return nil
}

func (s *Store) clampQuantity(quantity int) int {
	if quantity > s.maxQuantity {
		return s.maxQuantity
	}
	if quantity < 1 {
		return 1
	}
	return quantity
}
