// internal/domain/order/factory_test.go
package order

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/cart"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// fakeRepository keeps orders in memory keyed by order number.
type fakeRepository struct {
	orders      map[string]*Order
	nextID      uint
	failCreates int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{orders: make(map[string]*Order), nextID: 1}
}

func (r *fakeRepository) Create(_ context.Context, o *Order) error {
	if r.failCreates > 0 {
		r.failCreates--
		return apperrors.Conflict("order_number_collision", "order number already exists")
	}
	if _, exists := r.orders[o.OrderNumber]; exists {
		return apperrors.Conflict("order_number_collision", "order number already exists")
	}
	o.ID = r.nextID
	r.nextID++
	cp := *o
	r.orders[o.OrderNumber] = &cp
	return nil
}

func (r *fakeRepository) ByID(_ context.Context, id uint) (*Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("order_not_found", "order not found")
}

func (r *fakeRepository) ByNumber(_ context.Context, number string) (*Order, error) {
	o, ok := r.orders[number]
	if !ok {
		return nil, apperrors.NotFound("order_not_found", "order not found")
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepository) List(_ context.Context, _ *ListRequest) ([]Order, int64, error) {
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepository) SetStatusIf(_ context.Context, number string, from, to OrderStatus) (bool, error) {
	o, ok := r.orders[number]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeRepository) SetPaymentStatusIf(_ context.Context, number string, from, to PaymentStatus) (bool, error) {
	o, ok := r.orders[number]
	if !ok || o.PaymentStatus != from {
		return false, nil
	}
	o.PaymentStatus = to
	return true, nil
}

// fakeCartStore serves a canned cart per session and records clears.
type fakeCartStore struct {
	carts   map[string]*cart.Cart
	cleared []string
}

func (s *fakeCartStore) Get(_ context.Context, sessionID string) (*cart.Cart, error) {
	if c, ok := s.carts[sessionID]; ok {
		return c, nil
	}
	return &cart.Cart{SessionID: sessionID, Items: []cart.LineItem{}}, nil
}

func (s *fakeCartStore) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type fakeDirectory struct{}

func (fakeDirectory) Contact(_ context.Context, _ uint) (string, string, error) {
	return "Priya Sharma", "priya@example.com", nil
}

type fakeProfileStore struct {
	upserts []ShippingInfo
}

func (s *fakeProfileStore) UpsertShippingProfile(_ context.Context, _ uint, info ShippingInfo) error {
	s.upserts = append(s.upserts, info)
	return nil
}

// fakeIdemKV implements the idempotency key-value contract in memory.
type fakeIdemKV struct {
	data map[string]string
}

func newFakeIdemKV() *fakeIdemKV {
	return &fakeIdemKV{data: make(map[string]string)}
}

func (kv *fakeIdemKV) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	if _, exists := kv.data[key]; exists {
		return false, nil
	}
	kv.data[key] = value.(string)
	return true, nil
}

func (kv *fakeIdemKV) Get(_ context.Context, key string) (string, error) {
	return kv.data[key], nil
}

func (kv *fakeIdemKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	kv.data[key] = value.(string)
	return nil
}

func (kv *fakeIdemKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(kv.data, k)
	}
	return nil
}

type factoryFixture struct {
	factory  *Factory
	repo     *fakeRepository
	carts    *fakeCartStore
	profiles *fakeProfileStore
	idem     *fakeIdemKV
}

func newFactoryFixture() *factoryFixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		Payment: config.PaymentConfig{IdempotencyWindow: 24 * time.Hour},
	}

	repo := newFakeRepository()
	carts := &fakeCartStore{carts: map[string]*cart.Cart{}}
	profiles := &fakeProfileStore{}
	idem := newFakeIdemKV()

	return &factoryFixture{
		factory:  NewFactory(repo, carts, fakeDirectory{}, profiles, idem, cfg, logger),
		repo:     repo,
		carts:    carts,
		profiles: profiles,
		idem:     idem,
	}
}

func stockedCart(sessionID string) *cart.Cart {
	c := &cart.Cart{
		SessionID: sessionID,
		Items: []cart.LineItem{
			{
				ID:         "line-1",
				ProductID:  1,
				VariantKey: "250g",
				Name:       "Assam Black Tea",
				Category:   "tea",
				UnitPrice:  1250,
				Quantity:   2,
			},
			{
				ID:         "line-2",
				ProductID:  2,
				VariantKey: "100g",
				Name:       "Malabar Peppercorn",
				Category:   "spice",
				UnitPrice:  800,
				Quantity:   1,
			},
		},
	}
	c.Recompute()
	return c
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		ShippingInfo: ShippingInfo{
			Address: "14 MG Road",
			City:    "Bengaluru",
			Country: "India",
			Phone:   "+91 98450 00000",
		},
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the cart and freezes prices", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")

		o, err := f.factory.CreateOrder(ctx, 42, "sess-1", validRequest())

		require.NoError(t, err)
		assert.Equal(t, uint(42), o.UserID)
		assert.Equal(t, OrderStatusPending, o.Status)
		assert.Equal(t, PaymentStatusPending, o.PaymentStatus)
		assert.Equal(t, "Priya Sharma", o.CustomerName)
		assert.Equal(t, "priya@example.com", o.CustomerEmail)

		require.Len(t, o.LineItems, 2)
		assert.Equal(t, int64(2500), o.LineItems[0].TotalPrice)
		assert.Equal(t, int64(800), o.LineItems[1].TotalPrice)
		assert.Equal(t, int64(3300), o.TotalAmount)
	})

	t.Run("order number has the expected shape", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")

		o, err := f.factory.CreateOrder(ctx, 42, "sess-1", validRequest())

		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^ORD-\d+-[A-Z0-9]{6}$`), o.OrderNumber)
	})

	t.Run("clears the cart and upserts the shipping profile", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")

		_, err := f.factory.CreateOrder(ctx, 42, "sess-1", validRequest())

		require.NoError(t, err)
		assert.Equal(t, []string{"sess-1"}, f.carts.cleared)
		require.Len(t, f.profiles.upserts, 1)
		assert.Equal(t, "Bengaluru", f.profiles.upserts[0].City)
	})

	t.Run("empty cart is rejected before any writes", func(t *testing.T) {
		f := newFactoryFixture()

		_, err := f.factory.CreateOrder(ctx, 42, "sess-empty", validRequest())

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		assert.Empty(t, f.repo.orders)
		assert.Empty(t, f.carts.cleared)
	})

	t.Run("missing shipping fields are named individually", func(t *testing.T) {
		tests := []struct {
			mutate func(*CreateOrderRequest)
			code   string
		}{
			{func(r *CreateOrderRequest) { r.Address = "" }, "missing_shipping_address"},
			{func(r *CreateOrderRequest) { r.City = "" }, "missing_shipping_city"},
			{func(r *CreateOrderRequest) { r.Country = "" }, "missing_shipping_country"},
			{func(r *CreateOrderRequest) { r.Phone = "" }, "missing_shipping_phone"},
		}
		for _, tt := range tests {
			f := newFactoryFixture()
			f.carts.carts["sess-1"] = stockedCart("sess-1")
			req := validRequest()
			tt.mutate(req)

			_, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)

			require.Error(t, err)
			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		}
	})

	t.Run("retries once on an order number collision", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")
		f.repo.failCreates = 1

		o, err := f.factory.CreateOrder(ctx, 42, "sess-1", validRequest())

		require.NoError(t, err)
		assert.NotEmpty(t, o.OrderNumber)
		assert.Len(t, f.repo.orders, 1)
	})

	t.Run("two collisions surface the conflict", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")
		f.repo.failCreates = 2

		_, err := f.factory.CreateOrder(ctx, 42, "sess-1", validRequest())

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})
}

func TestCreateOrderIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("replayed key returns the original order", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")
		req := validRequest()
		req.IdempotencyKey = "idem-abc"

		first, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)
		require.NoError(t, err)

		// The cart is empty after the first order; a naive retry would fail
		// on empty_cart, the idempotent path must short-circuit before that.
		f.carts.carts["sess-1"] = &cart.Cart{SessionID: "sess-1", Items: []cart.LineItem{}}

		second, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)
		require.NoError(t, err)

		assert.Equal(t, first.OrderNumber, second.OrderNumber)
		assert.Len(t, f.repo.orders, 1)
	})

	t.Run("failed attempt releases the key for a corrected retry", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")

		req := validRequest()
		req.IdempotencyKey = "idem-abc"
		req.Phone = ""
		_, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)
		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

		req.Phone = "+91 98450 00000"
		o, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)

		require.NoError(t, err)
		assert.NotEmpty(t, o.OrderNumber)
		assert.Len(t, f.repo.orders, 1)
	})

	t.Run("creation failure releases the key for a plain retry", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")
		f.repo.failCreates = 2 // both creation attempts lose

		req := validRequest()
		req.IdempotencyKey = "idem-abc"
		_, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)
		require.Error(t, err)

		f.repo.failCreates = 0
		o, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)

		require.NoError(t, err)
		assert.NotEmpty(t, o.OrderNumber)
	})

	t.Run("in-flight duplicate is a conflict", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")

		// Simulate a first request that claimed the key but has not finished.
		f.idem.data["checkout:idem:42:idem-abc"] = "pending"

		req := validRequest()
		req.IdempotencyKey = "idem-abc"
		_, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		f := newFactoryFixture()
		f.carts.carts["sess-1"] = stockedCart("sess-1")
		f.carts.carts["sess-2"] = stockedCart("sess-2")

		req := validRequest()
		req.IdempotencyKey = "idem-abc"

		first, err := f.factory.CreateOrder(ctx, 42, "sess-1", req)
		require.NoError(t, err)
		second, err := f.factory.CreateOrder(ctx, 43, "sess-2", req)
		require.NoError(t, err)

		assert.NotEqual(t, first.OrderNumber, second.OrderNumber)
		assert.Len(t, f.repo.orders, 2)
	})
}
