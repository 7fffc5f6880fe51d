// internal/domain/payment/processor_test.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

const testSecret = "whsec_test_secret"

// fakeStore keeps payments and orders in memory. Transaction simply runs the
// callback against the same store; rollback behavior is covered by the
// postgres implementation.
type fakeStore struct {
	payments map[string]*order.Payment
	orders   map[string]*order.Order

	failLookup bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		payments: make(map[string]*order.Payment),
		orders:   make(map[string]*order.Order),
	}
}

func (s *fakeStore) Transaction(_ context.Context, fn func(tx Store) error) error {
	return fn(s)
}

func (s *fakeStore) PaymentByIntentID(_ context.Context, intentID string) (*order.Payment, error) {
	if s.failLookup {
		return nil, errors.New("connection reset by peer")
	}
	p, ok := s.payments[intentID]
	if !ok {
		return nil, apperrors.NotFound("payment_not_found", "payment not found")
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) SavePayment(_ context.Context, p *order.Payment) error {
	cp := *p
	s.payments[p.PaymentIntentID] = &cp
	return nil
}

func (s *fakeStore) OrderByNumber(_ context.Context, number string) (*order.Order, error) {
	o, ok := s.orders[number]
	if !ok {
		return nil, apperrors.NotFound("order_not_found", "order not found")
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) SetOrderStatusIf(_ context.Context, number string, from, to order.OrderStatus) (bool, error) {
	o, ok := s.orders[number]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (s *fakeStore) SetOrderPaymentStatusIf(_ context.Context, number string, from, to order.PaymentStatus) (bool, error) {
	o, ok := s.orders[number]
	if !ok || o.PaymentStatus != from {
		return false, nil
	}
	o.PaymentStatus = to
	return true, nil
}

func newTestProcessor(store Store) *Processor {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		Payment: config.PaymentConfig{
			WebhookSecret: testSecret,
			StoreTimeout:  time.Second,
		},
	}
	return NewProcessor(store, cfg, logger)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func eventBody(eventID, eventType, intentID, orderNumber string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"data":{"object":{"id":%q,"amount":3300,"currency":"inr","metadata":{"order_number":%q}}}}`,
		eventID, eventType, intentID, orderNumber,
	))
}

func pendingOrder(number string) *order.Order {
	return &order.Order{
		ID:            1,
		OrderNumber:   number,
		Status:        order.OrderStatusPending,
		PaymentStatus: order.PaymentStatusPending,
	}
}

func TestHandleWebhookSignature(t *testing.T) {
	ctx := context.Background()

	t.Run("missing signature is rejected", func(t *testing.T) {
		p := newTestProcessor(newFakeStore())
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, "")

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidSignature))
	})

	t.Run("wrong signature is rejected without touching the store", func(t *testing.T) {
		store := newFakeStore()
		store.failLookup = true // would error if reached
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, "deadbeef")

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidSignature))
	})

	t.Run("signature over a different body is rejected", func(t *testing.T) {
		p := newTestProcessor(newFakeStore())
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")
		other := eventBody("evt_2", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, sign(other))

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidSignature))
	})
}

func TestHandleWebhookValidation(t *testing.T) {
	ctx := context.Background()
	p := newTestProcessor(newFakeStore())

	t.Run("invalid json", func(t *testing.T) {
		body := []byte(`{not json`)

		err := p.HandleWebhook(ctx, body, sign(body))

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})

	t.Run("missing required fields", func(t *testing.T) {
		body := []byte(`{"id":"evt_1","type":""}`)

		err := p.HandleWebhook(ctx, body, sign(body))

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
	})
}

func TestHandleWebhookSucceeded(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the order paid and confirmed", func(t *testing.T) {
		store := newFakeStore()
		store.orders["ORD-1"] = pendingOrder("ORD-1")
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, sign(body))

		require.NoError(t, err)
		assert.Equal(t, order.PaymentStatusPaid, store.orders["ORD-1"].PaymentStatus)
		assert.Equal(t, order.OrderStatusConfirmed, store.orders["ORD-1"].Status)

		pay := store.payments["pi_1"]
		require.NotNil(t, pay)
		assert.Equal(t, order.PaymentStatusPaid, pay.Status)
		assert.True(t, pay.ProcessedEventIDs.Contains("evt_1"))
	})

	t.Run("does not regress an order already shipped", func(t *testing.T) {
		store := newFakeStore()
		o := pendingOrder("ORD-1")
		o.Status = order.OrderStatusShipped
		store.orders["ORD-1"] = o
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, sign(body))

		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusShipped, store.orders["ORD-1"].Status)
		assert.Equal(t, order.PaymentStatusPaid, store.orders["ORD-1"].PaymentStatus)
	})
}

func TestHandleWebhookFailed(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.orders["ORD-1"] = pendingOrder("ORD-1")
	p := newTestProcessor(store)
	body := eventBody("evt_1", EventPaymentFailed, "pi_1", "ORD-1")

	err := p.HandleWebhook(ctx, body, sign(body))

	require.NoError(t, err)
	assert.Equal(t, order.PaymentStatusFailed, store.orders["ORD-1"].PaymentStatus)
	assert.Equal(t, order.OrderStatusPending, store.orders["ORD-1"].Status)
}

func TestHandleWebhookDedup(t *testing.T) {
	ctx := context.Background()

	t.Run("redelivered event is acknowledged without reapplying", func(t *testing.T) {
		store := newFakeStore()
		store.orders["ORD-1"] = pendingOrder("ORD-1")
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		require.NoError(t, p.HandleWebhook(ctx, body, sign(body)))

		// Cancel the order out-of-band, then redeliver. A reapplied event
		// would flip statuses again; the dedup ledger must absorb it.
		store.orders["ORD-1"].Status = order.OrderStatusCancelled

		require.NoError(t, p.HandleWebhook(ctx, body, sign(body)))
		assert.Equal(t, order.OrderStatusCancelled, store.orders["ORD-1"].Status)
	})

	t.Run("distinct events on one intent both apply", func(t *testing.T) {
		store := newFakeStore()
		store.orders["ORD-1"] = pendingOrder("ORD-1")
		p := newTestProcessor(store)

		first := eventBody("evt_1", EventPaymentFailed, "pi_1", "ORD-1")
		require.NoError(t, p.HandleWebhook(ctx, first, sign(first)))
		assert.Equal(t, order.PaymentStatusFailed, store.orders["ORD-1"].PaymentStatus)

		// A later success on the same intent: the payment row is terminal so
		// nothing moves, but the event is still recorded and acknowledged.
		second := eventBody("evt_2", EventPaymentSucceeded, "pi_1", "ORD-1")
		require.NoError(t, p.HandleWebhook(ctx, second, sign(second)))

		pay := store.payments["pi_1"]
		require.NotNil(t, pay)
		assert.True(t, pay.ProcessedEventIDs.Contains("evt_1"))
		assert.True(t, pay.ProcessedEventIDs.Contains("evt_2"))
		assert.Equal(t, order.PaymentStatusFailed, pay.Status)
		assert.Equal(t, order.PaymentStatusFailed, store.orders["ORD-1"].PaymentStatus)
	})
}

func TestHandleWebhookEdgeCases(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown order number is acknowledged", func(t *testing.T) {
		store := newFakeStore()
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-MISSING")

		err := p.HandleWebhook(ctx, body, sign(body))

		require.NoError(t, err)
		// The event is still recorded against the intent.
		require.NotNil(t, store.payments["pi_1"])
		assert.True(t, store.payments["pi_1"].ProcessedEventIDs.Contains("evt_1"))
	})

	t.Run("event without order number is acknowledged", func(t *testing.T) {
		store := newFakeStore()
		p := newTestProcessor(store)
		body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":100,"currency":"inr"}}}`)

		err := p.HandleWebhook(ctx, body, sign(body))

		require.NoError(t, err)
	})

	t.Run("unknown event type is acknowledged without side effects", func(t *testing.T) {
		store := newFakeStore()
		store.orders["ORD-1"] = pendingOrder("ORD-1")
		p := newTestProcessor(store)
		body := eventBody("evt_1", "payment_intent.created", "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, sign(body))

		require.NoError(t, err)
		assert.Equal(t, order.OrderStatusPending, store.orders["ORD-1"].Status)
		assert.Nil(t, store.payments["pi_1"])
	})

	t.Run("store failure surfaces as transient error", func(t *testing.T) {
		store := newFakeStore()
		store.failLookup = true
		p := newTestProcessor(store)
		body := eventBody("evt_1", EventPaymentSucceeded, "pi_1", "ORD-1")

		err := p.HandleWebhook(ctx, body, sign(body))

		require.Error(t, err)
		assert.True(t, apperrors.IsKind(err, apperrors.KindTransientStore))
	})
}
