// internal/domain/payment/processor.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/config"
	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// Store is the transactional persistence contract the processor runs
// against. Transaction hands the callback a Store view bound to one database
// transaction, so the event ledger write and the state change commit or roll
// back together.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	PaymentByIntentID(ctx context.Context, intentID string) (*order.Payment, error)
	SavePayment(ctx context.Context, p *order.Payment) error

	OrderByNumber(ctx context.Context, number string) (*order.Order, error)
	SetOrderStatusIf(ctx context.Context, number string, from, to order.OrderStatus) (bool, error)
	SetOrderPaymentStatusIf(ctx context.Context, number string, from, to order.PaymentStatus) (bool, error)
}

// Processor ingests the gateway's at-least-once webhook stream and applies
// at most one net state change per distinct event.
type Processor struct {
	store        Store
	secret       string
	storeTimeout time.Duration
	logger       *logrus.Logger
}

// NewProcessor creates a new webhook processor
func NewProcessor(store Store, cfg *config.Config, logger *logrus.Logger) *Processor {
	return &Processor{
		store:        store,
		secret:       cfg.Payment.WebhookSecret,
		storeTimeout: cfg.Payment.StoreTimeout,
		logger:       logger,
	}
}

// HandleWebhook verifies, deduplicates and applies one raw webhook delivery.
// Error kinds drive the HTTP response: InvalidSignature and Validation are
// permanent rejections, TransientStore asks the gateway to redeliver, nil
// acknowledges the event (including dedup no-ops).
func (p *Processor) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	// Signature first; nothing is looked up or written for forged payloads.
	if err := p.verifySignature(body, signature); err != nil {
		return err
	}

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return apperrors.Validation("malformed_payload", "webhook payload is not valid JSON")
	}
	if event.ID == "" || event.Type == "" || event.Data.Object.ID == "" {
		return apperrors.Validation("malformed_payload", "webhook payload is missing required fields")
	}

	// Persistence work runs under a bounded deadline; on expiry the handler
	// fails closed with a retryable error instead of dropping the event.
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()

	err := p.store.Transaction(ctx, func(tx Store) error {
		return p.applyEvent(ctx, tx, &event)
	})
	if err == nil {
		return nil
	}
	if _, ok := apperrors.KindOf(err); ok {
		return err
	}
	return apperrors.TransientStore("failed to apply webhook event", err)
}

// applyEvent runs dedup, routing and the state transition as one unit.
func (p *Processor) applyEvent(ctx context.Context, tx Store, event *Event) error {
	pay, err := tx.PaymentByIntentID(ctx, event.Data.Object.ID)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		now := time.Now().UTC()
		pay = &order.Payment{
			PaymentIntentID: event.Data.Object.ID,
			OrderNumber:     event.OrderNumber(),
			Status:          order.PaymentStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	} else if err != nil {
		return err
	}

	if pay.ProcessedEventIDs.Contains(event.ID) {
		p.logger.WithFields(logrus.Fields{
			"event_id":          event.ID,
			"payment_intent_id": pay.PaymentIntentID,
		}).Info("Webhook event already processed, acknowledging")
		return nil
	}

	var target order.PaymentStatus
	switch event.Type {
	case EventPaymentSucceeded:
		target = order.PaymentStatusPaid
	case EventPaymentFailed:
		target = order.PaymentStatusFailed
	default:
		// Acknowledged without any write, so new gateway event types leave
		// no trace in the ledger.
		p.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Info("Ignoring unhandled webhook event type")
		return nil
	}

	if err := p.settlePayment(ctx, tx, pay, event, target); err != nil {
		return err
	}

	pay.ProcessedEventIDs = pay.ProcessedEventIDs.Add(event.ID)
	pay.UpdatedAt = time.Now().UTC()
	return tx.SavePayment(ctx, pay)
}

// settlePayment moves the payment record and, through the state machine, the
// order it belongs to. All writes are conditioned on the state observed in
// this transaction.
func (p *Processor) settlePayment(ctx context.Context, tx Store, pay *order.Payment, event *Event, target order.PaymentStatus) error {
	if order.CanTransitionPayment(pay.Status, target) {
		pay.Status = target
	}

	number := pay.OrderNumber
	if number == "" {
		number = event.OrderNumber()
		pay.OrderNumber = number
	}
	if number == "" {
		p.logger.WithField("event_id", event.ID).
			Warn("Webhook event carries no order number, acknowledging without order update")
		return nil
	}

	o, err := tx.OrderByNumber(ctx, number)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		// Test events and orders created elsewhere resolve to nothing;
		// acknowledge so the gateway does not retry forever.
		p.logger.WithFields(logrus.Fields{
			"event_id":     event.ID,
			"order_number": number,
		}).Warn("Webhook references unknown order, acknowledging")
		return nil
	}
	if err != nil {
		return err
	}

	statusBefore := o.Status
	paymentBefore := o.PaymentStatus
	if !order.ApplyPaymentStatus(o, target) {
		// Terminal payment state already reached; redelivery is a no-op.
		return nil
	}

	applied, err := tx.SetOrderPaymentStatusIf(ctx, number, paymentBefore, target)
	if err != nil {
		return err
	}
	if applied && o.Status != statusBefore {
		if _, err := tx.SetOrderStatusIf(ctx, number, statusBefore, o.Status); err != nil {
			return err
		}
	}

	p.logger.WithFields(logrus.Fields{
		"event_id":       event.ID,
		"order_number":   number,
		"payment_status": target,
		"applied":        applied,
	}).Info("Payment event applied")
	return nil
}

// verifySignature recomputes the HMAC-SHA256 hex digest of the raw body and
// compares it in constant time against the header value.
func (p *Processor) verifySignature(body []byte, signature string) error {
	if signature == "" {
		return apperrors.InvalidSignature("missing signature header")
	}
	if p.secret == "" {
		return apperrors.InvalidSignature("webhook secret not configured")
	}

	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return apperrors.InvalidSignature("signature mismatch")
	}
	return nil
}
