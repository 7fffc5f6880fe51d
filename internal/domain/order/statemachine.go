// internal/domain/order/statemachine.go
package order

import (
	"time"

	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// orderTransitions is the single authoritative transition table for order
// status. Both the admin update path and the webhook processor consult it;
// nothing else writes Status directly.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
	// delivered and cancelled are terminal
}

// paymentTransitions holds the allowed payment status transitions. Paid and
// failed are terminal.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusFailed},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanTransitionPayment reports whether a payment may move between statuses.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves the order to the target status, or returns
// InvalidTransitionError leaving the order untouched.
func Transition(o *Order, to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return apperrors.InvalidTransition(string(o.Status), string(to))
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyPaymentStatus applies a payment status change to the order and
// reports whether anything changed. Transitions out of a terminal payment
// status are silently ignored so webhook redelivery stays a safe no-op.
//
// A successful payment while the order is still pending also confirms the
// order as one combined transition. An order already past pending keeps its
// status: payment events never regress order state.
func ApplyPaymentStatus(o *Order, to PaymentStatus) bool {
	if !CanTransitionPayment(o.PaymentStatus, to) {
		return false
	}

	o.PaymentStatus = to
	if to == PaymentStatusPaid && o.Status == OrderStatusPending {
		o.Status = OrderStatusConfirmed
	}
	o.UpdatedAt = time.Now().UTC()
	return true
}

// ParseOrderStatus validates an externally supplied status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", apperrors.Validation("unknown_status", "unknown order status: "+s)
}

// ParsePaymentStatus validates an externally supplied payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return PaymentStatus(s), nil
	}
	return "", apperrors.Validation("unknown_payment_status", "unknown payment status: "+s)
}
