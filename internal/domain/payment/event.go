// internal/domain/payment/event.go
package payment

// Gateway event types this service reacts to. Anything else is acknowledged
// without side effects so new gateway event types never cause retry storms.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Event is the gateway webhook envelope. The gateway delivers events at
// least once, so ID is the dedup key.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData wraps the payment intent the event describes.
type EventData struct {
	Object PaymentIntent `json:"object"`
}

// PaymentIntent is the slice of the gateway's payment intent object this
// service reads. The order is resolved through metadata.
type PaymentIntent struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// OrderNumber returns the order number the gateway attached at intent
// creation time, if any.
func (e *Event) OrderNumber() string {
	return e.Data.Object.Metadata["order_number"]
}
