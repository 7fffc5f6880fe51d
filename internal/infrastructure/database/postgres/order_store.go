// internal/infrastructure/database/postgres/order_store.go
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/domain/payment"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// OrderStore is the GORM-backed persistence for orders and payments. It
// implements both order.Repository and payment.Store, so the admin path and
// the webhook path share one set of guarded writes.
type OrderStore struct {
	db *gorm.DB
}

// NewOrderStore creates a new order store
func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{db: db}
}

// Transaction runs fn against a store view bound to one database
// transaction.
func (s *OrderStore) Transaction(ctx context.Context, fn func(tx payment.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderStore{db: tx})
	})
}

// Create persists a new order. The unique index on order_number is the
// backstop against number collisions under concurrent checkouts.
func (s *OrderStore) Create(ctx context.Context, o *order.Order) error {
	err := s.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperrors.Conflict("order_number_collision", "order number already exists")
	}
	if err != nil {
		return apperrors.TransientStore("failed to create order", err)
	}
	return nil
}

// ByID retrieves an order by primary key.
func (s *OrderStore) ByID(ctx context.Context, id uint) (*order.Order, error) {
	var o order.Order
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order_not_found", "order not found")
	}
	if err != nil {
		return nil, apperrors.TransientStore("failed to load order", err)
	}
	return &o, nil
}

// ByNumber retrieves an order by its order number.
func (s *OrderStore) ByNumber(ctx context.Context, number string) (*order.Order, error) {
	var o order.Order
	err := s.db.WithContext(ctx).Where("order_number = ?", number).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("order_not_found", "order not found")
	}
	if err != nil {
		return nil, apperrors.TransientStore("failed to load order", err)
	}
	return &o, nil
}

// OrderByNumber is the payment.Store spelling of ByNumber.
func (s *OrderStore) OrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	return s.ByNumber(ctx, number)
}

// List retrieves orders matching the filters with pagination.
func (s *OrderStore) List(ctx context.Context, req *order.ListRequest) ([]order.Order, int64, error) {
	var orders []order.Order
	var total int64

	query := s.db.WithContext(ctx).Model(&order.Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		query = query.Where(
			"order_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?",
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.TransientStore("failed to count orders", err)
	}

	query = query.Order(buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, 0, apperrors.TransientStore("failed to retrieve orders", err)
	}

	return orders, total, nil
}

// SetStatusIf moves the order status only if the stored value still matches.
func (s *OrderStore) SetStatusIf(ctx context.Context, number string, from, to order.OrderStatus) (bool, error) {
	result := s.db.WithContext(ctx).Model(&order.Order{}).
		Where("order_number = ? AND status = ?", number, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, apperrors.TransientStore("failed to update order status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetOrderStatusIf is the payment.Store spelling of SetStatusIf.
func (s *OrderStore) SetOrderStatusIf(ctx context.Context, number string, from, to order.OrderStatus) (bool, error) {
	return s.SetStatusIf(ctx, number, from, to)
}

// SetPaymentStatusIf moves the order's payment status only if the stored
// value still matches.
func (s *OrderStore) SetPaymentStatusIf(ctx context.Context, number string, from, to order.PaymentStatus) (bool, error) {
	result := s.db.WithContext(ctx).Model(&order.Order{}).
		Where("order_number = ? AND payment_status = ?", number, from).
		Updates(map[string]interface{}{
			"payment_status": to,
			"updated_at":     time.Now().UTC(),
		})
	if result.Error != nil {
		return false, apperrors.TransientStore("failed to update payment status", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// SetOrderPaymentStatusIf is the payment.Store spelling of
// SetPaymentStatusIf.
func (s *OrderStore) SetOrderPaymentStatusIf(ctx context.Context, number string, from, to order.PaymentStatus) (bool, error) {
	return s.SetPaymentStatusIf(ctx, number, from, to)
}

// PaymentByIntentID retrieves a payment by its external intent id.
func (s *OrderStore) PaymentByIntentID(ctx context.Context, intentID string) (*order.Payment, error) {
	var p order.Payment
	err := s.db.WithContext(ctx).Where("payment_intent_id = ?", intentID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("payment_not_found", "payment not found")
	}
	if err != nil {
		return nil, apperrors.TransientStore("failed to load payment", err)
	}
	return &p, nil
}

// SavePayment creates or updates a payment record, including its processed
// event ledger.
func (s *OrderStore) SavePayment(ctx context.Context, p *order.Payment) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return apperrors.TransientStore("failed to save payment", err)
	}
	return nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return sortBy + " " + sortOrder
}
