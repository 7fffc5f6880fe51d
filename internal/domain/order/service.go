// internal/domain/order/service.go
package order

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
)

// Service handles order queries and admin-driven status updates. All status
// writes go through the state machine plus conditional repository updates so
// an admin racing a webhook cannot produce an invalid combined state.
type Service struct {
	orders Repository
	logger *logrus.Logger
}

// NewService creates a new order service
func NewService(orders Repository, logger *logrus.Logger) *Service {
	return &Service{
		orders: orders,
		logger: logger,
	}
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ListResponse represents order list response with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// UpdateStatusRequest represents an admin status update. Both fields are
// optional; at least one must be set.
type UpdateStatusRequest struct {
	Status        *string `json:"status,omitempty"`
	PaymentStatus *string `json:"payment_status,omitempty"`
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	orders, total, err := s.orders.List(ctx, req)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	return &ListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// Get retrieves a single order by ID
func (s *Service) Get(ctx context.Context, id uint) (*Order, error) {
	return s.orders.ByID(ctx, id)
}

// GetByNumber retrieves a single order by order number
func (s *Service) GetByNumber(ctx context.Context, number string) (*Order, error) {
	return s.orders.ByNumber(ctx, number)
}

// UpdateStatus applies an admin status and/or payment status change. The
// state machine validates the transition against the loaded order and the
// repository write is conditioned on that same loaded state, so a
// concurrent webhook cannot be silently overwritten.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, req *UpdateStatusRequest) (*Order, error) {
	o, err := s.orders.ByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		target, err := ParseOrderStatus(*req.Status)
		if err != nil {
			return nil, err
		}

		before := o.Status
		if err := Transition(o, target); err != nil {
			return nil, err
		}

		applied, err := s.orders.SetStatusIf(ctx, o.OrderNumber, before, target)
		if err != nil {
			return nil, err
		}
		if !applied {
			// A concurrent writer moved the order first; re-validate
			// against the fresh state and report accordingly.
			fresh, ferr := s.orders.ByID(ctx, orderID)
			if ferr != nil {
				return nil, ferr
			}
			freshBefore := fresh.Status
			if err := Transition(fresh, target); err != nil {
				return nil, err
			}
			retried, err := s.orders.SetStatusIf(ctx, fresh.OrderNumber, freshBefore, target)
			if err != nil {
				return nil, err
			}
			if !retried {
				return nil, apperrors.Conflict("status_race",
					"order status changed concurrently, retry the update")
			}
		}

		s.logger.WithFields(logrus.Fields{
			"order_number": o.OrderNumber,
			"from":         before,
			"to":           target,
		}).Info("Order status updated")
	}

	if req.PaymentStatus != nil {
		target, err := ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		if err := s.applyPaymentStatus(ctx, o.OrderNumber, target); err != nil {
			return nil, err
		}
	}

	return s.orders.ByID(ctx, orderID)
}

// applyPaymentStatus runs the combined payment transition. Attempts to move
// out of a terminal payment status are absorbed without error.
func (s *Service) applyPaymentStatus(ctx context.Context, number string, target PaymentStatus) error {
	o, err := s.orders.ByNumber(ctx, number)
	if err != nil {
		return err
	}

	statusBefore := o.Status
	paymentBefore := o.PaymentStatus
	if !ApplyPaymentStatus(o, target) {
		return nil
	}

	applied, err := s.orders.SetPaymentStatusIf(ctx, number, paymentBefore, target)
	if err != nil {
		return err
	}
	if applied && o.Status != statusBefore {
		if _, err := s.orders.SetStatusIf(ctx, number, statusBefore, o.Status); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"order_number": number,
		"from":         paymentBefore,
		"to":           target,
		"applied":      applied,
	}).Info("Payment status updated")
	return nil
}
