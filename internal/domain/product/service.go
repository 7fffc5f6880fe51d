// internal/domain/product/service.go
package product

import (
	"context"
	"errors"

	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
)

// Service resolves products and sample variants for cart pricing.
type Service struct {
	db *gorm.DB
}

// NewService creates a new product service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ResolveVariant loads an active product together with the requested sample
// variant. The cart prices lines with the variant's current unit price at
// the moment of adding.
func (s *Service) ResolveVariant(ctx context.Context, productID uint, variantKey string) (*Product, *SampleVariant, error) {
	var prod Product
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", productID, true).First(&prod).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.NotFound("product_not_found", "product not found or inactive")
	}
	if err != nil {
		return nil, nil, apperrors.TransientStore("failed to load product", err)
	}

	var variant SampleVariant
	err = s.db.WithContext(ctx).
		Where("product_id = ? AND variant_key = ? AND is_active = ?", productID, variantKey, true).
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperrors.NotFound("variant_not_found", "sample variant not found or inactive")
	}
	if err != nil {
		return nil, nil, apperrors.TransientStore("failed to load sample variant", err)
	}

	return &prod, &variant, nil
}
