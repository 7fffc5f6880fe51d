// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a catalog product offered as purchasable samples.
// Catalog browsing and search live in the storefront service; this service
// only needs products to price and describe cart lines.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Slug      string         `gorm:"uniqueIndex;size:255" json:"slug"`
	Category  string         `gorm:"size:100;index" json:"category"`
	ImageURL  string         `gorm:"size:500" json:"image_url"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Variants []SampleVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// SampleVariant represents a purchasable quantity/unit combination of a
// product, e.g. "1kg" or "250g". VariantKey is the stable merge key used by
// the cart.
type SampleVariant struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProductID  uint      `gorm:"not null;index:idx_variant_product_key,unique" json:"product_id"`
	VariantKey string    `gorm:"not null;size:50;index:idx_variant_product_key,unique" json:"variant_key"`
	Label      string    `gorm:"size:100" json:"label"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"` // In cents
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string       { return "products" }
func (SampleVariant) TableName() string { return "sample_variants" }
