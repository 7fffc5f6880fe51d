// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/domain/product"
	"github.com/your-org/samplestore-backend/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{db: db}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: users and catalog first, then orders and payments.
	models := []interface{}{
		&user.User{},
		&user.ShippingProfile{},

		&product.Product{},
		&product.SampleVariant{},

		&order.Order{},
		&order.Payment{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Order lookups: admin listing filters and the webhook path
		"CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Payment resolution by order
		"CREATE INDEX IF NOT EXISTS idx_payments_order_number ON payments(order_number)",

		// Catalog pricing lookups
		"CREATE INDEX IF NOT EXISTS idx_sample_variants_product ON sample_variants(product_id, is_active)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data: an admin user and a few sample
// products with variants.
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var adminCount int64
	m.db.Model(&user.User{}).Where("is_admin = ?", true).Count(&adminCount)
	if adminCount == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123!"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin := user.User{
			Email:     "admin@samplestore.local",
			Password:  string(hash),
			FirstName: "Store",
			LastName:  "Admin",
			IsActive:  true,
			IsAdmin:   true,
		}
		if err := m.db.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
	}

	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount == 0 {
		products := []product.Product{
			{
				Name:     "Assam Black Tea",
				Slug:     "assam-black-tea",
				Category: "tea",
				IsActive: true,
				Variants: []product.SampleVariant{
					{VariantKey: "100g", Label: "100g sample", UnitPrice: 450, IsActive: true},
					{VariantKey: "1kg", Label: "1kg pack", UnitPrice: 3200, IsActive: true},
				},
			},
			{
				Name:     "Malabar Peppercorn",
				Slug:     "malabar-peppercorn",
				Category: "spice",
				IsActive: true,
				Variants: []product.SampleVariant{
					{VariantKey: "250g", Label: "250g sample", UnitPrice: 900, IsActive: true},
					{VariantKey: "1kg", Label: "1kg pack", UnitPrice: 2800, IsActive: true},
				},
			},
		}
		for _, p := range products {
			if err := m.db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.Slug, err)
			}
		}
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}
