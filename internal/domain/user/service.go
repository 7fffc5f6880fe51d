// internal/domain/user/service.go
package user

import (
	"context"
	"errors"
	"time"

	"github.com/your-org/samplestore-backend/internal/domain/order"
	"github.com/your-org/samplestore-backend/internal/pkg/apperrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service handles user lookups and shipping profile persistence. It
// satisfies the directory and profile contracts the order factory depends
// on.
type Service struct {
	db *gorm.DB
}

// NewService creates a new user service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Contact returns the display name and email for a user.
func (s *Service) Contact(ctx context.Context, userID uint) (string, string, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", apperrors.NotFound("user_not_found", "user not found")
	}
	if err != nil {
		return "", "", apperrors.TransientStore("failed to load user", err)
	}
	return u.GetFullName(), u.Email, nil
}

// UpsertShippingProfile stores the shipping details submitted at checkout,
// replacing any existing profile for the user.
func (s *Service) UpsertShippingProfile(ctx context.Context, userID uint, info order.ShippingInfo) error {
	profile := ShippingProfile{
		UserID:    userID,
		Address:   info.Address,
		City:      info.City,
		Country:   info.Country,
		Phone:     info.Phone,
		UpdatedAt: time.Now().UTC(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "city", "country", "phone", "updated_at"}),
	}).Create(&profile).Error
	if err != nil {
		return apperrors.TransientStore("failed to upsert shipping profile", err)
	}
	return nil
}

// ShippingProfileFor returns the stored shipping profile for a user, if any.
func (s *Service) ShippingProfileFor(ctx context.Context, userID uint) (*ShippingProfile, error) {
	var profile ShippingProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("profile_not_found", "no shipping profile on file")
	}
	if err != nil {
		return nil, apperrors.TransientStore("failed to load shipping profile", err)
	}
	return &profile, nil
}
