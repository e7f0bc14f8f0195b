package services

import (
	"context"
	"fmt"
	"log/slog"

	"food-marketplace-api/logger"
	"food-marketplace-api/models"

	"gorm.io/datatypes"
)

type CreateVendorInput struct {
	Name           string
	OwnerName      string
	FoodTypes      []string
	Pincode        string
	Address        string
	Phone          string
	Email          string
	Password       string
	TelegramChatID int64
}

// CreateVendor registers a vendor on behalf of an admin. New vendors start
// out of service.
func (s *IdentityService) CreateVendor(ctx context.Context, in CreateVendorInput) (*models.Vendor, error) {
	const op = "identity.CreateVendor"

	email := normalizeEmail(in.Email)
	db := s.db.WithContext(ctx)
	if taken, err := emailTaken(db, &models.Vendor{}, email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	} else if taken {
		return nil, conflict(op, "A vendor with this email already exists")
	}

	hash, salt, err := newCredentials(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	vendor := &models.Vendor{
		Name:           in.Name,
		OwnerName:      in.OwnerName,
		FoodTypes:      datatypes.JSONSlice[string](in.FoodTypes),
		Pincode:        in.Pincode,
		Address:        in.Address,
		Phone:          in.Phone,
		Email:          email,
		PasswordHash:   hash,
		Salt:           salt,
		CoverImages:    datatypes.JSONSlice[string]{},
		TelegramChatID: in.TelegramChatID,
	}
	if err := db.Create(vendor).Error; err != nil {
		return nil, createErr(op, "A vendor with this email already exists", err)
	}
	s.log.Info("vendor_created", logger.RequestID(ctx), "vendor created",
		slog.Uint64("vendor_id", uint64(vendor.ID)),
		slog.String("pincode", vendor.Pincode))
	return vendor, nil
}

func (s *IdentityService) LoginVendor(ctx context.Context, email, password string) (*models.Vendor, error) {
	var vendor models.Vendor
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&vendor).Error
	if err := checkLogin("identity.LoginVendor", err, password, vendor.PasswordHash, vendor.Salt); err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (s *IdentityService) GetVendor(ctx context.Context, vendorID uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).Preload("Foods").First(&vendor, vendorID).Error; err != nil {
		return nil, lookupErr("identity.GetVendor", "Vendor not found", err)
	}
	return &vendor, nil
}

func (s *IdentityService) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	vendors := []models.Vendor{}
	if err := s.db.WithContext(ctx).Order("id").Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("identity.ListVendors: %w", err)
	}
	return vendors, nil
}

type VendorProfile struct {
	Name      string
	Address   string
	Phone     string
	FoodTypes []string
}

func (s *IdentityService) UpdateVendorProfile(ctx context.Context, vendorID uint, in VendorProfile) (*models.Vendor, error) {
	return s.updateVendor(ctx, "identity.UpdateVendorProfile", vendorID, func(v *models.Vendor) {
		v.Name = in.Name
		v.Address = in.Address
		v.Phone = in.Phone
		if in.FoodTypes != nil {
			v.FoodTypes = datatypes.JSONSlice[string](in.FoodTypes)
		}
	})
}

// ToggleVendorService flips ServiceAvailable and records the vendor's
// location when one is given
func (s *IdentityService) ToggleVendorService(ctx context.Context, vendorID uint, lat, lng *float64) (*models.Vendor, error) {
	return s.updateVendor(ctx, "identity.ToggleVendorService", vendorID, func(v *models.Vendor) {
		v.ServiceAvailable = !v.ServiceAvailable
		if lat != nil && lng != nil {
			v.Lat = *lat
			v.Lng = *lng
		}
	})
}

// AddCoverImages appends already stored image URLs to the vendor
func (s *IdentityService) AddCoverImages(ctx context.Context, vendorID uint, urls []string) (*models.Vendor, error) {
	return s.updateVendor(ctx, "identity.AddCoverImages", vendorID, func(v *models.Vendor) {
		v.CoverImages = append(v.CoverImages, urls...)
	})
}

func (s *IdentityService) updateVendor(ctx context.Context, op string, vendorID uint, mutate func(*models.Vendor)) (*models.Vendor, error) {
	unlock, err := s.locks.Lock(ctx, vendorKey(vendorID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var vendor models.Vendor
	if err := db.First(&vendor, vendorID).Error; err != nil {
		return nil, lookupErr(op, "Vendor not found", err)
	}
	mutate(&vendor)
	if err := db.Save(&vendor).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &vendor, nil
}
