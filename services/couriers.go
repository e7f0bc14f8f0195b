package services

import (
	"context"
	"fmt"
	"log/slog"

	"food-marketplace-api/logger"
	"food-marketplace-api/models"
)

type CourierSignup struct {
	Email     string
	Password  string
	Phone     string
	FirstName string
	LastName  string
	Address   string
	Pincode   string
}

// SignupCourier creates an unverified, unavailable courier. An admin has to
// verify the account before it is dispatched.
func (s *IdentityService) SignupCourier(ctx context.Context, in CourierSignup) (*models.DeliveryUser, error) {
	const op = "identity.SignupCourier"

	email := normalizeEmail(in.Email)
	db := s.db.WithContext(ctx)
	if taken, err := emailTaken(db, &models.DeliveryUser{}, email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	} else if taken {
		return nil, conflict(op, "A delivery user with this email already exists")
	}

	hash, salt, err := newCredentials(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	courier := &models.DeliveryUser{
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		Phone:        in.Phone,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Address:      in.Address,
		Pincode:      in.Pincode,
	}
	if err := db.Create(courier).Error; err != nil {
		return nil, createErr(op, "A delivery user with this email already exists", err)
	}
	s.log.Info("courier_signup", logger.RequestID(ctx), "delivery user signed up",
		slog.Uint64("courier_id", uint64(courier.ID)),
		slog.String("pincode", courier.Pincode))
	return courier, nil
}

func (s *IdentityService) LoginCourier(ctx context.Context, email, password string) (*models.DeliveryUser, error) {
	var courier models.DeliveryUser
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&courier).Error
	if err := checkLogin("identity.LoginCourier", err, password, courier.PasswordHash, courier.Salt); err != nil {
		return nil, err
	}
	return &courier, nil
}

func (s *IdentityService) GetCourier(ctx context.Context, courierID uint) (*models.DeliveryUser, error) {
	var courier models.DeliveryUser
	if err := s.db.WithContext(ctx).First(&courier, courierID).Error; err != nil {
		return nil, lookupErr("identity.GetCourier", "Delivery user not found", err)
	}
	return &courier, nil
}

// ListCouriers returns every delivery user, optionally only those in pincode
func (s *IdentityService) ListCouriers(ctx context.Context, pincode string) ([]models.DeliveryUser, error) {
	query := s.db.WithContext(ctx).Order("id")
	if pincode != "" {
		query = query.Where("pincode = ?", pincode)
	}
	couriers := []models.DeliveryUser{}
	if err := query.Find(&couriers).Error; err != nil {
		return nil, fmt.Errorf("identity.ListCouriers: %w", err)
	}
	return couriers, nil
}

type CourierProfile struct {
	FirstName string
	LastName  string
	Address   string
}

func (s *IdentityService) UpdateCourierProfile(ctx context.Context, courierID uint, in CourierProfile) (*models.DeliveryUser, error) {
	return s.updateCourier(ctx, "identity.UpdateCourierProfile", courierID, func(c *models.DeliveryUser) {
		c.FirstName = in.FirstName
		c.LastName = in.LastName
		c.Address = in.Address
	})
}

// ToggleCourierAvailability flips IsAvailable and records the courier's
// current location when one is given
func (s *IdentityService) ToggleCourierAvailability(ctx context.Context, courierID uint, lat, lng *float64) (*models.DeliveryUser, error) {
	return s.updateCourier(ctx, "identity.ToggleCourierAvailability", courierID, func(c *models.DeliveryUser) {
		c.IsAvailable = !c.IsAvailable
		if lat != nil && lng != nil {
			c.Lat = *lat
			c.Lng = *lng
		}
	})
}

// VerifyCourier sets the admin verification flag
func (s *IdentityService) VerifyCourier(ctx context.Context, courierID uint, verified bool) (*models.DeliveryUser, error) {
	courier, err := s.updateCourier(ctx, "identity.VerifyCourier", courierID, func(c *models.DeliveryUser) {
		c.Verified = verified
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("courier_verified", logger.RequestID(ctx), "delivery user verification changed",
		slog.Uint64("courier_id", uint64(courier.ID)),
		slog.Bool("verified", verified))
	return courier, nil
}

func (s *IdentityService) updateCourier(ctx context.Context, op string, courierID uint, mutate func(*models.DeliveryUser)) (*models.DeliveryUser, error) {
	unlock, err := s.locks.Lock(ctx, courierKey(courierID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var courier models.DeliveryUser
	if err := db.First(&courier, courierID).Error; err != nil {
		return nil, lookupErr(op, "Delivery user not found", err)
	}
	mutate(&courier)
	if err := db.Save(&courier).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &courier, nil
}
