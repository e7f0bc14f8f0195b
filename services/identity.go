package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"food-marketplace-api/logger"
	"food-marketplace-api/models"
	"food-marketplace-api/notify"

	"gorm.io/gorm"
)

const invalidCredentials = "Invalid email or password"

// IdentityService owns customer, vendor and courier accounts
type IdentityService struct {
	base
	sms    notify.SMSSender
	otpTTL time.Duration
	now    func() time.Time
	otpGen func() int
}

func NewIdentityService(d Deps, sms notify.SMSSender, otpTTL time.Duration) *IdentityService {
	b := newBase(d)
	if sms == nil {
		sms = notify.LogSender{Log: b.log}
	}
	if otpTTL <= 0 {
		otpTTL = 30 * time.Minute
	}
	return &IdentityService{base: b, sms: sms, otpTTL: otpTTL, now: time.Now, otpGen: GenerateOTP}
}

type CustomerSignup struct {
	Email    string
	Password string
	Phone    string
}

// SignupCustomer creates an unverified customer and texts the first OTP.
// A failed SMS does not undo the signup; the customer can request a new code.
func (s *IdentityService) SignupCustomer(ctx context.Context, in CustomerSignup) (*models.Customer, error) {
	const op = "identity.SignupCustomer"

	email := normalizeEmail(in.Email)
	db := s.db.WithContext(ctx)
	if taken, err := emailTaken(db, &models.Customer{}, email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	} else if taken {
		return nil, conflict(op, "A customer with this email already exists")
	}

	hash, salt, err := newCredentials(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	customer := &models.Customer{
		Email:        email,
		PasswordHash: hash,
		Salt:         salt,
		Phone:        in.Phone,
		OTP:          s.otpGen(),
		OTPExpiry:    s.now().Add(s.otpTTL),
	}
	if err := db.Create(customer).Error; err != nil {
		return nil, createErr(op, "A customer with this email already exists", err)
	}

	if err := s.sms.SendOTP(ctx, customer.Phone, customer.OTP); err != nil {
		s.log.Error("otp_send_failed", logger.RequestID(ctx), "failed to send signup OTP", err,
			slog.Uint64("customer_id", uint64(customer.ID)))
	}
	s.log.Info("customer_signup", logger.RequestID(ctx), "customer signed up",
		slog.Uint64("customer_id", uint64(customer.ID)))
	return customer, nil
}

func (s *IdentityService) LoginCustomer(ctx context.Context, email, password string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&customer).Error
	if err := checkLogin("identity.LoginCustomer", err, password, customer.PasswordHash, customer.Salt); err != nil {
		return nil, err
	}
	return &customer, nil
}

// VerifyCustomer marks the customer verified when otp matches and has not
// expired. The code is single use.
func (s *IdentityService) VerifyCustomer(ctx context.Context, customerID uint, otp int) (*models.Customer, error) {
	const op = "identity.VerifyCustomer"

	unlock, err := s.locks.Lock(ctx, customerKey(customerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var customer models.Customer
	if err := db.First(&customer, customerID).Error; err != nil {
		return nil, lookupErr(op, "Customer not found", err)
	}
	if customer.OTP == 0 || customer.OTP != otp || !s.now().Before(customer.OTPExpiry) {
		return nil, invalid(op, "Invalid or expired OTP")
	}
	err = db.Model(&customer).Updates(map[string]any{"verified": true, "otp": 0}).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	customer.Verified = true
	customer.OTP = 0
	return &customer, nil
}

// RequestOTP issues and texts a fresh code
func (s *IdentityService) RequestOTP(ctx context.Context, customerID uint) error {
	const op = "identity.RequestOTP"

	unlock, err := s.locks.Lock(ctx, customerKey(customerID))
	if err != nil {
		return err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var customer models.Customer
	if err := db.First(&customer, customerID).Error; err != nil {
		return lookupErr(op, "Customer not found", err)
	}
	otp := s.otpGen()
	err = db.Model(&customer).Updates(map[string]any{
		"otp":        otp,
		"otp_expiry": s.now().Add(s.otpTTL),
	}).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.sms.SendOTP(ctx, customer.Phone, otp); err != nil {
		return &Error{Kind: KindUnavailable, Op: op, Msg: "Could not send OTP", Err: err}
	}
	return nil
}

func (s *IdentityService) GetCustomer(ctx context.Context, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.WithContext(ctx).Preload("Cart.Food").First(&customer, customerID).Error; err != nil {
		return nil, lookupErr("identity.GetCustomer", "Customer not found", err)
	}
	return &customer, nil
}

type CustomerProfile struct {
	FirstName string
	LastName  string
	Address   string
}

func (s *IdentityService) UpdateCustomerProfile(ctx context.Context, customerID uint, in CustomerProfile) (*models.Customer, error) {
	const op = "identity.UpdateCustomerProfile"

	unlock, err := s.locks.Lock(ctx, customerKey(customerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	res := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", customerID).
		Updates(map[string]any{
			"first_name": in.FirstName,
			"last_name":  in.LastName,
			"address":    in.Address,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(op, "Customer not found")
	}
	return s.GetCustomer(ctx, customerID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken(db *gorm.DB, model any, email string) (bool, error) {
	var count int64
	if err := db.Model(model).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// checkLogin reports a missing account and a wrong password the same way
func checkLogin(op string, lookup error, password, hash, salt string) error {
	if lookup != nil {
		if errors.Is(lookup, gorm.ErrRecordNotFound) {
			return unauthorized(op, invalidCredentials)
		}
		return fmt.Errorf("%s: %w", op, lookup)
	}
	if !ValidatePassword(password, hash, salt) {
		return unauthorized(op, invalidCredentials)
	}
	return nil
}
