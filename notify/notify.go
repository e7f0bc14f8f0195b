package notify

import (
	"context"
	"fmt"
	"log/slog"

	"food-marketplace-api/logger"
	"food-marketplace-api/models"
)

//go:generate mockgen -source=notify.go -destination=mocks/mock_notify.go -package=mocks

// SMSSender delivers one-time passwords to a phone number
type SMSSender interface {
	SendOTP(ctx context.Context, phone string, otp int) error
}

// VendorAlerter tells a vendor that a new order arrived
type VendorAlerter interface {
	NewOrder(ctx context.Context, vendor *models.Vendor, order *models.Order) error
}

// LogSender writes the OTP to the log instead of texting it. Used when no
// SMS gateway is configured.
type LogSender struct {
	Log *logger.Logger
}

func (s LogSender) SendOTP(ctx context.Context, phone string, otp int) error {
	s.Log.Info("otp_issued", logger.RequestID(ctx), "OTP generated (no SMS gateway configured)",
		slog.String("phone", phone), slog.Int("otp", otp))
	return nil
}

// NoopAlerter drops vendor alerts
type NoopAlerter struct{}

func (NoopAlerter) NewOrder(context.Context, *models.Vendor, *models.Order) error { return nil }

func newOrderText(vendor *models.Vendor, order *models.Order) string {
	return fmt.Sprintf("🍔 New order #%s for %s: %d item(s), total %s, ready in %d min",
		order.OrderCode, vendor.Name, len(order.Items), order.TotalAmount.StringFixed(2), order.ReadyTime)
}
