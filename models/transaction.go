package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the ledger state of a payment intent
type TransactionStatus string

const (
	TxnOpen      TransactionStatus = "OPEN"
	TxnConfirmed TransactionStatus = "CONFIRMED"
	TxnFailed    TransactionStatus = "FAILED"
)

// Transaction records a payment intent. OrderID and VendorID stay nil until
// an order is created from it.
type Transaction struct {
	ID              uint              `json:"id" gorm:"primaryKey"`
	CustomerID      uint              `json:"customer_id" gorm:"index;not null"`
	VendorID        *uint             `json:"vendor_id"`
	OrderID         *uint             `json:"order_id"`
	OrderValue      decimal.Decimal   `json:"order_value" gorm:"type:decimal(12,2);not null"`
	OfferUsed       string            `json:"offer_used"`
	Status          TransactionStatus `json:"status" gorm:"not null;default:'OPEN'"`
	PaymentMode     string            `json:"payment_mode"`
	PaymentResponse string            `json:"payment_response"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
