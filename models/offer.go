package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OfferType string

const (
	OfferGeneric OfferType = "GENERIC"
	OfferVendor  OfferType = "VENDOR"
)

// Offer is a promotional discount; GENERIC offers apply to every vendor
type Offer struct {
	ID            uint                        `json:"id" gorm:"primaryKey"`
	OfferType     OfferType                   `json:"offer_type" gorm:"not null"`
	Vendors       []Vendor                    `json:"vendors,omitempty" gorm:"many2many:offer_vendors;"`
	Title         string                      `json:"title" gorm:"not null"`
	Description   string                      `json:"description"`
	MinValue      decimal.Decimal             `json:"min_value" gorm:"type:decimal(12,2);not null;default:0"`
	OfferAmount   decimal.Decimal             `json:"offer_amount" gorm:"type:decimal(12,2);not null"`
	StartValidity *time.Time                  `json:"start_validity"`
	EndValidity   *time.Time                  `json:"end_validity"`
	PromoCode     string                      `json:"promo_code"`
	PromoType     string                      `json:"promo_type"` // USER, ALL, BANK or CARD
	Bank          datatypes.JSONSlice[string] `json:"bank"`
	Bins          datatypes.JSONSlice[int]    `json:"bins"`
	Pincode       string                      `json:"pincode" gorm:"index"`
	IsActive      bool                        `json:"is_active"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

// WithinValidity reports whether now falls inside the offer's window.
// Unset bounds are open.
func (o *Offer) WithinValidity(now time.Time) bool {
	if o.StartValidity != nil && now.Before(*o.StartValidity) {
		return false
	}
	if o.EndValidity != nil && now.After(*o.EndValidity) {
		return false
	}
	return true
}
