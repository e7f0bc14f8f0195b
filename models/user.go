package models

import (
	"time"
)

// UserRole identifies which identity store a token belongs to
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleVendor   UserRole = "vendor"
	RoleDelivery UserRole = "delivery"
)

type Customer struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"not null"`
	Salt         string     `json:"-" gorm:"not null"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Address      string     `json:"address"`
	Phone        string     `json:"phone" gorm:"not null"`
	Verified     bool       `json:"verified" gorm:"not null;default:false"`
	OTP          int        `json:"-"`
	OTPExpiry    time.Time  `json:"-"`
	Lat          float64    `json:"lat"`
	Lng          float64    `json:"lng"`
	Cart         []CartItem `json:"cart" gorm:"foreignKey:CustomerID"`
	Orders       []Order    `json:"orders,omitempty" gorm:"foreignKey:CustomerID"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// CartItem is one pending line of a customer's cart
type CartItem struct {
	ID         uint `json:"-" gorm:"primaryKey"`
	CustomerID uint `json:"-" gorm:"not null;uniqueIndex:idx_cart_customer_food"`
	FoodID     uint `json:"food_id" gorm:"not null;uniqueIndex:idx_cart_customer_food"`
	Food       Food `json:"food" gorm:"foreignKey:FoodID"`
	Unit       int  `json:"unit" gorm:"not null"`
}

type DeliveryUser struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Salt         string    `json:"-" gorm:"not null"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      string    `json:"address"`
	Pincode      string    `json:"pincode" gorm:"index;not null"`
	Phone        string    `json:"phone" gorm:"not null"`
	Verified     bool      `json:"verified" gorm:"not null;default:false"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	IsAvailable  bool      `json:"is_available" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
