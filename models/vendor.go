package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Vendor struct {
	ID               uint                        `json:"id" gorm:"primaryKey"`
	Name             string                      `json:"name" gorm:"not null"`
	OwnerName        string                      `json:"owner_name"`
	FoodTypes        datatypes.JSONSlice[string] `json:"food_types"`
	Pincode          string                      `json:"pincode" gorm:"index;not null"`
	Address          string                      `json:"address"`
	Phone            string                      `json:"phone"`
	Email            string                      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash     string                      `json:"-" gorm:"not null"`
	Salt             string                      `json:"-" gorm:"not null"`
	ServiceAvailable bool                        `json:"service_available" gorm:"not null;default:false"`
	CoverImages      datatypes.JSONSlice[string] `json:"cover_images"`
	Rating           float64                     `json:"rating" gorm:"default:0"`
	Lat              float64                     `json:"lat"`
	Lng              float64                     `json:"lng"`
	TelegramChatID   int64                       `json:"telegram_chat_id,omitempty"`
	Foods            []Food                      `json:"foods,omitempty" gorm:"foreignKey:VendorID"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

type Food struct {
	ID          uint                        `json:"id" gorm:"primaryKey"`
	VendorID    uint                        `json:"vendor_id" gorm:"index;not null"`
	Name        string                      `json:"name" gorm:"not null"`
	Description string                      `json:"description"`
	Category    string                      `json:"category"`
	FoodType    string                      `json:"food_type"`
	ReadyTime   int                         `json:"ready_time"` // minutes to prepare
	Price       decimal.Decimal             `json:"price" gorm:"type:decimal(12,2);not null"`
	Rating      float64                     `json:"rating" gorm:"default:0"`
	Images      datatypes.JSONSlice[string] `json:"images"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}
