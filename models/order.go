package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is free-form once the vendor takes over; Waiting is the only
// status the system assigns itself.
type OrderStatus string

const (
	StatusWaiting OrderStatus = "Waiting"

	DefaultReadyTime = 45
)

type Order struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	OrderCode     string               `json:"order_code" gorm:"uniqueIndex;not null"`
	CustomerID    uint                 `json:"customer_id" gorm:"index;not null"`
	VendorID      uint                 `json:"vendor_id" gorm:"index;not null"`
	TransactionID uint                 `json:"transaction_id" gorm:"uniqueIndex;not null"`
	Items         []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount   decimal.Decimal      `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	PaidAmount    decimal.Decimal      `json:"paid_amount" gorm:"type:decimal(12,2);not null"`
	OrderDate     time.Time            `json:"order_date"`
	Status        OrderStatus          `json:"status" gorm:"not null;default:'Waiting'"`
	Remarks       string               `json:"remarks"`
	ReadyTime     int                  `json:"ready_time"`
	DeliveryID    *uint                `json:"delivery_id"`
	StatusHistory []OrderStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// OrderItem snapshots the food at order time so later catalog edits do not
// rewrite history.
type OrderItem struct {
	ID      uint            `json:"id" gorm:"primaryKey"`
	OrderID uint            `json:"order_id" gorm:"index;not null"`
	FoodID  uint            `json:"food_id" gorm:"not null"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Unit    int             `json:"unit" gorm:"not null"`
}

// OrderStatusHistory tracks every status change of an order
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"order_id" gorm:"index;not null"`
	FromStatus OrderStatus `json:"from_status"`
	ToStatus   OrderStatus `json:"to_status" gorm:"not null"`
	ChangedBy  uint        `json:"changed_by"`
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"created_at"`
}

// PendingAssignment is an order still waiting for a courier
type PendingAssignment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"uniqueIndex;not null"`
	VendorID  uint      `json:"vendor_id" gorm:"not null"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	Resolved  bool      `json:"resolved" gorm:"index;not null;default:false"`
	LastError string    `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
