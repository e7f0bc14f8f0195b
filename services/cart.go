package services

import (
	"context"
	"errors"
	"fmt"

	"food-marketplace-api/models"

	"gorm.io/gorm"
)

// CartService mutates a customer's pending item list
type CartService struct {
	base
}

func NewCartService(d Deps) *CartService {
	return &CartService{base: newBase(d)}
}

// AddOrUpdateItem replaces the quantity of an existing line, removes it when
// unit <= 0, or appends a new line. Returns the resulting cart.
func (s *CartService) AddOrUpdateItem(ctx context.Context, customerID, foodID uint, unit int) ([]models.CartItem, error) {
	const op = "cart.AddOrUpdateItem"

	unlock, err := s.locks.Lock(ctx, customerKey(customerID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var food models.Food
	if err := db.First(&food, foodID).Error; err != nil {
		return nil, lookupErr(op, "Food not found", err)
	}
	if err := ensureCustomer(db, op, customerID); err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var line models.CartItem
		err := tx.Where("customer_id = ? AND food_id = ?", customerID, foodID).First(&line).Error
		switch {
		case err == nil && unit > 0:
			return tx.Model(&line).Update("unit", unit).Error
		case err == nil:
			return tx.Delete(&line).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		case unit > 0:
			return tx.Create(&models.CartItem{CustomerID: customerID, FoodID: foodID, Unit: unit}).Error
		}
		// absent and unit <= 0: nothing to remove
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loadCart(db, customerID)
}

// ClearCart empties the cart regardless of its prior state
func (s *CartService) ClearCart(ctx context.Context, customerID uint) error {
	const op = "cart.ClearCart"

	unlock, err := s.locks.Lock(ctx, customerKey(customerID))
	if err != nil {
		return err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	if err := ensureCustomer(db, op, customerID); err != nil {
		return err
	}
	if err := clearCart(db, customerID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CartService) GetCart(ctx context.Context, customerID uint) ([]models.CartItem, error) {
	db := s.db.WithContext(ctx)
	if err := ensureCustomer(db, "cart.GetCart", customerID); err != nil {
		return nil, err
	}
	return loadCart(db, customerID)
}

func clearCart(db *gorm.DB, customerID uint) error {
	return db.Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error
}

func loadCart(db *gorm.DB, customerID uint) ([]models.CartItem, error) {
	cart := []models.CartItem{}
	if err := db.Preload("Food").Where("customer_id = ?", customerID).Order("id").Find(&cart).Error; err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func ensureCustomer(db *gorm.DB, op string, customerID uint) error {
	var count int64
	if err := db.Model(&models.Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return notFound(op, "Customer not found")
	}
	return nil
}
