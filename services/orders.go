package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"food-marketplace-api/events"
	"food-marketplace-api/logger"
	"food-marketplace-api/models"
	"food-marketplace-api/notify"
	"food-marketplace-api/statemachine"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderCodeAttempts = 5

// OrderService turns a cart and an open transaction into an order
type OrderService struct {
	base
	ledger     *LedgerService
	dispatcher *Dispatcher
	alerter    notify.VendorAlerter
	codeGen    func() string
	now        func() time.Time
}

func NewOrderService(d Deps, ledger *LedgerService, dispatcher *Dispatcher, alerter notify.VendorAlerter) *OrderService {
	if alerter == nil {
		alerter = notify.NoopAlerter{}
	}
	return &OrderService{
		base:       newBase(d),
		ledger:     ledger,
		dispatcher: dispatcher,
		alerter:    alerter,
		codeGen:    GenerateOrderCode,
		now:        time.Now,
	}
}

type OrderLine struct {
	FoodID uint
	Unit   int
}

type CreateOrderInput struct {
	CustomerID    uint
	TransactionID uint
	Amount        decimal.Decimal // what the customer declared as paid
	Items         []OrderLine
}

type CreateOrderResult struct {
	Customer *models.Customer
	Order    *models.Order
	Dispatch DispatchOutcome
}

// CreateOrder validates the transaction, prices the items from the catalog,
// persists the order, clears the cart and confirms the transaction in one
// database transaction, then asks the dispatcher for a courier. Dispatch
// trouble never fails the order.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*CreateOrderResult, error) {
	const op = "orders.CreateOrder"
	reqID := logger.RequestID(ctx)

	unlock, err := s.locks.Lock(ctx, customerKey(in.CustomerID), transactionKey(in.TransactionID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	ok, txn, err := s.ledger.ValidateTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	if !ok || txn.CustomerID != in.CustomerID {
		return nil, notFound(op, "Transaction not found or failed")
	}
	if txn.OrderID != nil {
		return nil, conflict(op, "Transaction already backs an order")
	}
	if err := statemachine.CanTransition(txn.Status, models.TxnConfirmed, statemachine.ActorSystem); err != nil {
		return nil, &Error{Kind: KindInvalid, Op: op, Msg: err.Error()}
	}

	db := s.db.WithContext(ctx)
	if err := ensureCustomer(db, op, in.CustomerID); err != nil {
		return nil, err
	}

	items, total, vendorID, err := s.priceItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:    in.CustomerID,
		VendorID:      vendorID,
		TransactionID: txn.ID,
		Items:         items,
		TotalAmount:   total,
		PaidAmount:    in.Amount,
		OrderDate:     s.now(),
		Status:        models.StatusWaiting,
		ReadyTime:     models.DefaultReadyTime,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		code, err := s.uniqueOrderCode(tx)
		if err != nil {
			return err
		}
		order.OrderCode = code
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.StatusWaiting,
			ChangedBy: in.CustomerID,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("create order history: %w", err)
		}
		if err := clearCart(tx, in.CustomerID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		// the order_id guard keeps a transaction from backing two orders
		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND order_id IS NULL", txn.ID).
			Updates(map[string]any{
				"vendor_id": vendorID,
				"order_id":  order.ID,
				"status":    models.TxnConfirmed,
			})
		if res.Error != nil {
			return fmt.Errorf("confirm transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return conflict(op, "Transaction already backs an order")
		}
		return nil
	})
	if err != nil {
		if KindOf(err) != KindInternal {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order_created", reqID, "order created",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("order_code", order.OrderCode),
		slog.Uint64("transaction_id", uint64(txn.ID)),
		slog.String("total", order.TotalAmount.StringFixed(2)),
		slog.String("paid", order.PaidAmount.StringFixed(2)))
	s.publish(ctx, events.OrderCreated, order)
	s.alertVendor(ctx, order)

	outcome := s.dispatcher.AssignCourier(ctx, order.ID, vendorID)
	if outcome.Assigned() {
		order.DeliveryID = outcome.CourierID
	}

	var customer models.Customer
	err = db.Preload("Cart.Food").
		Preload("Orders", byID).
		Preload("Orders.Items").
		First(&customer, in.CustomerID).Error
	if err != nil {
		return nil, fmt.Errorf("%s: reload customer: %w", op, err)
	}

	return &CreateOrderResult{Customer: &customer, Order: order, Dispatch: outcome}, nil
}

// priceItems resolves every line against the catalog in one query. Lines
// whose food no longer exists are skipped; the rest must share one vendor.
func (s *OrderService) priceItems(ctx context.Context, lines []OrderLine) ([]models.OrderItem, decimal.Decimal, uint, error) {
	const op = "orders.CreateOrder"

	if len(lines) == 0 {
		return nil, decimal.Zero, 0, invalid(op, "Order must contain at least one item")
	}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if l.Unit <= 0 {
			return nil, decimal.Zero, 0, invalid(op, "Item unit must be greater than zero")
		}
		ids = append(ids, l.FoodID)
	}

	var foods []models.Food
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&foods).Error; err != nil {
		return nil, decimal.Zero, 0, fmt.Errorf("%s: resolve foods: %w", op, err)
	}
	foodsByID := make(map[uint]models.Food, len(foods))
	for _, f := range foods {
		foodsByID[f.ID] = f
	}

	var (
		items    []models.OrderItem
		total    = decimal.Zero
		vendorID uint
	)
	for _, l := range lines {
		food, ok := foodsByID[l.FoodID]
		if !ok {
			continue
		}
		if vendorID != 0 && food.VendorID != vendorID {
			return nil, decimal.Zero, 0, invalid(op, "All items must come from the same vendor")
		}
		vendorID = food.VendorID
		total = total.Add(food.Price.Mul(decimal.NewFromInt(int64(l.Unit))))
		items = append(items, models.OrderItem{
			FoodID: food.ID,
			Name:   food.Name,
			Price:  food.Price,
			Unit:   l.Unit,
		})
	}
	if len(items) == 0 {
		return nil, decimal.Zero, 0, invalid(op, "None of the ordered foods exist")
	}
	return items, total, vendorID, nil
}

func (s *OrderService) uniqueOrderCode(tx *gorm.DB) (string, error) {
	for range orderCodeAttempts {
		code := s.codeGen()
		var count int64
		if err := tx.Model(&models.Order{}).Where("order_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check order code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", conflict("orders.CreateOrder", "Could not allocate a unique order code")
}

func byID(q *gorm.DB) *gorm.DB { return q.Order("id") }

func (s *OrderService) alertVendor(ctx context.Context, order *models.Order) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).First(&vendor, order.VendorID).Error; err != nil {
		s.log.Error("vendor_alert_failed", logger.RequestID(ctx), "failed to load vendor for alert", err,
			slog.Uint64("order_id", uint64(order.ID)))
		return
	}
	if err := s.alerter.NewOrder(ctx, &vendor, order); err != nil {
		s.log.Error("vendor_alert_failed", logger.RequestID(ctx), "failed to alert vendor", err,
			slog.Uint64("order_id", uint64(order.ID)),
			slog.Uint64("vendor_id", uint64(vendor.ID)))
	}
}

// GetOrder returns one of the customer's orders
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").Preload("StatusHistory", byID).
		Where("id = ? AND customer_id = ?", orderID, customerID).First(&order).Error
	if err != nil {
		return nil, lookupErr("orders.GetOrder", "Order not found", err)
	}
	return &order, nil
}

func (s *OrderService) ListCustomerOrders(ctx context.Context, customerID uint) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).Preload("Items").
		Where("customer_id = ?", customerID).Order("id DESC").Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("orders.ListCustomerOrders: %w", err)
	}
	return orders, nil
}

// ListVendorOrders returns the vendor's orders, newest first, optionally
// filtered by status
func (s *OrderService) ListVendorOrders(ctx context.Context, vendorID uint, status string) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("Items").Where("vendor_id = ?", vendorID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	orders := []models.Order{}
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("orders.ListVendorOrders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) GetVendorOrder(ctx context.Context, vendorID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").Preload("StatusHistory", byID).
		Where("id = ? AND vendor_id = ?", orderID, vendorID).First(&order).Error
	if err != nil {
		return nil, lookupErr("orders.GetVendorOrder", "Order not found", err)
	}
	return &order, nil
}

type ProcessOrderInput struct {
	VendorID  uint
	OrderID   uint
	Status    string
	Remarks   string
	ReadyTime *int
}

// ProcessOrder applies a vendor-chosen status, remarks and optionally a new
// ready time, and records the change in the order's history
func (s *OrderService) ProcessOrder(ctx context.Context, in ProcessOrderInput) (*models.Order, error) {
	const op = "orders.ProcessOrder"

	if in.Status == "" {
		return nil, invalid(op, "Status is required")
	}
	if in.ReadyTime != nil && *in.ReadyTime <= 0 {
		return nil, invalid(op, "Ready time must be greater than zero")
	}

	unlock, err := s.locks.Lock(ctx, orderKey(in.OrderID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	db := s.db.WithContext(ctx)
	var order models.Order
	if err := db.Where("id = ? AND vendor_id = ?", in.OrderID, in.VendorID).First(&order).Error; err != nil {
		return nil, lookupErr(op, "Order not found", err)
	}

	prev := order.Status
	readyTime := order.ReadyTime
	if in.ReadyTime != nil {
		readyTime = *in.ReadyTime
	}
	updates := map[string]any{
		"status":     in.Status,
		"remarks":    in.Remarks,
		"ready_time": readyTime,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: prev,
			ToStatus:   models.OrderStatus(in.Status),
			ChangedBy:  in.VendorID,
			Note:       in.Remarks,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("order_processed", logger.RequestID(ctx), "order status updated",
		slog.Uint64("order_id", uint64(order.ID)),
		slog.String("from", string(prev)),
		slog.String("to", in.Status))
	s.publish(ctx, events.OrderStatus, map[string]any{
		"order_id":        order.ID,
		"previous_status": prev,
		"status":          in.Status,
		"ready_time":      readyTime,
	})
	return s.GetVendorOrder(ctx, in.VendorID, in.OrderID)
}
