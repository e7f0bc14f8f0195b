package services

import (
	"context"
	"sync"
	"testing"

	"food-marketplace-api/events"
	evmocks "food-marketplace-api/events/mocks"
	"food-marketplace-api/models"
	notifymocks "food-marketplace-api/notify/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func newOrderService(deps Deps) *OrderService {
	ledger := NewLedgerService(deps, true)
	dispatcher := NewDispatcher(deps, NearestRanker{}, 5)
	return NewOrderService(deps, ledger, dispatcher, nil)
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateOrder_CartToConfirmedOrder(t *testing.T) {
	db := newTestDB(t)
	deps := testDeps(db)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 19.07, 72.87)
	foodA := seedFood(t, db, vendor.ID, "A", "10", 20)
	ctx := context.Background()

	if _, err := NewCartService(deps).AddOrUpdateItem(ctx, customer.ID, foodA.ID, 2); err != nil {
		t.Fatal(err)
	}
	txn, err := NewLedgerService(deps, true).OpenTransaction(ctx, OpenTransactionInput{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(25),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !txn.OrderValue.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected transaction amount 25, got %s", txn.OrderValue)
	}

	res, err := newOrderService(deps).CreateOrder(ctx, CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(25),
		Items:         []OrderLine{{FoodID: foodA.ID, Unit: 2}},
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	order := res.Order
	if !order.TotalAmount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected total 20, got %s", order.TotalAmount)
	}
	if !order.PaidAmount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected paid 25, got %s", order.PaidAmount)
	}
	if order.Status != models.StatusWaiting || order.ReadyTime != 45 || order.VendorID != vendor.ID {
		t.Fatalf("unexpected order: %+v", order)
	}
	if len(order.Items) != 1 || order.Items[0].Name != "A" || order.Items[0].Unit != 2 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}
	if order.OrderCode == "" {
		t.Fatal("expected an order code")
	}

	var stored models.Transaction
	if err := db.First(&stored, txn.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.TxnConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", stored.Status)
	}
	if stored.OrderID == nil || *stored.OrderID != order.ID || stored.VendorID == nil || *stored.VendorID != vendor.ID {
		t.Fatalf("expected transaction linked to order and vendor, got %+v", stored)
	}

	if len(res.Customer.Cart) != 0 {
		t.Fatalf("expected empty cart, got %+v", res.Customer.Cart)
	}
	if len(res.Customer.Orders) != 1 || res.Customer.Orders[0].ID != order.ID {
		t.Fatalf("expected order on customer profile, got %+v", res.Customer.Orders)
	}
}

func TestCreateOrder_TotalIgnoresDeclaredAmount(t *testing.T) {
	for _, declared := range []string{"0", "5", "37.50", "1000"} {
		t.Run(declared, func(t *testing.T) {
			db := newTestDB(t)
			deps := testDeps(db)
			customer := seedCustomer(t, db, "c@example.com")
			vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
			a := seedFood(t, db, vendor.ID, "A", "12.25", 20)
			b := seedFood(t, db, vendor.ID, "B", "3.10", 10)
			txn := seedTransaction(t, db, customer.ID, declared, models.TxnOpen)

			res, err := newOrderService(deps).CreateOrder(context.Background(), CreateOrderInput{
				CustomerID:    customer.ID,
				TransactionID: txn.ID,
				Amount:        decimal.RequireFromString(declared),
				Items:         []OrderLine{{FoodID: a.ID, Unit: 2}, {FoodID: b.ID, Unit: 3}},
			})
			if err != nil {
				t.Fatal(err)
			}
			if want := decimal.RequireFromString("33.80"); !res.Order.TotalAmount.Equal(want) {
				t.Fatalf("expected total %s, got %s", want, res.Order.TotalAmount)
			}
			if !res.Order.PaidAmount.Equal(decimal.RequireFromString(declared)) {
				t.Fatalf("expected paid %s, got %s", declared, res.Order.PaidAmount)
			}
		})
	}
}

func TestCreateOrder_SkipsUnresolvedItems(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "30", models.TxnOpen)

	res, err := newOrderService(testDeps(db)).CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(30),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 3}, {FoodID: 9999, Unit: 4}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Order.Items) != 1 || !res.Order.TotalAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected only the resolved item to count, got %+v", res.Order)
	}
}

func TestCreateOrder_RejectsWithoutWriting(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	other := seedCustomer(t, db, "other@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	otherVendor := seedVendor(t, db, "v2@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	b := seedFood(t, db, otherVendor.ID, "B", "10", 20)
	open := seedTransaction(t, db, customer.ID, "20", models.TxnOpen)
	failed := seedTransaction(t, db, customer.ID, "20", models.TxnFailed)
	failedLower := seedTransaction(t, db, customer.ID, "20", "failed")
	foreign := seedTransaction(t, db, other.ID, "20", models.TxnOpen)

	if _, err := NewCartService(testDeps(db)).AddOrUpdateItem(context.Background(), customer.ID, a.ID, 2); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		txnID uint
		items []OrderLine
		want  Kind
	}{
		{"failed transaction", failed.ID, []OrderLine{{FoodID: a.ID, Unit: 2}}, KindNotFound},
		{"lower-case failed transaction", failedLower.ID, []OrderLine{{FoodID: a.ID, Unit: 2}}, KindNotFound},
		{"missing transaction", 9999, []OrderLine{{FoodID: a.ID, Unit: 2}}, KindNotFound},
		{"someone else's transaction", foreign.ID, []OrderLine{{FoodID: a.ID, Unit: 2}}, KindNotFound},
		{"no items", open.ID, nil, KindInvalid},
		{"zero unit", open.ID, []OrderLine{{FoodID: a.ID, Unit: 0}}, KindInvalid},
		{"nothing resolves", open.ID, []OrderLine{{FoodID: 9999, Unit: 1}}, KindInvalid},
		{"two vendors", open.ID, []OrderLine{{FoodID: a.ID, Unit: 1}, {FoodID: b.ID, Unit: 1}}, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newOrderService(testDeps(db)).CreateOrder(context.Background(), CreateOrderInput{
				CustomerID:    customer.ID,
				TransactionID: tt.txnID,
				Amount:        decimal.NewFromInt(20),
				Items:         tt.items,
			})
			assertKind(t, err, tt.want)
		})
	}

	if n := countRows(t, db, &models.Order{}); n != 0 {
		t.Fatalf("expected no orders, got %d", n)
	}
	var txns []models.Transaction
	if err := db.Order("id").Find(&txns).Error; err != nil {
		t.Fatal(err)
	}
	for _, txn := range txns {
		if txn.OrderID != nil || txn.VendorID != nil || txn.Status == models.TxnConfirmed {
			t.Fatalf("transaction %d was mutated: %+v", txn.ID, txn)
		}
	}
	if n := countRows(t, db, &models.CartItem{}); n != 1 {
		t.Fatalf("expected cart to survive rejected orders, got %d lines", n)
	}
}

func TestCreateOrder_TransactionBacksOneOrder(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	svc := newOrderService(testDeps(db))
	in := CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(10),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
	}

	if _, err := svc.CreateOrder(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateOrder(context.Background(), in)
	assertKind(t, err, KindConflict)
	if n := countRows(t, db, &models.Order{}); n != 1 {
		t.Fatalf("expected one order, got %d", n)
	}
}

func TestCreateOrder_ConcurrentDoubleSpend(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	svc := newOrderService(testDeps(db))

	const workers = 6
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
				CustomerID:    customer.ID,
				TransactionID: txn.ID,
				Amount:        decimal.NewFromInt(10),
				Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case KindOf(err) == KindConflict:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || conflicts != workers-1 {
		t.Fatalf("expected 1 success and %d conflicts, got %d and %d", workers-1, succeeded, conflicts)
	}
	if n := countRows(t, db, &models.Order{}); n != 1 {
		t.Fatalf("expected one order, got %d", n)
	}
}

func TestCreateOrder_NoCourierStillSucceeds(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	// wrong pincode, unverified and off-duty couriers never qualify
	seedCourier(t, db, "far@example.com", "999999", 0, 0, true, true)
	seedCourier(t, db, "new@example.com", "400001", 0, 0, false, true)
	seedCourier(t, db, "off@example.com", "400001", 0, 0, true, false)

	res, err := newOrderService(testDeps(db)).CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(10),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
	})
	if err != nil {
		t.Fatalf("expected order despite missing courier, got %v", err)
	}
	if res.Order.DeliveryID != nil {
		t.Fatalf("expected no courier, got %d", *res.Order.DeliveryID)
	}
	if res.Dispatch.Status != DispatchUnavailable {
		t.Fatalf("expected UNAVAILABLE outcome, got %+v", res.Dispatch)
	}

	var pending models.PendingAssignment
	if err := db.Where("order_id = ?", res.Order.ID).First(&pending).Error; err != nil {
		t.Fatalf("expected pending assignment: %v", err)
	}
	if pending.Resolved || pending.Attempts != 1 || pending.VendorID != vendor.ID {
		t.Fatalf("unexpected pending assignment: %+v", pending)
	}
}

func TestCreateOrder_AssignsNearestCourierAndNotifies(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 19.0760, 72.8777)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	seedCourier(t, db, "far@example.com", "400001", 19.2183, 72.9781, true, true)
	near := seedCourier(t, db, "near@example.com", "400001", 19.0800, 72.8800, true, true)

	ctrl := gomock.NewController(t)
	pub := evmocks.NewMockPublisher(ctrl)
	alerter := notifymocks.NewMockVendorAlerter(ctrl)
	pub.EXPECT().Publish(gomock.Any(), events.OrderCreated, gomock.Any()).Return(nil)
	pub.EXPECT().Publish(gomock.Any(), events.DispatchAssigned, gomock.Any()).Return(nil)
	alerter.EXPECT().NewOrder(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, v *models.Vendor, o *models.Order) error {
			if v.ID != vendor.ID || o.TransactionID != txn.ID {
				t.Errorf("alert for wrong vendor/order: %d %d", v.ID, o.TransactionID)
			}
			return nil
		})

	deps := testDeps(db)
	deps.Publisher = pub
	ledger := NewLedgerService(deps, true)
	svc := NewOrderService(deps, ledger, NewDispatcher(deps, NearestRanker{}, 5), alerter)

	res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(10),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Dispatch.Assigned() || *res.Dispatch.CourierID != near.ID {
		t.Fatalf("expected nearest courier %d, got %+v", near.ID, res.Dispatch)
	}
	var stored models.Order
	if err := db.First(&stored, res.Order.ID).Error; err != nil {
		t.Fatal(err)
	}
	if stored.DeliveryID == nil || *stored.DeliveryID != near.ID {
		t.Fatalf("expected delivery id %d persisted, got %v", near.ID, stored.DeliveryID)
	}
}

func TestCreateOrder_RetriesOrderCodeCollision(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	svc := newOrderService(testDeps(db))
	codes := []string{"1234", "1234", "5678"}
	svc.codeGen = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	var got []string
	for range 2 {
		txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
		res, err := svc.CreateOrder(context.Background(), CreateOrderInput{
			CustomerID:    customer.ID,
			TransactionID: txn.ID,
			Amount:        decimal.NewFromInt(10),
			Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
		})
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, res.Order.OrderCode)
	}
	if got[0] != "1234" || got[1] != "5678" {
		t.Fatalf("expected codes [1234 5678], got %v", got)
	}
}

func TestProcessOrder(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	other := seedVendor(t, db, "v2@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	svc := newOrderService(testDeps(db))
	ctx := context.Background()

	res, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(10),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	ready := 15
	order, err := svc.ProcessOrder(ctx, ProcessOrderInput{
		VendorID:  vendor.ID,
		OrderID:   res.Order.ID,
		Status:    "ACCEPT",
		Remarks:   "on it",
		ReadyTime: &ready,
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != "ACCEPT" || order.Remarks != "on it" || order.ReadyTime != 15 {
		t.Fatalf("unexpected order after processing: %+v", order)
	}
	if len(order.StatusHistory) != 2 || order.StatusHistory[1].FromStatus != models.StatusWaiting {
		t.Fatalf("expected placed + processed history, got %+v", order.StatusHistory)
	}

	order, err = svc.ProcessOrder(ctx, ProcessOrderInput{VendorID: vendor.ID, OrderID: res.Order.ID, Status: "READY"})
	if err != nil {
		t.Fatal(err)
	}
	if order.ReadyTime != 15 {
		t.Fatalf("expected ready time to stay 15, got %d", order.ReadyTime)
	}

	_, err = svc.ProcessOrder(ctx, ProcessOrderInput{VendorID: other.ID, OrderID: res.Order.ID, Status: "READY"})
	assertKind(t, err, KindNotFound)
	_, err = svc.ProcessOrder(ctx, ProcessOrderInput{VendorID: vendor.ID, OrderID: res.Order.ID})
	assertKind(t, err, KindInvalid)
}

func TestOrderLookups(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	other := seedCustomer(t, db, "o@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	a := seedFood(t, db, vendor.ID, "A", "10", 20)
	txn := seedTransaction(t, db, customer.ID, "10", models.TxnOpen)
	svc := newOrderService(testDeps(db))
	ctx := context.Background()

	res, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:    customer.ID,
		TransactionID: txn.ID,
		Amount:        decimal.NewFromInt(10),
		Items:         []OrderLine{{FoodID: a.ID, Unit: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got, err := svc.GetOrder(ctx, customer.ID, res.Order.ID); err != nil || len(got.Items) != 1 {
		t.Fatalf("GetOrder: %+v, %v", got, err)
	}
	_, err = svc.GetOrder(ctx, other.ID, res.Order.ID)
	assertKind(t, err, KindNotFound)

	list, err := svc.ListCustomerOrders(ctx, customer.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListCustomerOrders: %+v, %v", list, err)
	}
	waiting, err := svc.ListVendorOrders(ctx, vendor.ID, string(models.StatusWaiting))
	if err != nil || len(waiting) != 1 {
		t.Fatalf("ListVendorOrders(Waiting): %+v, %v", waiting, err)
	}
	done, err := svc.ListVendorOrders(ctx, vendor.ID, "DELIVERED")
	if err != nil || len(done) != 0 {
		t.Fatalf("ListVendorOrders(DELIVERED): %+v, %v", done, err)
	}
}
