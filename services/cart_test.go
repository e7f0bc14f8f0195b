package services

import (
	"context"
	"testing"
)

func TestAddOrUpdateItem(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	pizza := seedFood(t, db, vendor.ID, "Pizza", "10", 20)
	pasta := seedFood(t, db, vendor.ID, "Pasta", "8", 15)
	cart := NewCartService(testDeps(db))
	ctx := context.Background()

	items, err := cart.AddOrUpdateItem(ctx, customer.ID, pizza.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Unit != 2 || items[0].Food.Name != "Pizza" {
		t.Fatalf("unexpected cart after add: %+v", items)
	}

	items, err = cart.AddOrUpdateItem(ctx, customer.ID, pizza.ID, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Unit != 5 {
		t.Fatalf("expected quantity to be replaced with 5, got %+v", items)
	}

	items, err = cart.AddOrUpdateItem(ctx, customer.ID, pasta.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(items))
	}

	for _, unit := range []int{0, -3} {
		if _, err := cart.AddOrUpdateItem(ctx, customer.ID, pasta.ID, 1); err != nil {
			t.Fatal(err)
		}
		items, err = cart.AddOrUpdateItem(ctx, customer.ID, pasta.ID, unit)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 1 || items[0].FoodID != pizza.ID {
			t.Fatalf("unit %d: expected pasta line removed, got %+v", unit, items)
		}
	}

	// removing something that is not there changes nothing
	items, err = cart.AddOrUpdateItem(ctx, customer.ID, pasta.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("expected cart untouched, got %+v", items)
	}
}

func TestAddOrUpdateItem_NotFound(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	pizza := seedFood(t, db, vendor.ID, "Pizza", "10", 20)
	cart := NewCartService(testDeps(db))

	_, err := cart.AddOrUpdateItem(context.Background(), customer.ID, 9999, 1)
	assertKind(t, err, KindNotFound)

	_, err = cart.AddOrUpdateItem(context.Background(), 9999, pizza.ID, 1)
	assertKind(t, err, KindNotFound)
}

func TestClearCart_Idempotent(t *testing.T) {
	db := newTestDB(t)
	customer := seedCustomer(t, db, "c@example.com")
	vendor := seedVendor(t, db, "v@example.com", "400001", 0, 0)
	pizza := seedFood(t, db, vendor.ID, "Pizza", "10", 20)
	cart := NewCartService(testDeps(db))
	ctx := context.Background()

	if _, err := cart.AddOrUpdateItem(ctx, customer.ID, pizza.ID, 3); err != nil {
		t.Fatal(err)
	}
	for i := range 2 {
		if err := cart.ClearCart(ctx, customer.ID); err != nil {
			t.Fatalf("clear #%d: %v", i+1, err)
		}
		items, err := cart.GetCart(ctx, customer.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(items) != 0 {
			t.Fatalf("clear #%d: expected empty cart, got %+v", i+1, items)
		}
	}
}
