package services

import (
	"testing"

	"food-marketplace-api/config"
	"food-marketplace-api/logger"
	"food-marketplace-api/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard, TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testDeps(db *gorm.DB) Deps {
	return Deps{DB: db, Locks: NewKeyLock(), Log: logger.Discard()}
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	t.Helper()
	c := models.Customer{Email: email, PasswordHash: "hash", Salt: "salt", Phone: "+15550001"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func seedVendor(t *testing.T, db *gorm.DB, email, pincode string, lat, lng float64) models.Vendor {
	t.Helper()
	v := models.Vendor{
		Name:             "Vendor " + email,
		Email:            email,
		PasswordHash:     "hash",
		Salt:             "salt",
		Pincode:          pincode,
		ServiceAvailable: true,
		Lat:              lat,
		Lng:              lng,
	}
	if err := db.Create(&v).Error; err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return v
}

func seedFood(t *testing.T, db *gorm.DB, vendorID uint, name, price string, readyTime int) models.Food {
	t.Helper()
	f := models.Food{
		VendorID:  vendorID,
		Name:      name,
		Category:  "main",
		ReadyTime: readyTime,
		Price:     decimal.RequireFromString(price),
	}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("seed food: %v", err)
	}
	return f
}

func seedCourier(t *testing.T, db *gorm.DB, email, pincode string, lat, lng float64, verified, available bool) models.DeliveryUser {
	t.Helper()
	c := models.DeliveryUser{
		Email:        email,
		PasswordHash: "hash",
		Salt:         "salt",
		Phone:        "+15550002",
		Pincode:      pincode,
		Lat:          lat,
		Lng:          lng,
	}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed courier: %v", err)
	}
	// bool columns with a default are skipped on insert when false
	err := db.Model(&c).Updates(map[string]any{"verified": verified, "is_available": available}).Error
	if err != nil {
		t.Fatalf("seed courier flags: %v", err)
	}
	c.Verified, c.IsAvailable = verified, available
	return c
}

func seedTransaction(t *testing.T, db *gorm.DB, customerID uint, amount string, status models.TransactionStatus) models.Transaction {
	t.Helper()
	txn := models.Transaction{
		CustomerID: customerID,
		OrderValue: decimal.RequireFromString(amount),
		OfferUsed:  "NA",
		Status:     status,
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func assertKind(t *testing.T, err error, want Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := KindOf(err); got != want {
		t.Fatalf("expected %s error, got %s (%v)", want, got, err)
	}
}
