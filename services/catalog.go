package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"food-marketplace-api/logger"
	"food-marketplace-api/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	quickFoodMinutes  = 30
	topRestaurantsMax = 10
)

// CatalogService manages vendor foods and offers and the public browse views
type CatalogService struct {
	base
	now func() time.Time
}

func NewCatalogService(d Deps) *CatalogService {
	return &CatalogService{base: newBase(d), now: time.Now}
}

type FoodInput struct {
	Name        string
	Description string
	Category    string
	FoodType    string
	ReadyTime   int
	Price       decimal.Decimal
	Images      []string
}

func (s *CatalogService) AddFood(ctx context.Context, vendorID uint, in FoodInput) (*models.Food, error) {
	const op = "catalog.AddFood"

	if !in.Price.IsPositive() {
		return nil, invalid(op, "Price must be greater than zero")
	}
	if in.ReadyTime < 0 {
		return nil, invalid(op, "Ready time must not be negative")
	}
	db := s.db.WithContext(ctx)
	var vendor models.Vendor
	if err := db.Select("id").First(&vendor, vendorID).Error; err != nil {
		return nil, lookupErr(op, "Vendor not found", err)
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	food := &models.Food{
		VendorID:    vendorID,
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		FoodType:    in.FoodType,
		ReadyTime:   in.ReadyTime,
		Price:       in.Price,
		Images:      datatypes.JSONSlice[string](images),
	}
	if err := db.Create(food).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("food_added", logger.RequestID(ctx), "food added",
		slog.Uint64("vendor_id", uint64(vendorID)),
		slog.Uint64("food_id", uint64(food.ID)))
	return food, nil
}

func (s *CatalogService) ListVendorFoods(ctx context.Context, vendorID uint) ([]models.Food, error) {
	foods := []models.Food{}
	if err := s.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("id").Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("catalog.ListVendorFoods: %w", err)
	}
	return foods, nil
}

// servingVendors is the base query for vendors currently taking orders in pincode
func (s *CatalogService) servingVendors(ctx context.Context, pincode string) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("pincode = ? AND service_available = ?", pincode, true).
		Order("rating DESC, id")
}

// AvailableVendors lists serving vendors in pincode with their menus, best rated first
func (s *CatalogService) AvailableVendors(ctx context.Context, pincode string) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := s.servingVendors(ctx, pincode).Preload("Foods").Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("catalog.AvailableVendors: %w", err)
	}
	if len(vendors) == 0 {
		return nil, notFound("catalog.AvailableVendors", "Data not found")
	}
	return vendors, nil
}

func (s *CatalogService) TopRestaurants(ctx context.Context, pincode string) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := s.servingVendors(ctx, pincode).Limit(topRestaurantsMax).Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("catalog.TopRestaurants: %w", err)
	}
	if len(vendors) == 0 {
		return nil, notFound("catalog.TopRestaurants", "Data not found")
	}
	return vendors, nil
}

// FoodsReadyWithin returns foods of serving vendors that take at most
// 30 minutes to prepare
func (s *CatalogService) FoodsReadyWithin(ctx context.Context, pincode string) ([]models.Food, error) {
	return s.servingFoods(ctx, "catalog.FoodsReadyWithin", pincode, func(q *gorm.DB) *gorm.DB {
		return q.Where("foods.ready_time <= ?", quickFoodMinutes)
	})
}

// SearchFoods returns foods of serving vendors, optionally matching query
// against name or category
func (s *CatalogService) SearchFoods(ctx context.Context, pincode, query string) ([]models.Food, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	return s.servingFoods(ctx, "catalog.SearchFoods", pincode, func(q *gorm.DB) *gorm.DB {
		if query == "" {
			return q
		}
		like := "%" + query + "%"
		return q.Where("LOWER(foods.name) LIKE ? OR LOWER(foods.category) LIKE ?", like, like)
	})
}

func (s *CatalogService) servingFoods(ctx context.Context, op, pincode string, scope func(*gorm.DB) *gorm.DB) ([]models.Food, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Vendor{}).
		Where("pincode = ? AND service_available = ?", pincode, true).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return nil, notFound(op, "Data not found")
	}

	foods := []models.Food{}
	q := s.db.WithContext(ctx).Model(&models.Food{}).
		Joins("JOIN vendors ON vendors.id = foods.vendor_id").
		Where("vendors.pincode = ? AND vendors.service_available = ?", pincode, true).
		Order("foods.id")
	if err := q.Scopes(scope).Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return foods, nil
}

func (s *CatalogService) RestaurantByID(ctx context.Context, vendorID uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).Preload("Foods").First(&vendor, vendorID).Error; err != nil {
		return nil, lookupErr("catalog.RestaurantByID", "Data not found", err)
	}
	return &vendor, nil
}

// OffersByPincode returns active offers published for pincode
func (s *CatalogService) OffersByPincode(ctx context.Context, pincode string) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.WithContext(ctx).Where("pincode = ? AND is_active = ?", pincode, true).Order("id").Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("catalog.OffersByPincode: %w", err)
	}
	if len(offers) == 0 {
		return nil, notFound("catalog.OffersByPincode", "No offers found")
	}
	return offers, nil
}

// VendorOffers returns generic offers plus those linked to the vendor
func (s *CatalogService) VendorOffers(ctx context.Context, vendorID uint) ([]models.Offer, error) {
	db := s.db.WithContext(ctx)
	linked := db.Table("offer_vendors").Select("offer_id").Where("vendor_id = ?", vendorID)
	offers := []models.Offer{}
	err := db.Preload("Vendors").
		Where("offer_type = ?", models.OfferGeneric).
		Or("id IN (?)", linked).
		Order("id").Find(&offers).Error
	if err != nil {
		return nil, fmt.Errorf("catalog.VendorOffers: %w", err)
	}
	return offers, nil
}

type OfferInput struct {
	OfferType     models.OfferType
	Title         string
	Description   string
	MinValue      decimal.Decimal
	OfferAmount   decimal.Decimal
	StartValidity *time.Time
	EndValidity   *time.Time
	PromoCode     string
	PromoType     string
	Bank          []string
	Bins          []int
	Pincode       string
	IsActive      bool
}

func (in OfferInput) validate(op string) error {
	switch in.OfferType {
	case models.OfferGeneric, models.OfferVendor:
	default:
		return invalid(op, "Offer type must be GENERIC or VENDOR")
	}
	if !in.OfferAmount.IsPositive() {
		return invalid(op, "Offer amount must be greater than zero")
	}
	if in.MinValue.IsNegative() {
		return invalid(op, "Minimum value must not be negative")
	}
	if in.StartValidity != nil && in.EndValidity != nil && in.EndValidity.Before(*in.StartValidity) {
		return invalid(op, "Offer ends before it starts")
	}
	return nil
}

func (in OfferInput) apply(o *models.Offer) {
	o.OfferType = in.OfferType
	o.Title = in.Title
	o.Description = in.Description
	o.MinValue = in.MinValue
	o.OfferAmount = in.OfferAmount
	o.StartValidity = in.StartValidity
	o.EndValidity = in.EndValidity
	o.PromoCode = in.PromoCode
	o.PromoType = strings.ToUpper(in.PromoType)
	o.Bank = datatypes.JSONSlice[string](nonNil(in.Bank))
	o.Bins = datatypes.JSONSlice[int](nonNil(in.Bins))
	o.Pincode = in.Pincode
	o.IsActive = in.IsActive
}

// AddOffer creates an offer linked to the vendor
func (s *CatalogService) AddOffer(ctx context.Context, vendorID uint, in OfferInput) (*models.Offer, error) {
	const op = "catalog.AddOffer"

	if err := in.validate(op); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var vendor models.Vendor
	if err := db.First(&vendor, vendorID).Error; err != nil {
		return nil, lookupErr(op, "Vendor not found", err)
	}

	offer := &models.Offer{Vendors: []models.Vendor{vendor}}
	in.apply(offer)
	if err := db.Omit("Vendors.*").Create(offer).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("offer_added", logger.RequestID(ctx), "offer added",
		slog.Uint64("vendor_id", uint64(vendorID)),
		slog.Uint64("offer_id", uint64(offer.ID)))
	return offer, nil
}

// EditOffer overwrites an offer linked to the vendor
func (s *CatalogService) EditOffer(ctx context.Context, vendorID, offerID uint, in OfferInput) (*models.Offer, error) {
	const op = "catalog.EditOffer"

	if err := in.validate(op); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	var offer models.Offer
	err := db.Where("id = ? AND id IN (?)", offerID,
		db.Table("offer_vendors").Select("offer_id").Where("vendor_id = ?", vendorID)).
		First(&offer).Error
	if err != nil {
		return nil, lookupErr(op, "Offer not found", err)
	}
	in.apply(&offer)
	if err := db.Omit(clause.Associations).Save(&offer).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &offer, nil
}

// VerifyOffer reports whether the customer may apply the offer right now.
// USER promos are single use per customer.
func (s *CatalogService) VerifyOffer(ctx context.Context, customerID, offerID uint) (*models.Offer, error) {
	const op = "catalog.VerifyOffer"

	db := s.db.WithContext(ctx)
	var offer models.Offer
	if err := db.First(&offer, offerID).Error; err != nil {
		return nil, lookupErr(op, "Offer not found", err)
	}
	if !offer.IsActive || !offer.WithinValidity(s.now()) {
		return nil, invalid(op, "Offer is not valid")
	}
	if strings.EqualFold(offer.PromoType, "USER") {
		var used int64
		err := db.Model(&models.Transaction{}).
			Where("customer_id = ? AND offer_used = ? AND UPPER(status) <> ?",
				customerID, strconv.FormatUint(uint64(offer.ID), 10), models.TxnFailed).
			Count(&used).Error
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if used > 0 {
			return nil, invalid(op, "Offer already used")
		}
	}
	return &offer, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
