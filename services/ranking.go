package services

import (
	"math"
	"slices"

	"food-marketplace-api/models"
)

// CourierRanker orders eligible couriers for a vendor, best first
type CourierRanker interface {
	Rank(vendor *models.Vendor, couriers []models.DeliveryUser) []models.DeliveryUser
}

// NearestRanker sorts couriers by great-circle distance to the vendor.
// Ties keep store order.
type NearestRanker struct{}

func (NearestRanker) Rank(vendor *models.Vendor, couriers []models.DeliveryUser) []models.DeliveryUser {
	ranked := slices.Clone(couriers)
	slices.SortStableFunc(ranked, func(a, b models.DeliveryUser) int {
		da := HaversineKm(vendor.Lat, vendor.Lng, a.Lat, a.Lng)
		db := HaversineKm(vendor.Lat, vendor.Lng, b.Lat, b.Lng)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	return ranked
}

// FirstAvailableRanker keeps store order
type FirstAvailableRanker struct{}

func (FirstAvailableRanker) Rank(_ *models.Vendor, couriers []models.DeliveryUser) []models.DeliveryUser {
	return couriers
}

// RankerFor maps a configured strategy name to a ranker; unknown names fall
// back to nearest
func RankerFor(strategy string) CourierRanker {
	if strategy == "first" {
		return FirstAvailableRanker{}
	}
	return NearestRanker{}
}

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in km
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}
