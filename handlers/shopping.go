package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// pincodeParam validates the :pincode path segment
func pincodeParam(c *gin.Context) (string, bool) {
	pincode := c.Param("pincode")
	if !pincodePattern.MatchString(pincode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pincode"})
		return "", false
	}
	return pincode, true
}

// FoodAvailability lists restaurants serving the pincode with their menus
func (h *Handler) FoodAvailability(c *gin.Context) {
	pincode, ok := pincodeParam(c)
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendors, err := h.svc.Catalog.AvailableVendors(ctx, pincode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vendors), "restaurants": vendors})
}

func (h *Handler) TopRestaurants(c *gin.Context) {
	pincode, ok := pincodeParam(c)
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendors, err := h.svc.Catalog.TopRestaurants(ctx, pincode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vendors), "restaurants": vendors})
}

func (h *Handler) FoodsIn30Min(c *gin.Context) {
	pincode, ok := pincodeParam(c)
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	foods, err := h.svc.Catalog.FoodsReadyWithin(ctx, pincode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(foods), "foods": foods})
}

// SearchFoods matches the optional q parameter against food name and category
func (h *Handler) SearchFoods(c *gin.Context) {
	pincode, ok := pincodeParam(c)
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	foods, err := h.svc.Catalog.SearchFoods(ctx, pincode, c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(foods), "foods": foods})
}

func (h *Handler) AvailableOffers(c *gin.Context) {
	pincode, ok := pincodeParam(c)
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	offers, err := h.svc.Catalog.OffersByPincode(ctx, pincode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(offers), "offers": offers})
}

func (h *Handler) RestaurantByID(c *gin.Context) {
	vendorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Catalog.RestaurantByID(ctx, vendorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": vendor})
}
