package handlers

import (
	"net/http"
	"strings"
	"time"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type VendorProfileRequest struct {
	Name      string   `json:"name" binding:"required"`
	Address   string   `json:"address"`
	Phone     string   `json:"phone"`
	FoodTypes []string `json:"food_types"`
}

type LocationRequest struct {
	Lat *float64 `json:"lat" binding:"omitempty,latitude"`
	Lng *float64 `json:"lng" binding:"omitempty,longitude"`
}

type FoodRequest struct {
	Name        string `form:"name" json:"name" binding:"required"`
	Description string `form:"description" json:"description"`
	Category    string `form:"category" json:"category"`
	FoodType    string `form:"food_type" json:"food_type"`
	ReadyTime   int    `form:"ready_time" json:"ready_time" binding:"min=0"`
	Price       string `form:"price" json:"price" binding:"required"`
}

type ProcessOrderRequest struct {
	Status  string `json:"status" binding:"required"`
	Remarks string `json:"remarks"`
	Time    *int   `json:"time"`
}

type OfferRequest struct {
	OfferType     models.OfferType `json:"offer_type" binding:"required,oneof=GENERIC VENDOR"`
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	MinValue      decimal.Decimal  `json:"min_value"`
	OfferAmount   decimal.Decimal  `json:"offer_amount"`
	StartValidity *time.Time       `json:"start_validity"`
	EndValidity   *time.Time       `json:"end_validity"`
	PromoCode     string           `json:"promo_code"`
	PromoType     string           `json:"promo_type" binding:"omitempty,oneof=USER ALL BANK CARD"`
	Bank          []string         `json:"bank"`
	Bins          []int            `json:"bins"`
	Pincode       string           `json:"pincode" binding:"required,pincode"`
	IsActive      bool             `json:"is_active"`
}

func (r OfferRequest) input() services.OfferInput {
	return services.OfferInput{
		OfferType:     r.OfferType,
		Title:         r.Title,
		Description:   r.Description,
		MinValue:      r.MinValue,
		OfferAmount:   r.OfferAmount,
		StartValidity: r.StartValidity,
		EndValidity:   r.EndValidity,
		PromoCode:     r.PromoCode,
		PromoType:     r.PromoType,
		Bank:          r.Bank,
		Bins:          r.Bins,
		Pincode:       r.Pincode,
		IsActive:      r.IsActive,
	}
}

// VendorLogin authenticates a vendor and returns a JWT
func (h *Handler) VendorLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.LoginVendor(ctx, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(vendor.ID, vendor.Email, models.RoleVendor, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"vendor":  gin.H{"id": vendor.ID, "name": vendor.Name, "email": vendor.Email},
	})
}

func (h *Handler) GetVendorProfile(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.GetVendor(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

func (h *Handler) UpdateVendorProfile(c *gin.Context) {
	var req VendorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.UpdateVendorProfile(ctx, middleware.GetUserID(c), services.VendorProfile{
		Name:      req.Name,
		Address:   req.Address,
		Phone:     req.Phone,
		FoodTypes: req.FoodTypes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "vendor": vendor})
}

// UpdateVendorCoverImage uploads the multipart "images" files as cover images
func (h *Handler) UpdateVendorCoverImage(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	urls, err := h.saveImages(ctx, c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(urls) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one image is required"})
		return
	}
	vendor, err := h.svc.Identity.AddCoverImages(ctx, middleware.GetUserID(c), urls)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cover images updated", "vendor": vendor})
}

// UpdateVendorService toggles whether the vendor takes orders
func (h *Handler) UpdateVendorService(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.ToggleVendorService(ctx, middleware.GetUserID(c), req.Lat, req.Lng)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service_available": vendor.ServiceAvailable, "vendor": vendor})
}

// AddFood adds a menu item; multipart requests may attach images
func (h *Handler) AddFood(c *gin.Context) {
	var req FoodRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid price"})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	var images []string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if images, err = h.saveImages(ctx, c); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	food, err := h.svc.Catalog.AddFood(ctx, middleware.GetUserID(c), services.FoodInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		FoodType:    req.FoodType,
		ReadyTime:   req.ReadyTime,
		Price:       price,
		Images:      images,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Food added", "food": food})
}

func (h *Handler) GetFoods(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	foods, err := h.svc.Catalog.ListVendorFoods(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(foods), "foods": foods})
}

// GetVendorOrders returns the vendor's orders with a per-status summary
func (h *Handler) GetVendorOrders(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	orders, err := h.svc.Orders.ListVendorOrders(ctx, middleware.GetUserID(c), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

func (h *Handler) GetVendorOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	order, err := h.svc.Orders.GetVendorOrder(ctx, middleware.GetUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ProcessOrder applies the vendor's status, remarks and ready time
func (h *Handler) ProcessOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ProcessOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	order, err := h.svc.Orders.ProcessOrder(ctx, services.ProcessOrderInput{
		VendorID:  middleware.GetUserID(c),
		OrderID:   orderID,
		Status:    req.Status,
		Remarks:   req.Remarks,
		ReadyTime: req.Time,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

func (h *Handler) GetOffers(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	offers, err := h.svc.Catalog.VendorOffers(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(offers), "offers": offers})
}

func (h *Handler) AddOffer(c *gin.Context) {
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	offer, err := h.svc.Catalog.AddOffer(ctx, middleware.GetUserID(c), req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Offer created", "offer": offer})
}

func (h *Handler) EditOffer(c *gin.Context) {
	offerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req OfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	offer, err := h.svc.Catalog.EditOffer(ctx, middleware.GetUserID(c), offerID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer updated", "offer": offer})
}
