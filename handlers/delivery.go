package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

type DeliverySignupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=64"`
	Phone     string `json:"phone" binding:"required,min=7,max=15"`
	FirstName string `json:"first_name" binding:"required,min=2,max=32"`
	LastName  string `json:"last_name" binding:"required,min=1,max=32"`
	Address   string `json:"address" binding:"required,min=6,max=255"`
	Pincode   string `json:"pincode" binding:"required,pincode"`
}

type DeliveryProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=32"`
	LastName  string `json:"last_name" binding:"required,min=1,max=32"`
	Address   string `json:"address" binding:"required,min=6,max=255"`
}

// DeliverySignup registers a courier; the account needs admin verification
// before it receives orders
func (h *Handler) DeliverySignup(c *gin.Context) {
	var req DeliverySignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.SignupCourier(ctx, services.CourierSignup{
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
		Pincode:   req.Pincode,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(courier.ID, courier.Email, models.RoleDelivery, courier.Verified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Account created, awaiting verification",
		"token":    token,
		"verified": courier.Verified,
		"email":    courier.Email,
	})
}

func (h *Handler) DeliveryLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.LoginCourier(ctx, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(courier.ID, courier.Email, models.RoleDelivery, courier.Verified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"token":    token,
		"verified": courier.Verified,
		"email":    courier.Email,
	})
}

// UpdateDeliveryStatus toggles the courier's availability and records the
// reported position
func (h *Handler) UpdateDeliveryStatus(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.ToggleCourierAvailability(ctx, middleware.GetUserID(c), req.Lat, req.Lng)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_available": courier.IsAvailable, "delivery_user": courier})
}

func (h *Handler) GetDeliveryProfile(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.GetCourier(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_user": courier})
}

func (h *Handler) UpdateDeliveryProfile(c *gin.Context) {
	var req DeliveryProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.UpdateCourierProfile(ctx, middleware.GetUserID(c), services.CourierProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "delivery_user": courier})
}
