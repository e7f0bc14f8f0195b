package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CustomerSignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Phone    string `json:"phone" binding:"required,min=7,max=15"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyOTPRequest struct {
	OTP int `json:"otp" binding:"required"`
}

type CustomerProfileRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=32"`
	LastName  string `json:"last_name" binding:"required,min=1,max=32"`
	Address   string `json:"address" binding:"required,min=6,max=255"`
}

type CartRequest struct {
	FoodID uint `json:"food_id" binding:"required"`
	Unit   int  `json:"unit"`
}

type CreatePaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentMode string          `json:"payment_mode" binding:"required"`
	OfferID     *uint           `json:"offer_id"`
}

type OrderItemRequest struct {
	FoodID uint `json:"food_id" binding:"required"`
	Unit   int  `json:"unit" binding:"required,min=1"`
}

type CreateOrderRequest struct {
	TransactionID uint               `json:"txn_id" binding:"required"`
	Amount        decimal.Decimal    `json:"amount"`
	Items         []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CustomerSignup creates an account and texts the first OTP
func (h *Handler) CustomerSignup(c *gin.Context) {
	var req CustomerSignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	customer, err := h.svc.Identity.SignupCustomer(ctx, services.CustomerSignup{
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(customer.ID, customer.Email, models.RoleCustomer, customer.Verified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Account created, verify the OTP sent to your phone",
		"token":    token,
		"verified": customer.Verified,
		"email":    customer.Email,
	})
}

// CustomerLogin authenticates a customer and returns a JWT
func (h *Handler) CustomerLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	customer, err := h.svc.Identity.LoginCustomer(ctx, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(customer.ID, customer.Email, models.RoleCustomer, customer.Verified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"token":    token,
		"verified": customer.Verified,
		"email":    customer.Email,
	})
}

// CustomerVerify checks the OTP and returns a token carrying the verified flag
func (h *Handler) CustomerVerify(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	customer, err := h.svc.Identity.VerifyCustomer(ctx, middleware.GetUserID(c), req.OTP)
	if err != nil {
		h.respondError(c, err)
		return
	}
	token, err := h.token(customer.ID, customer.Email, models.RoleCustomer, customer.Verified)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Account verified",
		"token":    token,
		"verified": customer.Verified,
		"email":    customer.Email,
	})
}

// RequestOTP re-issues a one-time password
func (h *Handler) RequestOTP(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.svc.Identity.RequestOTP(ctx, middleware.GetUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to your registered phone number"})
}

func (h *Handler) GetCustomerProfile(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	customer, err := h.svc.Identity.GetCustomer(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

func (h *Handler) UpdateCustomerProfile(c *gin.Context) {
	var req CustomerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	customer, err := h.svc.Identity.UpdateCustomerProfile(ctx, middleware.GetUserID(c), services.CustomerProfile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Address:   req.Address,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "customer": customer})
}

// AddToCart sets the quantity of a food in the cart; unit <= 0 removes it
func (h *Handler) AddToCart(c *gin.Context) {
	var req CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	cart, err := h.svc.Cart.AddOrUpdateItem(ctx, middleware.GetUserID(c), req.FoodID, req.Unit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(cart), "cart": cart})
}

func (h *Handler) GetCart(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	cart, err := h.svc.Cart.GetCart(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(cart), "cart": cart})
}

func (h *Handler) ClearCart(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.svc.Cart.ClearCart(ctx, middleware.GetUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "cart": []models.CartItem{}})
}

// CreatePayment opens a cash-on-delivery transaction
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	txn, err := h.svc.Ledger.OpenTransaction(ctx, services.OpenTransactionInput{
		CustomerID:  middleware.GetUserID(c),
		Amount:      req.Amount,
		PaymentMode: req.PaymentMode,
		OfferID:     req.OfferID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Transaction opened", "transaction": txn})
}

// CreateOrder turns an open transaction and the given items into an order
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	lines := make([]services.OrderLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = services.OrderLine{FoodID: it.FoodID, Unit: it.Unit}
	}
	res, err := h.svc.Orders.CreateOrder(ctx, services.CreateOrderInput{
		CustomerID:    middleware.GetUserID(c),
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Items:         lines,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order placed successfully",
		"order":    res.Order,
		"dispatch": res.Dispatch,
		"customer": res.Customer,
	})
}

func (h *Handler) GetOrders(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	orders, err := h.svc.Orders.ListCustomerOrders(ctx, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	order, err := h.svc.Orders.GetOrder(ctx, middleware.GetUserID(c), orderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// VerifyOffer tells the customer whether an offer can be applied
func (h *Handler) VerifyOffer(c *gin.Context) {
	offerID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	offer, err := h.svc.Catalog.VerifyOffer(ctx, middleware.GetUserID(c), offerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer is valid", "offer": offer})
}
