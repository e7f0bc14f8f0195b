package handlers

import (
	"net/http"

	"food-marketplace-api/models"
	"food-marketplace-api/services"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

type CreateVendorRequest struct {
	Name           string   `json:"name" binding:"required"`
	OwnerName      string   `json:"owner_name" binding:"required"`
	FoodTypes      []string `json:"food_types"`
	Pincode        string   `json:"pincode" binding:"required,pincode"`
	Address        string   `json:"address"`
	Phone          string   `json:"phone" binding:"required"`
	Email          string   `json:"email" binding:"required,email"`
	Password       string   `json:"password" binding:"required,min=6,max=64"`
	TelegramChatID int64    `json:"telegram_chat_id"`
}

type ChangeTransactionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type VerifyDeliveryRequest struct {
	ID       uint `json:"id" binding:"required"`
	Verified bool `json:"verified"`
}

func (h *Handler) CreateVendor(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.CreateVendor(ctx, services.CreateVendorInput{
		Name:           req.Name,
		OwnerName:      req.OwnerName,
		FoodTypes:      req.FoodTypes,
		Pincode:        req.Pincode,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		Password:       req.Password,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Vendor created", "vendor": vendor})
}

func (h *Handler) GetVendors(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendors, err := h.svc.Identity.ListVendors(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(vendors), "vendors": vendors})
}

func (h *Handler) GetVendorByID(c *gin.Context) {
	vendorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	vendor, err := h.svc.Identity.GetVendor(ctx, vendorID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": vendor})
}

// GetTransactions lists ledger entries, optionally filtered by ?status=
func (h *Handler) GetTransactions(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	txns, err := h.svc.Ledger.ListTransactions(ctx, c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(txns), "transactions": txns})
}

func (h *Handler) GetTransaction(c *gin.Context) {
	txnID, ok := parseID(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	txn, err := h.svc.Ledger.GetTransaction(ctx, txnID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// ChangeTransactionStatus moves a transaction that no order has claimed yet
func (h *Handler) ChangeTransactionStatus(c *gin.Context) {
	txnID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ChangeTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	txn, err := h.svc.Ledger.ChangeStatus(ctx, txnID, models.TransactionStatus(req.Status), statemachine.ActorAdmin)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction status updated", "transaction": txn})
}

func (h *Handler) VerifyDeliveryUser(c *gin.Context) {
	var req VerifyDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	courier, err := h.svc.Identity.VerifyCourier(ctx, req.ID, req.Verified)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery user updated", "delivery_user": courier})
}

// GetDeliveryUsers lists couriers, optionally filtered by ?pincode=
func (h *Handler) GetDeliveryUsers(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	couriers, err := h.svc.Identity.ListCouriers(ctx, c.Query("pincode"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(couriers), "delivery_users": couriers})
}

func (h *Handler) GetPendingDispatch(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	pending, err := h.svc.Dispatcher.ListPending(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pending), "pending": pending})
}

// RetryDispatch runs one retry pass over unresolved assignments
func (h *Handler) RetryDispatch(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	assigned, err := h.svc.Dispatcher.RetryPending(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dispatch retry completed", "assigned": assigned})
}
