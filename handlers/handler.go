package handlers

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"food-marketplace-api/config"
	"food-marketplace-api/logger"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
	"food-marketplace-api/statemachine"
	"food-marketplace-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxUploadImages = 10

// Services groups everything the HTTP layer calls into
type Services struct {
	Identity   *services.IdentityService
	Cart       *services.CartService
	Ledger     *services.LedgerService
	Orders     *services.OrderService
	Dispatcher *services.Dispatcher
	Catalog    *services.CatalogService
}

type Handler struct {
	cfg    *config.Config
	svc    Services
	images storage.ImageStore
	log    *logger.Logger
}

func New(cfg *config.Config, svc Services, images storage.ImageStore, log *logger.Logger) *Handler {
	return &Handler{cfg: cfg, svc: svc, images: images, log: log}
}

var pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// RegisterValidators adds the custom binding rules used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
}

// reqCtx bounds every store call made on behalf of a request
func (h *Handler) reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.cfg.StoreTimeout())
}

// respondError maps service error kinds onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindInvalid:
		status = http.StatusBadRequest
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindUnavailable:
		status = http.StatusServiceUnavailable
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error("request_failed", middleware.GetRequestID(c), "unhandled service error", err)
	}
	c.JSON(status, gin.H{"error": services.Message(err)})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) token(userID uint, email string, role models.UserRole, verified bool) (string, error) {
	return middleware.GenerateToken(h.cfg.Auth.JWTSecret, h.cfg.TokenTTL(), middleware.Claims{
		UserID:   userID,
		Email:    email,
		Role:     role,
		Verified: verified,
	})
}

// saveImages stores every file of the multipart field "images" and returns
// their URLs
func (h *Handler) saveImages(ctx context.Context, c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	files := form.File["images"]
	if len(files) > maxUploadImages {
		return nil, fmt.Errorf("at most %d images per request", maxUploadImages)
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}
		url, err := h.images.Save(ctx, fh.Filename, f, fh.Header.Get("Content-Type"))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", fh.Filename, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Health reports liveness and database reachability
func (h *Handler) Health(db interface{ PingContext(context.Context) error }) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.reqCtx(c)
		defer cancel()
		status, code := "healthy", http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": "Food Marketplace API",
			"version": "1.0.0",
		})
	}
}

// GetStateMachineInfo returns the transaction state machine for documentation
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":  statemachine.GetAllTransitions(),
		"initial_state":  models.TxnOpen,
		"order_statuses": gin.H{"initial": models.StatusWaiting, "after": "vendor-defined"},
		"description":    "Payment transaction lifecycle state machine",
	})
}
