package routes

import (
	"context"
	"slices"
	"time"

	"food-marketplace-api/config"
	"food-marketplace-api/handlers"
	"food-marketplace-api/logger"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

func NewRouter(cfg *config.Config, h *handlers.Handler, log *logger.Logger, db Pinger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsCfg := cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.Server.CORSOrigins) == 0 || slices.Contains(cfg.Server.CORSOrigins, "*") {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", h.Health(db))
	r.GET("/api/state-machine", handlers.GetStateMachineInfo)
	if cfg.Storage.S3Bucket == "" {
		r.Static("/images", cfg.Storage.ImageDir)
	}

	authed := middleware.AuthRequired(cfg.Auth.JWTSecret)

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/customer")
	{
		customer.POST("/signup", h.CustomerSignup)
		customer.POST("/login", h.CustomerLogin)
	}
	customerAuth := customer.Group("")
	customerAuth.Use(authed, middleware.RoleRequired(models.RoleCustomer))
	{
		customerAuth.PATCH("/verify", h.CustomerVerify)
		customerAuth.GET("/otp", h.RequestOTP)
		customerAuth.GET("/profile", h.GetCustomerProfile)
		customerAuth.PATCH("/profile", h.UpdateCustomerProfile)

		// Cart
		customerAuth.POST("/cart", h.AddToCart)
		customerAuth.GET("/cart", h.GetCart)
		customerAuth.DELETE("/cart", h.ClearCart)

		// Payment & orders
		customerAuth.POST("/create-payment", h.CreatePayment)
		customerAuth.POST("/create-order", h.CreateOrder)
		customerAuth.GET("/orders", h.GetOrders)
		customerAuth.GET("/order/:id", h.GetOrder)
		customerAuth.GET("/offer/verify/:id", h.VerifyOffer)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/vendor")
	vendor.POST("/login", h.VendorLogin)
	vendorAuth := vendor.Group("")
	vendorAuth.Use(authed, middleware.RoleRequired(models.RoleVendor))
	{
		vendorAuth.GET("/profile", h.GetVendorProfile)
		vendorAuth.PATCH("/profile", h.UpdateVendorProfile)
		vendorAuth.PATCH("/cover-image", h.UpdateVendorCoverImage)
		vendorAuth.PATCH("/service", h.UpdateVendorService)

		// Menu
		vendorAuth.POST("/food", h.AddFood)
		vendorAuth.GET("/foods", h.GetFoods)

		// Orders
		vendorAuth.GET("/orders", h.GetVendorOrders)
		vendorAuth.GET("/order/:id", h.GetVendorOrder)
		vendorAuth.PUT("/order/:id/process", h.ProcessOrder)

		// Offers
		vendorAuth.GET("/offers", h.GetOffers)
		vendorAuth.POST("/offer", h.AddOffer)
		vendorAuth.PUT("/offer/:id", h.EditOffer)
	}

	// ── Delivery routes ────────────────────────────────────────────
	delivery := r.Group("/delivery")
	{
		delivery.POST("/signup", h.DeliverySignup)
		delivery.POST("/login", h.DeliveryLogin)
	}
	deliveryAuth := delivery.Group("")
	deliveryAuth.Use(authed, middleware.RoleRequired(models.RoleDelivery))
	{
		deliveryAuth.PUT("/change-status", h.UpdateDeliveryStatus)
		deliveryAuth.GET("/profile", h.GetDeliveryProfile)
		deliveryAuth.PATCH("/profile", h.UpdateDeliveryProfile)
	}

	// ── Shopping routes (public) ───────────────────────────────────
	shopping := r.Group("/shopping")
	{
		shopping.GET("/:pincode", h.FoodAvailability)
		shopping.GET("/top-restaurants/:pincode", h.TopRestaurants)
		shopping.GET("/foods-in-30-min/:pincode", h.FoodsIn30Min)
		shopping.GET("/search/:pincode", h.SearchFoods)
		shopping.GET("/offers/:pincode", h.AvailableOffers)
		shopping.GET("/restaurant/:id", h.RestaurantByID)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/admin")
	admin.Use(middleware.AdminKeyRequired(cfg.Auth.AdminAPIKey))
	{
		admin.POST("/vendor", h.CreateVendor)
		admin.GET("/vendors", h.GetVendors)
		admin.GET("/vendors/:id", h.GetVendorByID)

		admin.GET("/transactions", h.GetTransactions)
		admin.GET("/transactions/:id", h.GetTransaction)
		admin.PUT("/transactions/:id/status", h.ChangeTransactionStatus)

		admin.PUT("/delivery/verify", h.VerifyDeliveryUser)
		admin.GET("/delivery/users", h.GetDeliveryUsers)

		admin.GET("/dispatch/pending", h.GetPendingDispatch)
		admin.POST("/dispatch/retry", h.RetryDispatch)
	}

	return r
}
