package server

import (
	"net/http"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/propertypulse/backend/internal/config"
	"github.com/propertypulse/backend/internal/handler"
	appmw "github.com/propertypulse/backend/internal/middleware"
	"github.com/propertypulse/backend/internal/razorpay"
	"github.com/propertypulse/backend/internal/repository"
	"github.com/propertypulse/backend/internal/service"
	"github.com/propertypulse/backend/internal/storage"
	"gorm.io/gorm"
)

type Server struct {
	e *echo.Echo
}

func New(cfg *config.Config, db *gorm.DB, storageClient *gcs.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
				return true, nil
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false, nil
			}
			return u.Scheme == "https", nil
		},
	}))

	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	requestRepo := repository.NewPurchaseRequestRepository(db)

	gateway := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.RazorpayTestMode)

	var receipts service.ReceiptStore
	if cfg.ReceiptBucket != "" && storageClient != nil {
		receipts = storage.NewReceiptStore(storageClient, cfg.ReceiptBucket)
	}

	purchaseSvc := service.NewPurchaseRequestService(db, requestRepo, propertyRepo, userRepo, gateway, receipts)
	purchaseHandler := handler.NewPurchaseRequestHandler(purchaseSvc)

	authMw := appmw.NewAuthMiddleware(cfg.JWTSecret, userRepo)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})

	api := e.Group("/api")
	pr := api.Group("/purchase-requests", authMw.RequireAuth)
	// POST /:id creates a request for property :id, matching the original
	// public API shape.
	pr.POST("/:id", purchaseHandler.Create)
	pr.GET("/tenant", purchaseHandler.ListForTenant)
	pr.GET("/landlord", purchaseHandler.ListForLandlord)
	pr.GET("/tenant/purchased-properties", purchaseHandler.PurchasedProperties)
	pr.GET("/landlord/sold-properties", purchaseHandler.SoldProperties)
	pr.GET("/:id", purchaseHandler.Get)
	pr.PUT("/:id/status", purchaseHandler.UpdateStatus)
	pr.POST("/:id/initiate-payment", purchaseHandler.InitiatePayment)
	pr.POST("/:id/process-payment", purchaseHandler.ProcessPayment)
	pr.POST("/:id/cancel", purchaseHandler.Cancel)
	pr.GET("/:id/invoice", purchaseHandler.Invoice)

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
