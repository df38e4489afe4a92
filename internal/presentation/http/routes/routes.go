package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/config"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/presentation/http/handler"
	"github.com/sangkips/seedledger-api/internal/presentation/http/middleware"
	"github.com/sangkips/seedledger-api/pkg/utils"
	"go.uber.org/zap"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Client      *handler.ClientHandler
	Product     *handler.ProductHandler
	Sale        *handler.SaleHandler
	Payment     *handler.PaymentHandler
	Stock       *handler.StockHandler
	Overpayment *handler.OverpaymentHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Logger          *zap.Logger
	// Stop ends background work started by the routes, such as limiter cleanup
	Stop <-chan struct{}
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	handler.UseJSONFieldNames()

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTManager))

	requestsPerSecond := float64(deps.Cfg.RateLimit.Requests)
	if deps.Cfg.RateLimit.Duration > 0 {
		requestsPerSecond /= float64(deps.Cfg.RateLimit.Duration)
	}
	rateLimiter := middleware.NewActorRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         deps.Cfg.RateLimit.Requests,
		CleanupInterval:   5 * time.Minute,
		EntryTTL:          10 * time.Minute,
	}, deps.Stop)
	v1.Use(rateLimiter.Middleware())

	r := &registrar{
		policy: middleware.Policy(deps.Cfg.Policy),
		idempotency: middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		}),
	}
	r.clients(v1, h)
	r.products(v1, h)
	r.sales(v1, h)
	r.payments(v1, h)
	r.stock(v1, h)
	r.overpayments(v1, h)

	return router
}

type registrar struct {
	policy      middleware.Policy
	idempotency gin.HandlerFunc
}

func (r *registrar) can(capability string) gin.HandlerFunc {
	return middleware.RequireCapability(r.policy, capability)
}

func (r *registrar) clients(v1 *gin.RouterGroup, h *Handlers) {
	clients := v1.Group("/clients")
	{
		clients.POST("", r.can(middleware.CapCatalogWrite), h.Client.Create)
		clients.GET("/:id", r.can(middleware.CapLedgerRead), h.Client.Get)
	}
}

func (r *registrar) products(v1 *gin.RouterGroup, h *Handlers) {
	products := v1.Group("/products")
	{
		products.GET("", r.can(middleware.CapLedgerRead), h.Product.List)
		products.POST("", r.can(middleware.CapCatalogWrite), h.Product.Create)
		products.GET("/:id", r.can(middleware.CapLedgerRead), h.Product.Get)
	}
}

func (r *registrar) sales(v1 *gin.RouterGroup, h *Handlers) {
	sales := v1.Group("/sales")
	{
		sales.GET("", r.can(middleware.CapLedgerRead), h.Sale.List)
		sales.POST("", r.can(middleware.CapSalesWrite), r.idempotency, h.Sale.Create)
		sales.GET("/receipt-gaps", r.can(middleware.CapLedgerRead), h.Sale.ReceiptGaps)
		sales.GET("/:id", r.can(middleware.CapLedgerRead), h.Sale.Get)
		sales.DELETE("/:id", r.can(middleware.CapSalesWrite), h.Sale.Delete)
		sales.POST("/:id/payments", r.can(middleware.CapPaymentsWrite), r.idempotency, h.Payment.Create)
		sales.POST("/:id/returns", r.can(middleware.CapSalesWrite), h.Sale.CreateReturn)
	}
}

func (r *registrar) payments(v1 *gin.RouterGroup, h *Handlers) {
	v1.DELETE("/payments/:id", r.can(middleware.CapPaymentsWrite), h.Payment.Delete)
}

func (r *registrar) stock(v1 *gin.RouterGroup, h *Handlers) {
	stock := v1.Group("/stock")
	{
		stock.GET("/movements", r.can(middleware.CapLedgerRead), h.Stock.Movements)
		stock.GET("/reconcile", r.can(middleware.CapLedgerRead), h.Stock.Reconcile)
		stock.GET("/:product_id", r.can(middleware.CapLedgerRead), h.Stock.Quantity)
		stock.PUT("/:product_id", r.can(middleware.CapStockWrite), h.Stock.Adjust)
	}

	writeOffs := v1.Group("/write-offs", r.can(middleware.CapStockWrite))
	{
		writeOffs.POST("", h.Stock.CreateWriteOff)
		writeOffs.DELETE("/:id", h.Stock.DeleteWriteOff)
	}

	production := v1.Group("/production", r.can(middleware.CapStockWrite))
	{
		production.POST("", h.Stock.CreateProduction)
		production.DELETE("/:id", h.Stock.DeleteProduction)
	}
}

func (r *registrar) overpayments(v1 *gin.RouterGroup, h *Handlers) {
	client := v1.Group("/clients/:id/overpayment")
	{
		client.GET("", r.can(middleware.CapLedgerRead), h.Overpayment.Balance)
		client.GET("/history", r.can(middleware.CapLedgerRead), h.Overpayment.History)
		client.POST("/withdraw", r.can(middleware.CapOverpaymentWrite), h.Overpayment.Withdraw)
		client.POST("/adjust", r.can(middleware.CapOverpaymentAdmin), h.Overpayment.Adjust)
		client.POST("/recalculate", r.can(middleware.CapOverpaymentAdmin), h.Overpayment.Recalculate)
	}

	v1.GET("/overpayments/reconcile", r.can(middleware.CapOverpaymentAdmin), h.Overpayment.Reconcile)
}
