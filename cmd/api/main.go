package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/config"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/infrastructure/database"
	"github.com/sangkips/seedledger-api/internal/infrastructure/lock"
	"github.com/sangkips/seedledger-api/internal/infrastructure/repository"
	"github.com/sangkips/seedledger-api/internal/presentation/http/handler"
	"github.com/sangkips/seedledger-api/internal/presentation/http/routes"
	"github.com/sangkips/seedledger-api/pkg/logger"
	"github.com/sangkips/seedledger-api/pkg/utils"
	"go.uber.org/zap"
)

const idempotencySweepInterval = time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	zlog := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment: cfg.App.Env != "production",
		Encoding:      cfg.Log.Encoding,
		Level:         cfg.Log.Level,
	})
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug, zlog)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.AutoMigrate(db, zlog); err != nil {
		zlog.Fatal("failed to run migrations", zap.Error(err))
	}

	tx := database.NewTxManager(db)

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	overpaymentRepo := repository.NewOverpaymentRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	saleItemRepo := repository.NewSaleItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	writeOffRepo := repository.NewWriteOffRepository(db)
	productionRepo := repository.NewProductionRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	// Receipt numbering is additionally serialized across instances when Redis is configured
	var locker service.Locker
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.ReceiptLockTTL, zlog)
		zlog.Info("distributed receipt lock enabled", zap.String("redis_addr", cfg.Redis.Addr))
	}

	// Initialize services
	stockService := service.NewStockService(tx, stockRepo, productRepo, zlog)
	overpaymentService := service.NewOverpaymentService(tx, clientRepo, overpaymentRepo, zlog)
	saleService := service.NewSaleService(service.SaleServiceDeps{
		Tx:           tx,
		Locker:       locker,
		Receipts:     service.NewReceiptSequence(saleRepo, zlog),
		Stock:        stockService,
		Overpayments: overpaymentService,
		SaleRepo:     saleRepo,
		SaleItemRepo: saleItemRepo,
		PaymentRepo:  paymentRepo,
		ClientRepo:   clientRepo,
		ProductRepo:  productRepo,
		Logger:       zlog,
	})
	paymentService := service.NewPaymentService(tx, overpaymentService, saleRepo, paymentRepo, zlog)
	returnService := service.NewReturnService(tx, stockService, saleRepo, saleItemRepo, returnRepo, zlog)
	writeOffService := service.NewWriteOffService(tx, stockService, writeOffRepo, zlog)
	productionService := service.NewProductionService(tx, stockService, productionRepo, zlog)
	clientService := service.NewClientService(clientRepo, zlog)
	productService := service.NewProductService(tx, stockService, productRepo, stockRepo, zlog)

	// Initialize handlers
	handlers := &routes.Handlers{
		Client:      handler.NewClientHandler(clientService),
		Product:     handler.NewProductHandler(productService),
		Sale:        handler.NewSaleHandler(saleService, returnService),
		Payment:     handler.NewPaymentHandler(paymentService),
		Stock:       handler.NewStockHandler(stockService, writeOffService, productionService),
		Overpayment: handler.NewOverpaymentHandler(overpaymentService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours),
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Logger:          zlog,
		Stop:            ctx.Done(),
	})

	go sweepIdempotencyKeys(ctx, idempotencyRepo, zlog)

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("starting server",
			zap.String("service", cfg.App.Name),
			zap.String("port", port),
			zap.String("env", cfg.App.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("graceful shutdown failed", zap.Error(err))
	}
}

func sweepIdempotencyKeys(ctx context.Context, repo domainRepo.IdempotencyRepository, zlog *zap.Logger) {
	ticker := time.NewTicker(idempotencySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.DeleteExpired(ctx); err != nil {
				zlog.Warn("failed to delete expired idempotency keys", zap.Error(err))
			}
		}
	}
}
