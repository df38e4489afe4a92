package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/application/service"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/infrastructure/database"
	"github.com/sangkips/seedledger-api/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testEnv struct {
	db *gorm.DB
	tx *database.TxManager

	clientRepo      domainRepo.ClientRepository
	productRepo     domainRepo.ProductRepository
	stockRepo       domainRepo.StockRepository
	overpaymentRepo domainRepo.OverpaymentRepository
	saleRepo        domainRepo.SaleRepository
	saleItemRepo    domainRepo.SaleItemRepository
	paymentRepo     domainRepo.PaymentRepository

	stock        *service.StockService
	overpayments *service.OverpaymentService
	receipts     *service.ReceiptSequence
	sales        *service.SaleService
	payments     *service.PaymentService
	returns      *service.ReturnService
	writeOffs    *service.WriteOffService
	production   *service.ProductionService
	clients      *service.ClientService
	products     *service.ProductService
}

// newTestEnv wires every service against a private in-memory SQLite database
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.NewSQLiteDB(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, database.AutoMigrate(db, zap.NewNop()))

	log := zap.NewNop()
	env := &testEnv{
		db:              db,
		tx:              database.NewTxManager(db),
		clientRepo:      repository.NewClientRepository(db),
		productRepo:     repository.NewProductRepository(db),
		stockRepo:       repository.NewStockRepository(db),
		overpaymentRepo: repository.NewOverpaymentRepository(db),
		saleRepo:        repository.NewSaleRepository(db),
		saleItemRepo:    repository.NewSaleItemRepository(db),
		paymentRepo:     repository.NewPaymentRepository(db),
	}

	env.stock = service.NewStockService(env.tx, env.stockRepo, env.productRepo, log)
	env.overpayments = service.NewOverpaymentService(env.tx, env.clientRepo, env.overpaymentRepo, log)
	env.receipts = service.NewReceiptSequence(env.saleRepo, log)
	env.sales = service.NewSaleService(env.saleDeps())
	env.payments = service.NewPaymentService(env.tx, env.overpayments, env.saleRepo, env.paymentRepo, log)
	env.returns = service.NewReturnService(env.tx, env.stock, env.saleRepo, env.saleItemRepo, repository.NewReturnRepository(db), log)
	env.writeOffs = service.NewWriteOffService(env.tx, env.stock, repository.NewWriteOffRepository(db), log)
	env.production = service.NewProductionService(env.tx, env.stock, repository.NewProductionRepository(db), log)
	env.clients = service.NewClientService(env.clientRepo, log)
	env.products = service.NewProductService(env.tx, env.stock, env.productRepo, env.stockRepo, log)

	return env
}

// saleDeps returns the collaborators env.sales is built from
func (e *testEnv) saleDeps() service.SaleServiceDeps {
	return service.SaleServiceDeps{
		Tx:           e.tx,
		Receipts:     e.receipts,
		Stock:        e.stock,
		Overpayments: e.overpayments,
		SaleRepo:     e.saleRepo,
		SaleItemRepo: e.saleItemRepo,
		PaymentRepo:  e.paymentRepo,
		ClientRepo:   e.clientRepo,
		ProductRepo:  e.productRepo,
		Logger:       zap.NewNop(),
	}
}

func (e *testEnv) newClient(t *testing.T, name string) *entity.Client {
	t.Helper()
	client, err := e.clients.CreateClient(context.Background(), &service.CreateClientInput{Name: name})
	require.NoError(t, err)
	return client
}

// newProduct creates a product holding quantity units of stock
func (e *testEnv) newProduct(t *testing.T, name string, price string, quantity int) *entity.Product {
	t.Helper()
	product, err := e.products.CreateProduct(context.Background(), &service.CreateProductInput{
		Name:            name,
		Price:           dec(price),
		InitialQuantity: quantity,
	})
	require.NoError(t, err)
	return product
}

// newClientWithCredit creates a client holding amount of overpayment
func (e *testEnv) newClientWithCredit(t *testing.T, name string, amount string) *entity.Client {
	t.Helper()
	client := e.newClient(t, name)
	_, err := e.overpayments.Create(context.Background(), &service.OverpaymentEntry{
		ClientID: client.ID,
		Amount:   dec(amount),
		Note:     "opening credit",
	})
	require.NoError(t, err)
	return client
}

func (e *testEnv) quantity(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	q, err := e.stock.Quantity(context.Background(), productID)
	require.NoError(t, err)
	return q
}

func (e *testEnv) balance(t *testing.T, clientID uuid.UUID) decimal.Decimal {
	t.Helper()
	b, err := e.overpayments.Balance(context.Background(), clientID)
	require.NoError(t, err)
	return b
}

// movementSum sums every logged quantity change for a product
func (e *testEnv) movementSum(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var sum int
	require.NoError(t, e.db.Model(&entity.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_change), 0)").
		Scan(&sum).Error)
	return sum
}

// logSum sums every logged overpayment amount for a client
func (e *testEnv) logSum(t *testing.T, clientID uuid.UUID) decimal.Decimal {
	t.Helper()
	amounts, err := e.overpaymentRepo.Amounts(context.Background(), clientID)
	require.NoError(t, err)
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

func (e *testEnv) countMovements(t *testing.T, productID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.StockMovement{}).Where("product_id = ?", productID).Count(&n).Error)
	return n
}

func (e *testEnv) countOverpayments(t *testing.T, clientID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&entity.OverpaymentTransaction{}).Where("client_id = ?", clientID).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual, msgAndArgs)
}

func actor() *uuid.UUID {
	id := uuid.New()
	return &id
}
