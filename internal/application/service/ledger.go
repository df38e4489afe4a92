package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

// StockLedger tracks per-product quantity and its append-only movement log.
// Every mutation updates the stock row and appends exactly one movement in
// one transaction, joining the caller's transaction when there is one.
type StockLedger interface {
	Quantity(ctx context.Context, productID uuid.UUID) (int, error)
	HasStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)
	Increase(ctx context.Context, change *StockChange) (*StockResult, error)
	Decrease(ctx context.Context, change *StockChange) (*StockResult, error)
	Adjust(ctx context.Context, productID uuid.UUID, newQuantity int, actor *uuid.UUID, reason string) (*StockResult, error)
	Movements(ctx context.Context, productID *uuid.UUID, limit int) ([]entity.StockMovement, error)
	Reconcile(ctx context.Context) ([]repository.StockDiscrepancy, error)
}

// OverpaymentLedger tracks per-client credit and its append-only log.
// Balance writes are guarded by a row lock and by the client version.
type OverpaymentLedger interface {
	Balance(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error)
	Create(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error)
	Use(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error)
	Withdraw(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error)
	Adjust(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error)
	Recalculate(ctx context.Context, clientID uuid.UUID) (*RecalculateResult, error)
	History(ctx context.Context, clientID uuid.UUID, limit int) ([]entity.OverpaymentTransaction, error)
	Reconcile(ctx context.Context) ([]OverpaymentDiscrepancy, error)
}

// Locker serializes work across processes that share one database.
// The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(context.Context) error, error)
}

// StockChange describes one increase or decrease
type StockChange struct {
	ProductID    uuid.UUID
	Quantity     int
	MovementType enum.MovementType
	ReferenceID  *uuid.UUID
	Actor        *uuid.UUID
	Note         string
}

// StockResult is the outcome of a stock mutation.
// Changed is false only for an adjustment to the current quantity.
type StockResult struct {
	ProductID    uuid.UUID `json:"product_id"`
	Delta        int       `json:"delta"`
	BalanceAfter int       `json:"balance_after"`
	Changed      bool      `json:"changed"`
	MovementID   uint      `json:"movement_id,omitempty"`
}

// OverpaymentEntry describes one overpayment ledger mutation
type OverpaymentEntry struct {
	ClientID uuid.UUID
	Amount   decimal.Decimal
	SaleID   *uuid.UUID
	Actor    *uuid.UUID
	Note     string
	Metadata map[string]any
}

// OverpaymentResult is the outcome of an overpayment ledger mutation
type OverpaymentResult struct {
	TransactionID uint            `json:"transaction_id"`
	ClientID      uuid.UUID       `json:"client_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Version       int64           `json:"version"`
}

// RecalculateResult reports a balance rebuilt from the log
type RecalculateResult struct {
	ClientID            uuid.UUID       `json:"client_id"`
	PreviousBalance     decimal.Decimal `json:"previous_balance"`
	RecalculatedBalance decimal.Decimal `json:"recalculated_balance"`
	Version             int64           `json:"version"`
}

// OverpaymentDiscrepancy compares a cached balance with its log
type OverpaymentDiscrepancy struct {
	ClientID          uuid.UUID       `json:"client_id"`
	ClientName        string          `json:"client_name"`
	CurrentBalance    decimal.Decimal `json:"current_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// mutationLogLevel is the level for a ledger write. Writes that joined an
// outer transaction are not durable yet, so only standalone ones log at info.
func mutationLogLevel(joined bool) zapcore.Level {
	if joined {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
