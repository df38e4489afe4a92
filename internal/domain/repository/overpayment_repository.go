package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// OverpaymentRepository defines the interface for the append-only client credit log
type OverpaymentRepository interface {
	Create(ctx context.Context, txn *entity.OverpaymentTransaction) error
	GetByID(ctx context.Context, id uint) (*entity.OverpaymentTransaction, error)
	// ListByClient returns the newest entries first
	ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]entity.OverpaymentTransaction, error)
	// Amounts returns every signed amount logged for the client
	Amounts(ctx context.Context, clientID uuid.UUID) ([]decimal.Decimal, error)
	// AllAmounts returns every logged amount keyed by client
	AllAmounts(ctx context.Context) ([]ClientAmount, error)
}

// ClientAmount is one logged amount for a client
type ClientAmount struct {
	ClientID uuid.UUID
	Amount   decimal.Decimal
}
