package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error)
	SetOverpaymentRecord(ctx context.Context, id uuid.UUID, recordID uint) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error
}
