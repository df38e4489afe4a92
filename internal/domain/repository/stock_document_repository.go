package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
)

// WriteOffRepository defines the interface for write-off data operations
type WriteOffRepository interface {
	Create(ctx context.Context, writeOff *entity.WriteOff) error
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WriteOff, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductionRepository defines the interface for production data operations
type ProductionRepository interface {
	Create(ctx context.Context, production *entity.Production) error
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Production, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReturnRepository defines the interface for sale return data operations
type ReturnRepository interface {
	// Create inserts the return together with its items
	Create(ctx context.Context, ret *entity.SaleReturn) error
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleReturn, error)
}
