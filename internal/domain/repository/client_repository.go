package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ClientRepository defines the interface for client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	// GetByIDForUpdate reads the client under a row-level exclusive lock
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	// GetByIDForUpdateUnscoped is GetByIDForUpdate including soft-deleted clients
	GetByIDForUpdateUnscoped(ctx context.Context, id uuid.UUID) (*entity.Client, error)
	// UpdateBalance writes the balance and bumps the version only if the
	// stored version still equals expectedVersion. It reports whether a row was updated.
	// Balance writes reach soft-deleted clients too.
	UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) (bool, error)
	// OverwriteBalance writes the balance and bumps the version unconditionally
	OverwriteBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
	ListActive(ctx context.Context) ([]entity.Client, error)
}
