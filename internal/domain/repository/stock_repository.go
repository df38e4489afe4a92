package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
)

// StockRepository defines the interface for stock rows and the movement log
type StockRepository interface {
	Create(ctx context.Context, stock *entity.Stock) error
	GetByProductID(ctx context.Context, productID uuid.UUID) (*entity.Stock, error)
	// GetByProductIDForUpdate reads the stock row under a row-level exclusive lock
	GetByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*entity.Stock, error)
	UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error

	CreateMovement(ctx context.Context, movement *entity.StockMovement) error
	// ListMovements returns the newest movements first, for one product when productID is set
	ListMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]entity.StockMovement, error)
	// Discrepancies returns products whose stock differs from the sum of their movements
	Discrepancies(ctx context.Context) ([]StockDiscrepancy, error)
}

// StockDiscrepancy compares the stored quantity with the movement log
type StockDiscrepancy struct {
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	CurrentStock    int       `json:"current_stock"`
	CalculatedStock int       `json:"calculated_stock"`
	Difference      int       `json:"difference"`
}
