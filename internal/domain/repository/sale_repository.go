package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/pkg/pagination"
)

// ErrReceiptTaken is returned by SaleRepository.Create when another sale
// already carries the receipt number
var ErrReceiptTaken = errors.New("receipt number already taken")

// SaleRepository defines the interface for sale data operations
type SaleRepository interface {
	// Create inserts the sale together with its items.
	// A duplicate receipt number fails with ErrReceiptTaken.
	Create(ctx context.Context, sale *entity.Sale) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	// GetWithDetails loads items, payments and the client
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	// GetByIDForUpdate reads the sale under a row-level exclusive lock
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Sale, error)
	UpdateTotals(ctx context.Context, sale *entity.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params *SaleFilterParams) ([]entity.Sale, int64, error)

	// NextReceiptNumber increments the receipt counter and returns the new
	// value. The counter row stays locked until the caller's transaction
	// ends; a missing counter starts from the highest receipt ever issued,
	// soft-deleted sales included.
	NextReceiptNumber(ctx context.Context) (int, error)
	// ActiveReceiptNumbers returns receipt numbers of non-deleted sales in ascending order
	ActiveReceiptNumbers(ctx context.Context) ([]string, error)
}

// SaleFilterParams contains filtering parameters for sale queries
type SaleFilterParams struct {
	Pagination *pagination.PaginationParams
	ClientID   *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
	SortOrder  string
}

// SaleItemRepository defines the interface for sale line operations
type SaleItemRepository interface {
	GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.SaleItem, error)
	UpdateReturnedQuantity(ctx context.Context, id uuid.UUID, returned int) error
}
