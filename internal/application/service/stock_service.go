package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"go.uber.org/zap"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// StockService is the stock ledger
type StockService struct {
	tx          repository.Transactor
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewStockService creates a new stock ledger service
func NewStockService(
	tx repository.Transactor,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) *StockService {
	return &StockService{
		tx:          tx,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

var _ StockLedger = (*StockService)(nil)

// Quantity returns the on-hand quantity, 0 when the product has no stock row
func (s *StockService) Quantity(ctx context.Context, productID uuid.UUID) (int, error) {
	stock, err := s.stockRepo.GetByProductID(ctx, productID)
	if err != nil {
		return 0, apperror.NewInternalError(err)
	}
	if stock == nil {
		return 0, nil
	}
	return stock.Quantity, nil
}

// HasStock reports whether quantity units are on hand
func (s *StockService) HasStock(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	available, err := s.Quantity(ctx, productID)
	if err != nil {
		return false, err
	}
	return quantity <= available, nil
}

// Increase adds stock, creating the stock row if the product has none
func (s *StockService) Increase(ctx context.Context, change *StockChange) (*StockResult, error) {
	if err := validateStockChange(change); err != nil {
		return nil, err
	}

	joined := s.tx.InTransaction(ctx)
	var result *StockResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.lockOrCreate(ctx, change.ProductID)
		if err != nil {
			return err
		}
		result, err = s.apply(ctx, stock, change.Quantity, change)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logResult(joined, "stock increased", change.MovementType, result)
	return result, nil
}

// Decrease removes stock; it never lets the quantity go below zero
func (s *StockService) Decrease(ctx context.Context, change *StockChange) (*StockResult, error) {
	if err := validateStockChange(change); err != nil {
		return nil, err
	}

	joined := s.tx.InTransaction(ctx)
	var result *StockResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.stockRepo.GetByProductIDForUpdate(ctx, change.ProductID)
		if err != nil {
			return apperror.NewInternalError(err)
		}

		available := 0
		if stock != nil {
			available = stock.Quantity
		}
		if change.Quantity > available {
			return s.insufficientStock(ctx, change.ProductID, available, change.Quantity)
		}

		result, err = s.apply(ctx, stock, -change.Quantity, change)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logResult(joined, "stock decreased", change.MovementType, result)
	return result, nil
}

// Adjust sets the quantity directly and logs the signed difference.
// Setting the current quantity is a no-op and logs nothing.
func (s *StockService) Adjust(ctx context.Context, productID uuid.UUID, newQuantity int, actor *uuid.UUID, reason string) (*StockResult, error) {
	if newQuantity < 0 {
		return nil, apperror.NewInvalidArgumentError("quantity must not be negative, got %d", newQuantity)
	}

	joined := s.tx.InTransaction(ctx)
	var result *StockResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stock, err := s.lockOrCreate(ctx, productID)
		if err != nil {
			return err
		}

		if stock.Quantity == newQuantity {
			result = &StockResult{ProductID: productID, BalanceAfter: newQuantity}
			return nil
		}

		result, err = s.apply(ctx, stock, newQuantity-stock.Quantity, &StockChange{
			ProductID:    productID,
			MovementType: enum.MovementTypeAdjustment,
			Actor:        actor,
			Note:         reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Changed {
		s.logResult(joined, "stock adjusted", enum.MovementTypeAdjustment, result)
	}
	return result, nil
}

// Movements returns the newest movements first
func (s *StockService) Movements(ctx context.Context, productID *uuid.UUID, limit int) ([]entity.StockMovement, error) {
	limit = pagination.ClampLimit(limit, defaultMovementLimit, maxMovementLimit)
	movements, err := s.stockRepo.ListMovements(ctx, productID, limit)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return movements, nil
}

// Reconcile lists products whose quantity differs from the sum of their
// movements. It reports only and never repairs.
func (s *StockService) Reconcile(ctx context.Context) ([]repository.StockDiscrepancy, error) {
	rows, err := s.stockRepo.Discrepancies(ctx)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if len(rows) > 0 {
		s.logger.Warn("stock reconciliation found discrepancies", zap.Int("products", len(rows)))
	}
	return rows, nil
}

func (s *StockService) lockOrCreate(ctx context.Context, productID uuid.UUID) (*entity.Stock, error) {
	stock, err := s.stockRepo.GetByProductIDForUpdate(ctx, productID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if stock != nil {
		return stock, nil
	}

	product, err := s.productRepo.GetByIDUnscoped(ctx, productID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}

	stock = &entity.Stock{ProductID: productID}
	if err := s.stockRepo.Create(ctx, stock); err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return stock, nil
}

// apply writes the new quantity and its movement; callers hold the row lock
func (s *StockService) apply(ctx context.Context, stock *entity.Stock, delta int, change *StockChange) (*StockResult, error) {
	after := stock.Quantity + delta
	if err := s.stockRepo.UpdateQuantity(ctx, stock.ProductID, after); err != nil {
		return nil, apperror.NewInternalError(err)
	}

	movement := &entity.StockMovement{
		ProductID:      stock.ProductID,
		QuantityChange: delta,
		QuantityAfter:  after,
		MovementType:   change.MovementType,
		ReferenceID:    change.ReferenceID,
		Note:           change.Note,
		CreatedBy:      change.Actor,
	}
	if err := s.stockRepo.CreateMovement(ctx, movement); err != nil {
		return nil, apperror.NewInternalError(err)
	}
	stock.Quantity = after

	return &StockResult{
		ProductID:    stock.ProductID,
		Delta:        delta,
		BalanceAfter: after,
		Changed:      true,
		MovementID:   movement.ID,
	}, nil
}

func (s *StockService) insufficientStock(ctx context.Context, productID uuid.UUID, available, requested int) error {
	product, err := s.productRepo.GetByIDUnscoped(ctx, productID)
	if err != nil {
		return apperror.NewInternalError(err)
	}
	if product == nil {
		return apperror.NewNotFoundError("Product")
	}
	return &apperror.InsufficientStockError{
		ProductID:   productID,
		ProductName: product.Name,
		Available:   available,
		Requested:   requested,
	}
}

// logResult logs at debug when the change joined a caller's transaction,
// since that transaction may still roll back
func (s *StockService) logResult(joined bool, msg string, movementType enum.MovementType, result *StockResult) {
	s.logger.Log(mutationLogLevel(joined), msg,
		zap.Stringer("product_id", result.ProductID),
		zap.String("movement_type", string(movementType)),
		zap.Int("delta", result.Delta),
		zap.Int("balance_after", result.BalanceAfter),
	)
}

func validateStockChange(change *StockChange) error {
	if change.Quantity <= 0 {
		return apperror.NewInvalidArgumentError("quantity must be positive, got %d", change.Quantity)
	}
	if !change.MovementType.IsValid() {
		return apperror.NewInvalidArgumentError("unknown movement type %q", change.MovementType)
	}
	return nil
}
