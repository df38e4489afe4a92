package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"go.uber.org/zap"
)

// ProductionService books produced or packed batches into stock
type ProductionService struct {
	tx             repository.Transactor
	stock          StockLedger
	productionRepo repository.ProductionRepository
	logger         *zap.Logger
}

// NewProductionService creates a new production service
func NewProductionService(
	tx repository.Transactor,
	stock StockLedger,
	productionRepo repository.ProductionRepository,
	logger *zap.Logger,
) *ProductionService {
	return &ProductionService{
		tx:             tx,
		stock:          stock,
		productionRepo: productionRepo,
		logger:         logger,
	}
}

// CreateProductionInput represents the create production input
type CreateProductionInput struct {
	ProductID uuid.UUID
	Quantity  int
	Note      string
	Actor     *uuid.UUID
}

// CreateProduction records the batch and increases stock
func (s *ProductionService) CreateProduction(ctx context.Context, input *CreateProductionInput) (*entity.Production, error) {
	if input.Quantity <= 0 {
		return nil, apperror.NewInvalidArgumentError("quantity must be positive, got %d", input.Quantity)
	}

	production := &entity.Production{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Note:      input.Note,
		CreatedBy: input.Actor,
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Stock first so an unknown product surfaces as not found
		if _, err := s.stock.Increase(ctx, &StockChange{
			ProductID:    input.ProductID,
			Quantity:     input.Quantity,
			MovementType: enum.MovementTypeProduction,
			ReferenceID:  uuidPtr(production.ID),
			Actor:        input.Actor,
			Note:         input.Note,
		}); err != nil {
			return err
		}
		if err := s.productionRepo.Create(ctx, production); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("production recorded",
		zap.Stringer("production_id", production.ID),
		zap.Stringer("product_id", production.ProductID),
		zap.Int("quantity", production.Quantity),
	)
	return production, nil
}

// DeleteProduction soft-deletes the batch and takes its stock back out.
// It fails with insufficient stock when the batch was already sold.
func (s *ProductionService) DeleteProduction(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		production, err := s.productionRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if production == nil {
			return apperror.NewNotFoundError("Production")
		}

		if _, err := s.stock.Decrease(ctx, &StockChange{
			ProductID:    production.ProductID,
			Quantity:     production.Quantity,
			MovementType: enum.MovementTypeAdjustment,
			ReferenceID:  uuidPtr(production.ID),
			Actor:        actor,
			Note:         reversalNote,
		}); err != nil {
			return err
		}

		if err := s.productionRepo.Delete(ctx, production.ID); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("production deleted", zap.Stringer("production_id", id))
	return nil
}
