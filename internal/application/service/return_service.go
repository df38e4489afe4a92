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

// ReturnService books goods a client brings back. It restocks only;
// refunds are settled through payments.
type ReturnService struct {
	tx           repository.Transactor
	stock        StockLedger
	saleRepo     repository.SaleRepository
	saleItemRepo repository.SaleItemRepository
	returnRepo   repository.ReturnRepository
	logger       *zap.Logger
}

// NewReturnService creates a new sale return service
func NewReturnService(
	tx repository.Transactor,
	stock StockLedger,
	saleRepo repository.SaleRepository,
	saleItemRepo repository.SaleItemRepository,
	returnRepo repository.ReturnRepository,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		tx:           tx,
		stock:        stock,
		saleRepo:     saleRepo,
		saleItemRepo: saleItemRepo,
		returnRepo:   returnRepo,
		logger:       logger,
	}
}

// ReturnItemInput is one returned sale line
type ReturnItemInput struct {
	SaleItemID uuid.UUID
	Quantity   int
}

// CreateReturnInput represents the create return input
type CreateReturnInput struct {
	SaleID uuid.UUID
	Items  []ReturnItemInput
	Reason string
	Actor  *uuid.UUID
}

// CreateReturn increases returned quantities on the sale lines and puts
// the goods back in stock. A line never returns more than was sold.
func (s *ReturnService) CreateReturn(ctx context.Context, input *CreateReturnInput) (*entity.SaleReturn, error) {
	if len(input.Items) == 0 {
		return nil, apperror.NewInvalidArgumentError("a return needs at least one item")
	}
	for i, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, apperror.NewInvalidArgumentError("items[%d]: quantity must be positive, got %d", i, item.Quantity)
		}
	}

	ret := &entity.SaleReturn{
		ID:        uuid.New(),
		SaleID:    input.SaleID,
		Reason:    input.Reason,
		CreatedBy: input.Actor,
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByIDForUpdate(ctx, input.SaleID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}

		for i, in := range input.Items {
			item, err := s.saleItemRepo.GetByIDForUpdate(ctx, in.SaleItemID)
			if err != nil {
				return apperror.NewInternalError(err)
			}
			if item == nil || item.SaleID != sale.ID {
				return apperror.NewNotFoundError("Sale item")
			}

			returned := item.ReturnedQuantity + in.Quantity
			if returned > item.Quantity {
				return apperror.NewInvalidArgumentError(
					"items[%d]: cannot return %d, only %d of %d left to return",
					i, in.Quantity, item.Quantity-item.ReturnedQuantity, item.Quantity,
				)
			}
			if err := s.saleItemRepo.UpdateReturnedQuantity(ctx, item.ID, returned); err != nil {
				return apperror.NewInternalError(err)
			}

			if _, err := s.stock.Increase(ctx, &StockChange{
				ProductID:    item.ProductID,
				Quantity:     in.Quantity,
				MovementType: enum.MovementTypeReturn,
				ReferenceID:  uuidPtr(ret.ID),
				Actor:        input.Actor,
				Note:         "return on sale " + sale.ReceiptNumber,
			}); err != nil {
				return err
			}

			ret.Items = append(ret.Items, entity.SaleReturnItem{
				SaleItemID: item.ID,
				ProductID:  item.ProductID,
				Quantity:   in.Quantity,
			})
		}

		if err := s.returnRepo.Create(ctx, ret); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sale return rolled back", zap.Stringer("sale_id", input.SaleID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("sale return recorded",
		zap.Stringer("return_id", ret.ID),
		zap.Stringer("sale_id", ret.SaleID),
		zap.Int("lines", len(ret.Items)),
	)
	return ret, nil
}
