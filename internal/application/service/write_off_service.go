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

// WriteOffService removes damaged or lost stock
type WriteOffService struct {
	tx           repository.Transactor
	stock        StockLedger
	writeOffRepo repository.WriteOffRepository
	logger       *zap.Logger
}

// NewWriteOffService creates a new write-off service
func NewWriteOffService(
	tx repository.Transactor,
	stock StockLedger,
	writeOffRepo repository.WriteOffRepository,
	logger *zap.Logger,
) *WriteOffService {
	return &WriteOffService{
		tx:           tx,
		stock:        stock,
		writeOffRepo: writeOffRepo,
		logger:       logger,
	}
}

// CreateWriteOffInput represents the create write-off input
type CreateWriteOffInput struct {
	ProductID uuid.UUID
	Quantity  int
	Reason    string
	Actor     *uuid.UUID
}

// CreateWriteOff records the write-off and decreases stock
func (s *WriteOffService) CreateWriteOff(ctx context.Context, input *CreateWriteOffInput) (*entity.WriteOff, error) {
	if input.Quantity <= 0 {
		return nil, apperror.NewInvalidArgumentError("quantity must be positive, got %d", input.Quantity)
	}

	writeOff := &entity.WriteOff{
		ID:        uuid.New(),
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
		Reason:    input.Reason,
		CreatedBy: input.Actor,
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Stock first so an unknown product surfaces as not found
		if _, err := s.stock.Decrease(ctx, &StockChange{
			ProductID:    input.ProductID,
			Quantity:     input.Quantity,
			MovementType: enum.MovementTypeWriteOff,
			ReferenceID:  uuidPtr(writeOff.ID),
			Actor:        input.Actor,
			Note:         input.Reason,
		}); err != nil {
			return err
		}
		if err := s.writeOffRepo.Create(ctx, writeOff); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("write-off recorded",
		zap.Stringer("write_off_id", writeOff.ID),
		zap.Stringer("product_id", writeOff.ProductID),
		zap.Int("quantity", writeOff.Quantity),
	)
	return writeOff, nil
}

// DeleteWriteOff soft-deletes the write-off and restores its stock
func (s *WriteOffService) DeleteWriteOff(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		writeOff, err := s.writeOffRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if writeOff == nil {
			return apperror.NewNotFoundError("Write-off")
		}

		if _, err := s.stock.Increase(ctx, &StockChange{
			ProductID:    writeOff.ProductID,
			Quantity:     writeOff.Quantity,
			MovementType: enum.MovementTypeAdjustment,
			ReferenceID:  uuidPtr(writeOff.ID),
			Actor:        actor,
			Note:         reversalNote,
		}); err != nil {
			return err
		}

		if err := s.writeOffRepo.Delete(ctx, writeOff.ID); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("write-off deleted", zap.Stringer("write_off_id", id))
	return nil
}
