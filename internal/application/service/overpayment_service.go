package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// OverpaymentService is the client overpayment ledger
type OverpaymentService struct {
	tx              repository.Transactor
	clientRepo      repository.ClientRepository
	overpaymentRepo repository.OverpaymentRepository
	logger          *zap.Logger
}

// NewOverpaymentService creates a new overpayment ledger service
func NewOverpaymentService(
	tx repository.Transactor,
	clientRepo repository.ClientRepository,
	overpaymentRepo repository.OverpaymentRepository,
	logger *zap.Logger,
) *OverpaymentService {
	return &OverpaymentService{
		tx:              tx,
		clientRepo:      clientRepo,
		overpaymentRepo: overpaymentRepo,
		logger:          logger,
	}
}

var _ OverpaymentLedger = (*OverpaymentService)(nil)

// balanceChange computes the log entry and the new balance for a locked client
type balanceChange func(client *entity.Client) (*entity.OverpaymentTransaction, decimal.Decimal, error)

// Balance returns the cached overpayment balance of an active client
func (s *OverpaymentService) Balance(ctx context.Context, clientID uuid.UUID) (decimal.Decimal, error) {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return decimal.Zero, apperror.NewInternalError(err)
	}
	if client == nil {
		return decimal.Zero, apperror.NewNotFoundError("Client")
	}
	return client.CurrentOverpayment, nil
}

// Create credits the client with amount
func (s *OverpaymentService) Create(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error) {
	if err := requirePositive("amount", entry.Amount); err != nil {
		return nil, err
	}
	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, entry.ClientID, func(client *entity.Client) (*entity.OverpaymentTransaction, decimal.Decimal, error) {
		return &entity.OverpaymentTransaction{
			SaleID:    entry.SaleID,
			Amount:    entry.Amount,
			Type:      enum.OverpaymentTypeCreated,
			Note:      entry.Note,
			Metadata:  metadata,
			CreatedBy: entry.Actor,
		}, client.CurrentOverpayment.Add(entry.Amount), nil
	})
}

// Use consumes credit toward a sale. The entry is logged as a negative
// amount of type adjusted so that the log still sums to the balance.
func (s *OverpaymentService) Use(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error) {
	if err := requirePositive("amount", entry.Amount); err != nil {
		return nil, err
	}
	if entry.SaleID == nil {
		return nil, apperror.NewInvalidArgumentError("sale id is required to use an overpayment")
	}

	return s.mutate(ctx, entry.ClientID, func(client *entity.Client) (*entity.OverpaymentTransaction, decimal.Decimal, error) {
		if entry.Amount.GreaterThan(client.CurrentOverpayment) {
			return nil, decimal.Zero, apperror.NewInsufficientBalanceError(client.ID, client.CurrentOverpayment, entry.Amount)
		}
		return &entity.OverpaymentTransaction{
			SaleID:    entry.SaleID,
			Amount:    entry.Amount.Neg(),
			Type:      enum.OverpaymentTypeAdjusted,
			Note:      entry.Note,
			CreatedBy: entry.Actor,
		}, client.CurrentOverpayment.Sub(entry.Amount), nil
	})
}

// Withdraw pays credit out to the client
func (s *OverpaymentService) Withdraw(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error) {
	if err := requirePositive("amount", entry.Amount); err != nil {
		return nil, err
	}

	return s.mutate(ctx, entry.ClientID, func(client *entity.Client) (*entity.OverpaymentTransaction, decimal.Decimal, error) {
		if entry.Amount.GreaterThan(client.CurrentOverpayment) {
			return nil, decimal.Zero, apperror.NewInsufficientBalanceError(client.ID, client.CurrentOverpayment, entry.Amount)
		}
		return &entity.OverpaymentTransaction{
			SaleID:    entry.SaleID,
			Amount:    entry.Amount.Neg(),
			Type:      enum.OverpaymentTypeWithdrawn,
			Note:      entry.Note,
			CreatedBy: entry.Actor,
		}, client.CurrentOverpayment.Sub(entry.Amount), nil
	})
}

// Adjust applies a signed correction. The stored balance is clamped at
// zero while the log keeps the raw amount, so a negative adjustment larger
// than the balance leaves the log sum below the cached balance.
// Adjust also reaches soft-deleted clients, so sales and payments made
// before a client was removed can still be reversed.
func (s *OverpaymentService) Adjust(ctx context.Context, entry *OverpaymentEntry) (*OverpaymentResult, error) {
	if entry.Amount.IsZero() {
		return nil, apperror.NewInvalidArgumentError("amount must not be zero")
	}
	if err := checkMoney("amount", entry.Amount); err != nil {
		return nil, err
	}

	return s.mutateUnscoped(ctx, entry.ClientID, func(client *entity.Client) (*entity.OverpaymentTransaction, decimal.Decimal, error) {
		return &entity.OverpaymentTransaction{
			SaleID:    entry.SaleID,
			Amount:    entry.Amount,
			Type:      enum.OverpaymentTypeAdjusted,
			Note:      entry.Note,
			CreatedBy: entry.Actor,
		}, floorZero(client.CurrentOverpayment.Add(entry.Amount)), nil
	})
}

// Recalculate rebuilds the cached balance from the log, floored at zero.
// It is the administrative repair path and skips the version check.
func (s *OverpaymentService) Recalculate(ctx context.Context, clientID uuid.UUID) (*RecalculateResult, error) {
	var result *RecalculateResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.lockClient(ctx, clientID, false)
		if err != nil {
			return err
		}

		amounts, err := s.overpaymentRepo.Amounts(ctx, clientID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		balance := floorZero(sumAmounts(amounts))

		if err := s.clientRepo.OverwriteBalance(ctx, clientID, balance); err != nil {
			return apperror.NewInternalError(err)
		}

		result = &RecalculateResult{
			ClientID:            clientID,
			PreviousBalance:     client.CurrentOverpayment,
			RecalculatedBalance: balance,
			Version:             client.Version + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("overpayment balance recalculated",
		zap.Stringer("client_id", clientID),
		zap.Stringer("previous_balance", result.PreviousBalance),
		zap.Stringer("balance", result.RecalculatedBalance),
	)
	return result, nil
}

// History returns the client's log, newest first
func (s *OverpaymentService) History(ctx context.Context, clientID uuid.UUID, limit int) ([]entity.OverpaymentTransaction, error) {
	if _, err := s.Balance(ctx, clientID); err != nil {
		return nil, err
	}

	limit = pagination.ClampLimit(limit, defaultHistoryLimit, maxHistoryLimit)
	txns, err := s.overpaymentRepo.ListByClient(ctx, clientID, limit)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return txns, nil
}

// Reconcile lists active clients whose cached balance differs from the
// floored sum of their log. It reports only and never repairs.
func (s *OverpaymentService) Reconcile(ctx context.Context) ([]OverpaymentDiscrepancy, error) {
	clients, err := s.clientRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	rows, err := s.overpaymentRepo.AllAmounts(ctx)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(clients))
	for _, row := range rows {
		sums[row.ClientID] = sums[row.ClientID].Add(row.Amount)
	}

	var out []OverpaymentDiscrepancy
	for _, client := range clients {
		calculated := floorZero(sums[client.ID])
		if calculated.Equal(client.CurrentOverpayment) {
			continue
		}
		out = append(out, OverpaymentDiscrepancy{
			ClientID:          client.ID,
			ClientName:        client.Name,
			CurrentBalance:    client.CurrentOverpayment,
			CalculatedBalance: calculated,
			Difference:        client.CurrentOverpayment.Sub(calculated),
		})
	}

	if len(out) > 0 {
		s.logger.Warn("overpayment reconciliation found discrepancies", zap.Int("clients", len(out)))
	}
	return out, nil
}

// mutate runs one balance write: lock the client, compute, write
// conditioned on the version read under the lock, then append the entry.
func (s *OverpaymentService) mutate(ctx context.Context, clientID uuid.UUID, change balanceChange) (*OverpaymentResult, error) {
	return s.write(ctx, clientID, false, change)
}

// mutateUnscoped is mutate for clients that may be soft-deleted
func (s *OverpaymentService) mutateUnscoped(ctx context.Context, clientID uuid.UUID, change balanceChange) (*OverpaymentResult, error) {
	return s.write(ctx, clientID, true, change)
}

func (s *OverpaymentService) write(ctx context.Context, clientID uuid.UUID, includeDeleted bool, change balanceChange) (*OverpaymentResult, error) {
	joined := s.tx.InTransaction(ctx)
	var result *OverpaymentResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.lockClient(ctx, clientID, includeDeleted)
		if err != nil {
			return err
		}

		txn, balance, err := change(client)
		if err != nil {
			return err
		}

		applied, err := s.clientRepo.UpdateBalance(ctx, client.ID, balance, client.Version)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if !applied {
			return apperror.ErrVersionConflict
		}

		txn.ClientID = client.ID
		txn.BalanceAfter = balance
		txn.Version = client.Version + 1
		if err := s.overpaymentRepo.Create(ctx, txn); err != nil {
			return apperror.NewInternalError(err)
		}

		result = &OverpaymentResult{
			TransactionID: txn.ID,
			ClientID:      client.ID,
			Amount:        txn.Amount,
			BalanceAfter:  balance,
			Version:       txn.Version,
		}
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindVersionConflict {
			s.logger.Warn("overpayment version conflict", zap.Stringer("client_id", clientID))
		}
		return nil, err
	}

	s.logger.Log(mutationLogLevel(joined), "overpayment ledger entry recorded",
		zap.Stringer("client_id", clientID),
		zap.Uint("transaction_id", result.TransactionID),
		zap.Stringer("amount", result.Amount),
		zap.Stringer("balance_after", result.BalanceAfter),
		zap.Int64("version", result.Version),
	)
	return result, nil
}

func (s *OverpaymentService) lockClient(ctx context.Context, clientID uuid.UUID, includeDeleted bool) (*entity.Client, error) {
	lock := s.clientRepo.GetByIDForUpdate
	if includeDeleted {
		lock = s.clientRepo.GetByIDForUpdateUnscoped
	}
	client, err := lock(ctx, clientID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if client == nil {
		return nil, apperror.NewNotFoundError("Client")
	}
	return client, nil
}

func sumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

func encodeMetadata(metadata map[string]any) (*string, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperror.NewInvalidArgumentError("metadata is not valid JSON: %v", err)
	}
	out := string(raw)
	return &out, nil
}
