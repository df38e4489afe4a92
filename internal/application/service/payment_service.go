package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService records and reverses payments against existing sales
type PaymentService struct {
	tx           repository.Transactor
	overpayments OverpaymentLedger
	saleRepo     repository.SaleRepository
	paymentRepo  repository.PaymentRepository
	logger       *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	tx repository.Transactor,
	overpayments OverpaymentLedger,
	saleRepo repository.SaleRepository,
	paymentRepo repository.PaymentRepository,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:           tx,
		overpayments: overpayments,
		saleRepo:     saleRepo,
		paymentRepo:  paymentRepo,
		logger:       logger,
	}
}

// CreatePaymentInput represents the create payment input
type CreatePaymentInput struct {
	SaleID uuid.UUID
	Amount decimal.Decimal
	Method enum.PaymentMethod
	Note   string
	Actor  *uuid.UUID
}

// PaymentResult is a recorded payment with the sale it changed
type PaymentResult struct {
	Payment *entity.Payment `json:"payment"`
	Sale    *entity.Sale    `json:"sale"`
}

// CreatePayment records a payment and updates the sale totals. When the
// payment pushes the sale into a new or larger overpayment, exactly the
// increase is credited to the client and linked to the payment.
func (s *PaymentService) CreatePayment(ctx context.Context, input *CreatePaymentInput) (*PaymentResult, error) {
	method := input.Method
	if method == "" {
		method = enum.DefaultPaymentMethod
	}
	if !method.IsValid() {
		return nil, apperror.NewInvalidArgumentError("unknown payment method %q", method)
	}

	var result *PaymentResult
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByIDForUpdate(ctx, input.SaleID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		if err := requirePositive("amount", input.Amount); err != nil {
			return err
		}

		payment := &entity.Payment{
			SaleID:    sale.ID,
			Amount:    input.Amount,
			Method:    method,
			Note:      input.Note,
			CreatedBy: input.Actor,
		}

		if method == enum.PaymentMethodOverpayment {
			if input.Amount.GreaterThan(sale.Debt) {
				return apperror.NewInvalidArgumentError("credit payment %s exceeds the outstanding debt %s", input.Amount, sale.Debt)
			}
			res, err := s.overpayments.Use(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   input.Amount,
				SaleID:   uuidPtr(sale.ID),
				Actor:    input.Actor,
				Note:     "applied to sale " + sale.ReceiptNumber,
			})
			if err != nil {
				return err
			}
			payment.OverpaymentRecordID = &res.TransactionID
		}

		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return apperror.NewInternalError(err)
		}

		previous := sale.NewOverpayment
		sale.SetPaid(sale.Paid.Add(input.Amount))

		if increase := sale.NewOverpayment.Sub(previous); increase.IsPositive() {
			res, err := s.overpayments.Create(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   increase,
				SaleID:   uuidPtr(sale.ID),
				Actor:    input.Actor,
				Note:     "overpayment on sale " + sale.ReceiptNumber,
				Metadata: map[string]any{
					"payment_id":     payment.ID.String(),
					"receipt_number": sale.ReceiptNumber,
				},
			})
			if err != nil {
				return err
			}
			if err := s.paymentRepo.SetOverpaymentRecord(ctx, payment.ID, res.TransactionID); err != nil {
				return apperror.NewInternalError(err)
			}
			payment.OverpaymentRecordID = &res.TransactionID
		}

		if err := s.saleRepo.UpdateTotals(ctx, sale); err != nil {
			return apperror.NewInternalError(err)
		}

		updated, err := s.saleRepo.GetWithDetails(ctx, sale.ID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		result = &PaymentResult{Payment: payment, Sale: updated}
		return nil
	})
	if err != nil {
		s.logger.Warn("payment creation rolled back", zap.Stringer("sale_id", input.SaleID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("payment created",
		zap.Stringer("payment_id", result.Payment.ID),
		zap.Stringer("sale_id", result.Sale.ID),
		zap.Stringer("amount", result.Payment.Amount),
		zap.String("method", string(result.Payment.Method)),
		zap.Stringer("paid", result.Sale.Paid),
		zap.Stringer("debt", result.Sale.Debt),
		zap.Stringer("new_overpayment", result.Sale.NewOverpayment),
	)
	return result, nil
}

// DeletePayment soft-deletes a payment and recomputes the sale as if it
// never existed. Overpayment that disappears with it is retracted, and
// credit it consumed is restored.
func (s *PaymentService) DeletePayment(ctx context.Context, paymentID uuid.UUID, actor *uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		found, err := s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if found == nil {
			return apperror.NewNotFoundError("Payment")
		}

		// Sale first, then payment: the same order DeleteSale locks in
		sale, err := s.saleRepo.GetByIDForUpdate(ctx, found.SaleID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}
		payment, err := s.paymentRepo.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}

		previous := sale.NewOverpayment
		sale.SetPaid(sale.Paid.Sub(payment.Amount))

		if reduction := previous.Sub(sale.NewOverpayment); reduction.IsPositive() {
			if _, err := s.overpayments.Adjust(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   reduction.Neg(),
				SaleID:   uuidPtr(sale.ID),
				Actor:    actor,
				Note:     reversalNote + " of payment on sale " + sale.ReceiptNumber,
			}); err != nil {
				return err
			}
		}

		if payment.Method == enum.PaymentMethodOverpayment {
			if _, err := s.overpayments.Adjust(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   payment.Amount,
				SaleID:   uuidPtr(sale.ID),
				Actor:    actor,
				Note:     "credit restored from payment on sale " + sale.ReceiptNumber,
			}); err != nil {
				return err
			}
		}

		if err := s.saleRepo.UpdateTotals(ctx, sale); err != nil {
			return apperror.NewInternalError(err)
		}
		if err := s.paymentRepo.Delete(ctx, payment.ID); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("payment deletion rolled back", zap.Stringer("payment_id", paymentID), zap.Error(err))
		return err
	}

	s.logger.Info("payment deleted", zap.Stringer("payment_id", paymentID))
	return nil
}
