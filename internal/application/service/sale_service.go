package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const reversalNote = "reversal"

// SaleService creates and reverses sales together with their stock,
// payment and overpayment side effects
type SaleService struct {
	tx           repository.Transactor
	locker       Locker
	receipts     *ReceiptSequence
	stock        StockLedger
	overpayments OverpaymentLedger
	saleRepo     repository.SaleRepository
	saleItemRepo repository.SaleItemRepository
	paymentRepo  repository.PaymentRepository
	clientRepo   repository.ClientRepository
	productRepo  repository.ProductRepository
	logger       *zap.Logger
}

// SaleServiceDeps holds the collaborators of SaleService.
// Locker is optional; without it receipt numbers are serialized by row locks alone.
type SaleServiceDeps struct {
	Tx           repository.Transactor
	Locker       Locker
	Receipts     *ReceiptSequence
	Stock        StockLedger
	Overpayments OverpaymentLedger
	SaleRepo     repository.SaleRepository
	SaleItemRepo repository.SaleItemRepository
	PaymentRepo  repository.PaymentRepository
	ClientRepo   repository.ClientRepository
	ProductRepo  repository.ProductRepository
	Logger       *zap.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(deps SaleServiceDeps) *SaleService {
	return &SaleService{
		tx:           deps.Tx,
		locker:       deps.Locker,
		receipts:     deps.Receipts,
		stock:        deps.Stock,
		overpayments: deps.Overpayments,
		saleRepo:     deps.SaleRepo,
		saleItemRepo: deps.SaleItemRepo,
		paymentRepo:  deps.PaymentRepo,
		clientRepo:   deps.ClientRepo,
		productRepo:  deps.ProductRepo,
		logger:       deps.Logger,
	}
}

// SaleItemInput represents one line of a new sale
type SaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// CreateSaleInput represents the create sale input.
// CreditApplied is client overpayment spent on this sale; it counts as paid.
type CreateSaleInput struct {
	ClientID      uuid.UUID
	Items         []SaleItemInput
	PaidAmount    decimal.Decimal
	PaymentMethod enum.PaymentMethod
	CreditApplied decimal.Decimal
	Note          string
	Actor         *uuid.UUID
}

func (in *CreateSaleInput) validate() error {
	if in.ClientID == uuid.Nil {
		return apperror.NewInvalidArgumentError("client_id is required")
	}
	if len(in.Items) == 0 {
		return apperror.NewInvalidArgumentError("a sale needs at least one item")
	}
	if err := requireNonNegative("paid_amount", in.PaidAmount); err != nil {
		return err
	}
	if err := requireNonNegative("credit_applied", in.CreditApplied); err != nil {
		return err
	}

	if in.PaymentMethod == "" {
		in.PaymentMethod = enum.DefaultPaymentMethod
	}
	if !in.PaymentMethod.IsValid() {
		return apperror.NewInvalidArgumentError("unknown payment method %q", in.PaymentMethod)
	}
	if in.PaymentMethod == enum.PaymentMethodOverpayment {
		return apperror.NewInvalidArgumentError("use credit_applied to pay a new sale from overpayment")
	}

	for i, item := range in.Items {
		if item.ProductID == uuid.Nil {
			return apperror.NewInvalidArgumentError("items[%d]: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return apperror.NewInvalidArgumentError("items[%d]: quantity must be positive, got %d", i, item.Quantity)
		}
		if err := requireNonNegative("price", item.Price); err != nil {
			return apperror.NewInvalidArgumentError("items[%d]: %s", i, err.Error())
		}
	}
	return nil
}

// CreateSale records a sale in one transaction: receipt number, stock
// check, sale and items, stock debits, payments and any new overpayment.
// Any failure rolls all of it back.
func (s *SaleService) CreateSale(ctx context.Context, input *CreateSaleInput) (*entity.Sale, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.Lock(ctx, receiptLockKey)
		if err != nil {
			return nil, err
		}
		defer func() { _ = release(context.WithoutCancel(ctx)) }()
	}

	var sale *entity.Sale
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		client, err := s.clientRepo.GetByID(ctx, input.ClientID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if client == nil {
			return apperror.NewNotFoundError("Client")
		}
		if !client.IsActive {
			return apperror.NewInvalidArgumentError("client %s is not active", client.Name)
		}

		receipt, err := s.receipts.Next(ctx)
		if err != nil {
			return err
		}

		if err := s.checkStock(ctx, input.Items); err != nil {
			return err
		}

		sale = &entity.Sale{
			ReceiptNumber: receipt,
			ClientID:      client.ID,
			Note:          input.Note,
			CreatedBy:     input.Actor,
		}
		total := decimal.Zero
		for i, item := range input.Items {
			line := entity.SaleItem{
				ProductID: item.ProductID,
				Position:  i + 1,
				Quantity:  item.Quantity,
				Price:     item.Price,
			}
			total = total.Add(line.LineTotal())
			sale.Items = append(sale.Items, line)
		}
		if input.CreditApplied.GreaterThan(total) {
			return apperror.NewInvalidArgumentError("credit_applied %s exceeds the sale total %s", input.CreditApplied, total)
		}
		sale.Total = total
		sale.SetPaid(input.PaidAmount.Add(input.CreditApplied))

		if err := s.saleRepo.Create(ctx, sale); err != nil {
			if errors.Is(err, repository.ErrReceiptTaken) {
				return apperror.NewConflictError("Receipt number " + receipt + " is already taken, please retry")
			}
			return apperror.NewInternalError(err)
		}

		for _, item := range sale.Items {
			if _, err := s.stock.Decrease(ctx, &StockChange{
				ProductID:    item.ProductID,
				Quantity:     item.Quantity,
				MovementType: enum.MovementTypeSale,
				ReferenceID:  uuidPtr(sale.ID),
				Actor:        input.Actor,
				Note:         "sale " + receipt,
			}); err != nil {
				return err
			}
		}

		if input.CreditApplied.IsPositive() {
			if err := s.payFromCredit(ctx, sale, input.CreditApplied, input.Actor); err != nil {
				return err
			}
		}

		if input.PaidAmount.IsPositive() {
			payment := &entity.Payment{
				SaleID:    sale.ID,
				Amount:    input.PaidAmount,
				Method:    input.PaymentMethod,
				CreatedBy: input.Actor,
			}
			if sale.NewOverpayment.IsPositive() {
				res, err := s.overpayments.Create(ctx, &OverpaymentEntry{
					ClientID: sale.ClientID,
					Amount:   sale.NewOverpayment,
					SaleID:   uuidPtr(sale.ID),
					Actor:    input.Actor,
					Note:     "overpayment on sale " + receipt,
					Metadata: map[string]any{
						"receipt_number": receipt,
						"total":          sale.Total.String(),
						"paid":           sale.Paid.String(),
					},
				})
				if err != nil {
					return err
				}
				payment.OverpaymentRecordID = &res.TransactionID
			}
			if err := s.paymentRepo.Create(ctx, payment); err != nil {
				return apperror.NewInternalError(err)
			}
		}

		sale, err = s.saleRepo.GetWithDetails(ctx, sale.ID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sale creation rolled back",
			zap.Stringer("client_id", input.ClientID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("sale created",
		zap.Stringer("sale_id", sale.ID),
		zap.String("receipt_number", sale.ReceiptNumber),
		zap.Stringer("client_id", sale.ClientID),
		zap.Stringer("total", sale.Total),
		zap.Stringer("paid", sale.Paid),
		zap.Stringer("debt", sale.Debt),
		zap.Stringer("new_overpayment", sale.NewOverpayment),
	)
	return sale, nil
}

// DeleteSale soft-deletes a sale and reverses its effects: unreturned
// stock comes back, the overpayment it created is retracted, credit it
// consumed is restored and its payments are soft-deleted.
func (s *SaleService) DeleteSale(ctx context.Context, saleID uuid.UUID, actor *uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sale, err := s.saleRepo.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if sale == nil {
			return apperror.NewNotFoundError("Sale")
		}

		items, err := s.saleItemRepo.GetBySaleID(ctx, sale.ID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		for _, item := range items {
			restore := item.Quantity - item.ReturnedQuantity
			if restore <= 0 {
				continue
			}
			if _, err := s.stock.Increase(ctx, &StockChange{
				ProductID:    item.ProductID,
				Quantity:     restore,
				MovementType: enum.MovementTypeAdjustment,
				ReferenceID:  uuidPtr(sale.ID),
				Actor:        actor,
				Note:         reversalNote,
			}); err != nil {
				return err
			}
		}

		if sale.NewOverpayment.IsPositive() {
			if _, err := s.overpayments.Adjust(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   sale.NewOverpayment.Neg(),
				SaleID:   uuidPtr(sale.ID),
				Actor:    actor,
				Note:     reversalNote + " of sale " + sale.ReceiptNumber,
			}); err != nil {
				return err
			}
		}

		payments, err := s.paymentRepo.GetBySaleID(ctx, sale.ID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		for _, payment := range payments {
			if payment.Method != enum.PaymentMethodOverpayment {
				continue
			}
			if _, err := s.overpayments.Adjust(ctx, &OverpaymentEntry{
				ClientID: sale.ClientID,
				Amount:   payment.Amount,
				SaleID:   uuidPtr(sale.ID),
				Actor:    actor,
				Note:     "credit restored from sale " + sale.ReceiptNumber,
			}); err != nil {
				return err
			}
		}

		if err := s.paymentRepo.DeleteBySaleID(ctx, sale.ID); err != nil {
			return apperror.NewInternalError(err)
		}
		if err := s.saleRepo.Delete(ctx, sale.ID); err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("sale deletion rolled back", zap.Stringer("sale_id", saleID), zap.Error(err))
		return err
	}

	s.logger.Info("sale deleted", zap.Stringer("sale_id", saleID))
	return nil
}

// GetSale returns an active sale with its items and payments
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	sale, err := s.saleRepo.GetWithDetails(ctx, id)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if sale == nil {
		return nil, apperror.NewNotFoundError("Sale")
	}
	return sale, nil
}

// ListSales returns active sales, newest first by default
func (s *SaleService) ListSales(ctx context.Context, params *repository.SaleFilterParams) (*pagination.PaginatedResult[entity.Sale], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	sales, total, err := s.saleRepo.List(ctx, params)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return pagination.NewPaginatedResult(sales, pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)), nil
}

// CheckReceiptSequence reports receipt numbers missing among active sales
func (s *SaleService) CheckReceiptSequence(ctx context.Context) ([]string, error) {
	return s.receipts.CheckSequence(ctx)
}

// checkStock verifies availability for the summed quantity of each product
func (s *SaleService) checkStock(ctx context.Context, items []SaleItemInput) error {
	required := make(map[uuid.UUID]int, len(items))
	order := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := required[item.ProductID]; !ok {
			order = append(order, item.ProductID)
		}
		required[item.ProductID] += item.Quantity
	}

	for _, productID := range order {
		product, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if product == nil {
			return apperror.NewNotFoundError("Product " + productID.String())
		}
		if !product.IsActive {
			return apperror.NewInvalidArgumentError("product %s is not active", product.Name)
		}

		ok, err := s.stock.HasStock(ctx, productID, required[productID])
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		available, err := s.stock.Quantity(ctx, productID)
		if err != nil {
			return err
		}
		return &apperror.InsufficientStockError{
			ProductID:   productID,
			ProductName: product.Name,
			Available:   available,
			Requested:   required[productID],
		}
	}
	return nil
}

func (s *SaleService) payFromCredit(ctx context.Context, sale *entity.Sale, amount decimal.Decimal, actor *uuid.UUID) error {
	res, err := s.overpayments.Use(ctx, &OverpaymentEntry{
		ClientID: sale.ClientID,
		Amount:   amount,
		SaleID:   uuidPtr(sale.ID),
		Actor:    actor,
		Note:     "applied to sale " + sale.ReceiptNumber,
	})
	if err != nil {
		return err
	}

	payment := &entity.Payment{
		SaleID:              sale.ID,
		Amount:              amount,
		Method:              enum.PaymentMethodOverpayment,
		OverpaymentRecordID: &res.TransactionID,
		CreatedBy:           actor,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return apperror.NewInternalError(err)
	}
	return nil
}
