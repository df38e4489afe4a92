package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/pkg/apperror"
	"github.com/sangkips/seedledger-api/pkg/pagination"
	"github.com/sangkips/seedledger-api/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product-related operations
type ProductService struct {
	tx          repository.Transactor
	stock       StockLedger
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	logger      *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(
	tx repository.Transactor,
	stock StockLedger,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		tx:          tx,
		stock:       stock,
		productRepo: productRepo,
		stockRepo:   stockRepo,
		logger:      logger,
	}
}

// CreateProductInput represents the create product input.
// A positive InitialQuantity is booked as a production movement.
type CreateProductInput struct {
	Name            string
	Code            string
	Price           decimal.Decimal
	InitialQuantity int
	Actor           *uuid.UUID
}

// CreateProduct creates a product together with its zero-quantity stock row
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*entity.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewInvalidArgumentError("name is required")
	}
	if err := requireNonNegative("price", input.Price); err != nil {
		return nil, err
	}
	if input.InitialQuantity < 0 {
		return nil, apperror.NewInvalidArgumentError("initial_quantity must not be negative, got %d", input.InitialQuantity)
	}

	// Auto-generate code if not provided
	code := strings.TrimSpace(input.Code)
	if code == "" {
		code = utils.GenerateProductCode()
	}

	var product *entity.Product
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.productRepo.GetByCode(ctx, code)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		if existing != nil {
			return apperror.NewConflictError("Product code already exists")
		}

		product = &entity.Product{
			Name:     name,
			Code:     &code,
			Price:    input.Price,
			IsActive: true,
		}
		if err := s.productRepo.Create(ctx, product); err != nil {
			return apperror.NewInternalError(err)
		}
		if err := s.stockRepo.Create(ctx, &entity.Stock{ProductID: product.ID}); err != nil {
			return apperror.NewInternalError(err)
		}

		if input.InitialQuantity > 0 {
			if _, err := s.stock.Increase(ctx, &StockChange{
				ProductID:    product.ID,
				Quantity:     input.InitialQuantity,
				MovementType: enum.MovementTypeProduction,
				ReferenceID:  uuidPtr(product.ID),
				Actor:        input.Actor,
				Note:         "opening stock",
			}); err != nil {
				return err
			}
		}

		product, err = s.productRepo.GetByID(ctx, product.ID)
		if err != nil {
			return apperror.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("product created", zap.Stringer("product_id", product.ID), zap.String("code", code))
	return product, nil
}

// GetProduct retrieves a product with its stock
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if product == nil {
		return nil, apperror.NewNotFoundError("Product")
	}
	return product, nil
}

// ListProducts retrieves products with pagination
func (s *ProductService) ListProducts(ctx context.Context, params *pagination.PaginationParams, search string) (*pagination.PaginatedResult[entity.Product], error) {
	products, total, err := s.productRepo.List(ctx, params, search)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	return pagination.NewPaginatedResult(products, pagination.NewPagination(params.Page, params.PerPage, total)), nil
}
