package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/infrastructure/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const salesReceiptCounter = "sales"

type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) domainRepo.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *entity.Sale) error {
	err := database.Conn(ctx, r.db).Create(sale).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainRepo.ErrReceiptTaken
	}
	return err
}

func (r *saleRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := database.Conn(ctx, r.db).First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := database.Conn(ctx, r.db).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.Product").
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	var sale entity.Sale
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&sale, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &sale, err
}

func (r *saleRepository) UpdateTotals(ctx context.Context, sale *entity.Sale) error {
	return database.Conn(ctx, r.db).Model(&entity.Sale{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"paid":            sale.Paid,
			"debt":            sale.Debt,
			"new_overpayment": sale.NewOverpayment,
		}).Error
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Delete(&entity.Sale{}, "id = ?", id).Error
}

func (r *saleRepository) List(ctx context.Context, params *domainRepo.SaleFilterParams) ([]entity.Sale, int64, error) {
	var sales []entity.Sale
	var total int64

	query := database.Conn(ctx, r.db).Model(&entity.Sale{})

	if params.ClientID != nil {
		query = query.Where("client_id = ?", *params.ClientID)
	}

	if params.StartDate != nil {
		query = query.Where("created_at >= ?", *params.StartDate)
	}

	if params.EndDate != nil {
		query = query.Where("created_at <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortOrder := "DESC"
	if strings.EqualFold(params.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Preload("Client").
		Order("created_at " + sortOrder).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepository) NextReceiptNumber(ctx context.Context) (int, error) {
	if !database.InTransaction(ctx) {
		var next int
		err := database.NewTxManager(r.db).WithinTransaction(ctx, func(ctx context.Context) error {
			var err error
			next, err = r.NextReceiptNumber(ctx)
			return err
		})
		return next, err
	}

	db := database.Conn(ctx, r.db)
	bumped, err := r.bumpReceiptCounter(db)
	if err != nil {
		return 0, err
	}
	if !bumped {
		highest, err := r.highestReceiptNumber(db)
		if err != nil {
			return 0, err
		}
		// a concurrent first sale may seed the row first; its value wins
		err = db.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&entity.ReceiptCounter{Name: salesReceiptCounter, LastNumber: highest}).Error
		if err != nil {
			return 0, err
		}
		if bumped, err = r.bumpReceiptCounter(db); err != nil {
			return 0, err
		}
		if !bumped {
			return 0, fmt.Errorf("receipt counter %q missing after seeding", salesReceiptCounter)
		}
	}

	var counter entity.ReceiptCounter
	if err := db.Take(&counter, "name = ?", salesReceiptCounter).Error; err != nil {
		return 0, err
	}
	return counter.LastNumber, nil
}

// bumpReceiptCounter takes the counter row lock by writing it
func (r *saleRepository) bumpReceiptCounter(db *gorm.DB) (bool, error) {
	result := db.Model(&entity.ReceiptCounter{}).
		Where("name = ?", salesReceiptCounter).
		Update("last_number", gorm.Expr("last_number + 1"))
	return result.RowsAffected > 0, result.Error
}

// highestReceiptNumber orders by length first so that numbers past
// 999999 still sort after the six-digit ones
func (r *saleRepository) highestReceiptNumber(db *gorm.DB) (int, error) {
	var sale entity.Sale
	err := db.Unscoped().
		Select("id", "receipt_number").
		Order("LENGTH(receipt_number) DESC").
		Order("receipt_number DESC").
		Limit(1).
		Take(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(sale.ReceiptNumber)
	if err != nil {
		return 0, fmt.Errorf("malformed receipt number %q: %w", sale.ReceiptNumber, err)
	}
	return n, nil
}

func (r *saleRepository) ActiveReceiptNumbers(ctx context.Context) ([]string, error) {
	var numbers []string
	err := database.Conn(ctx, r.db).Model(&entity.Sale{}).
		Order("LENGTH(receipt_number) ASC").
		Order("receipt_number ASC").
		Pluck("receipt_number", &numbers).Error
	return numbers, err
}

type saleItemRepository struct {
	db *gorm.DB
}

// NewSaleItemRepository creates a new sale item repository
func NewSaleItemRepository(db *gorm.DB) domainRepo.SaleItemRepository {
	return &saleItemRepository{db: db}
}

func (r *saleItemRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleItem, error) {
	var items []entity.SaleItem
	err := database.Conn(ctx, r.db).
		Where("sale_id = ?", saleID).
		Order("position ASC").
		Find(&items).Error
	return items, err
}

func (r *saleItemRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.SaleItem, error) {
	var item entity.SaleItem
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &item, err
}

func (r *saleItemRepository) UpdateReturnedQuantity(ctx context.Context, id uuid.UUID, returned int) error {
	return database.Conn(ctx, r.db).Model(&entity.SaleItem{}).
		Where("id = ?", id).
		Update("returned_quantity", returned).Error
}
