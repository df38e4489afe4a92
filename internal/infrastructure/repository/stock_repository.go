package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/infrastructure/database"
	"gorm.io/gorm"
)

type stockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) domainRepo.StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) Create(ctx context.Context, stock *entity.Stock) error {
	return database.Conn(ctx, r.db).Create(stock).Error
}

func (r *stockRepository) GetByProductID(ctx context.Context, productID uuid.UUID) (*entity.Stock, error) {
	var stock entity.Stock
	err := database.Conn(ctx, r.db).First(&stock, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &stock, err
}

func (r *stockRepository) GetByProductIDForUpdate(ctx context.Context, productID uuid.UUID) (*entity.Stock, error) {
	var stock entity.Stock
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&stock, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &stock, err
}

func (r *stockRepository) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	return database.Conn(ctx, r.db).Model(&entity.Stock{}).
		Where("product_id = ?", productID).
		Update("quantity", quantity).Error
}

func (r *stockRepository) CreateMovement(ctx context.Context, movement *entity.StockMovement) error {
	return database.Conn(ctx, r.db).Create(movement).Error
}

func (r *stockRepository) ListMovements(ctx context.Context, productID *uuid.UUID, limit int) ([]entity.StockMovement, error) {
	var movements []entity.StockMovement
	query := database.Conn(ctx, r.db).Model(&entity.StockMovement{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	err := query.Scopes(NewestFirst, Limit(limit)).Find(&movements).Error
	return movements, err
}

const discrepancyQuery = `
SELECT s.product_id AS product_id,
       COALESCE(p.name, '') AS product_name,
       s.quantity AS current_stock,
       COALESCE(m.total, 0) AS calculated_stock
FROM stocks s
LEFT JOIN products p ON p.id = s.product_id
LEFT JOIN (
    SELECT product_id, SUM(quantity_change) AS total
    FROM stock_movements
    GROUP BY product_id
) m ON m.product_id = s.product_id
WHERE s.quantity <> COALESCE(m.total, 0)
ORDER BY s.product_id`

func (r *stockRepository) Discrepancies(ctx context.Context) ([]domainRepo.StockDiscrepancy, error) {
	var rows []domainRepo.StockDiscrepancy
	if err := database.Conn(ctx, r.db).Raw(discrepancyQuery).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Difference = rows[i].CurrentStock - rows[i].CalculatedStock
	}
	return rows, nil
}
