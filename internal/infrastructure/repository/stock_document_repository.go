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

type writeOffRepository struct {
	db *gorm.DB
}

// NewWriteOffRepository creates a new write-off repository
func NewWriteOffRepository(db *gorm.DB) domainRepo.WriteOffRepository {
	return &writeOffRepository{db: db}
}

func (r *writeOffRepository) Create(ctx context.Context, writeOff *entity.WriteOff) error {
	return database.Conn(ctx, r.db).Create(writeOff).Error
}

func (r *writeOffRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.WriteOff, error) {
	var writeOff entity.WriteOff
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&writeOff, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &writeOff, err
}

func (r *writeOffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Delete(&entity.WriteOff{}, "id = ?", id).Error
}

type productionRepository struct {
	db *gorm.DB
}

// NewProductionRepository creates a new production repository
func NewProductionRepository(db *gorm.DB) domainRepo.ProductionRepository {
	return &productionRepository{db: db}
}

func (r *productionRepository) Create(ctx context.Context, production *entity.Production) error {
	return database.Conn(ctx, r.db).Create(production).Error
}

func (r *productionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Production, error) {
	var production entity.Production
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&production, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &production, err
}

func (r *productionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Delete(&entity.Production{}, "id = ?", id).Error
}

type returnRepository struct {
	db *gorm.DB
}

// NewReturnRepository creates a new sale return repository
func NewReturnRepository(db *gorm.DB) domainRepo.ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *entity.SaleReturn) error {
	return database.Conn(ctx, r.db).Create(ret).Error
}

func (r *returnRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.SaleReturn, error) {
	var returns []entity.SaleReturn
	err := database.Conn(ctx, r.db).
		Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&returns).Error
	return returns, err
}
