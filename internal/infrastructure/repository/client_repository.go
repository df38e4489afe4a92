package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/entity"
	domainRepo "github.com/sangkips/seedledger-api/internal/domain/repository"
	"github.com/sangkips/seedledger-api/internal/infrastructure/database"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) domainRepo.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) Create(ctx context.Context, client *entity.Client) error {
	return database.Conn(ctx, r.db).Create(client).Error
}

func (r *clientRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var client entity.Client
	err := database.Conn(ctx, r.db).First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &client, err
}

func (r *clientRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var client entity.Client
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &client, err
}

func (r *clientRepository) GetByIDForUpdateUnscoped(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	var client entity.Client
	err := database.Conn(ctx, r.db).
		Unscoped().
		Scopes(ForUpdate).
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &client, err
}

// UpdateBalance is the optimistic write: UPDATE ... WHERE id = ? AND version = ?
func (r *clientRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal, expectedVersion int64) (bool, error) {
	result := database.Conn(ctx, r.db).Unscoped().Model(&entity.Client{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"current_overpayment": balance,
			"version":             gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *clientRepository) OverwriteBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	return database.Conn(ctx, r.db).Unscoped().Model(&entity.Client{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_overpayment": balance,
			"version":             gorm.Expr("version + 1"),
		}).Error
}

func (r *clientRepository) ListActive(ctx context.Context) ([]entity.Client, error) {
	var clients []entity.Client
	err := database.Conn(ctx, r.db).
		Order("name ASC").
		Find(&clients).Error
	return clients, err
}
