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

type overpaymentRepository struct {
	db *gorm.DB
}

// NewOverpaymentRepository creates a new overpayment log repository
func NewOverpaymentRepository(db *gorm.DB) domainRepo.OverpaymentRepository {
	return &overpaymentRepository{db: db}
}

func (r *overpaymentRepository) Create(ctx context.Context, txn *entity.OverpaymentTransaction) error {
	return database.Conn(ctx, r.db).Create(txn).Error
}

func (r *overpaymentRepository) GetByID(ctx context.Context, id uint) (*entity.OverpaymentTransaction, error) {
	var txn entity.OverpaymentTransaction
	err := database.Conn(ctx, r.db).First(&txn, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &txn, err
}

func (r *overpaymentRepository) ListByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]entity.OverpaymentTransaction, error) {
	var txns []entity.OverpaymentTransaction
	err := database.Conn(ctx, r.db).
		Where("client_id = ?", clientID).
		Scopes(NewestFirst, Limit(limit)).
		Find(&txns).Error
	return txns, err
}

func (r *overpaymentRepository) Amounts(ctx context.Context, clientID uuid.UUID) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := database.Conn(ctx, r.db).Model(&entity.OverpaymentTransaction{}).
		Where("client_id = ?", clientID).
		Pluck("amount", &amounts).Error
	return amounts, err
}

func (r *overpaymentRepository) AllAmounts(ctx context.Context) ([]domainRepo.ClientAmount, error) {
	var rows []domainRepo.ClientAmount
	err := database.Conn(ctx, r.db).Model(&entity.OverpaymentTransaction{}).
		Select("client_id", "amount").
		Scan(&rows).Error
	return rows, err
}
