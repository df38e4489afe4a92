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

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	return database.Conn(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := database.Conn(ctx, r.db).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	var payment entity.Payment
	err := database.Conn(ctx, r.db).
		Scopes(ForUpdate).
		First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetBySaleID(ctx context.Context, saleID uuid.UUID) ([]entity.Payment, error) {
	var payments []entity.Payment
	err := database.Conn(ctx, r.db).
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) SetOverpaymentRecord(ctx context.Context, id uuid.UUID, recordID uint) error {
	return database.Conn(ctx, r.db).Model(&entity.Payment{}).
		Where("id = ?", id).
		Update("overpayment_record_id", recordID).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.Conn(ctx, r.db).Delete(&entity.Payment{}, "id = ?", id).Error
}

func (r *paymentRepository) DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error {
	return database.Conn(ctx, r.db).Delete(&entity.Payment{}, "sale_id = ?", saleID).Error
}
