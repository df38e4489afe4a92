package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment represents money received against a sale.
// OverpaymentRecordID links the overpayment transaction this payment produced, if any.
type Payment struct {
	ID                  uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	SaleID              uuid.UUID          `gorm:"type:uuid;not null;index" json:"sale_id"`
	Amount              decimal.Decimal    `gorm:"type:decimal(20,2);not null" json:"amount"`
	Method              enum.PaymentMethod `gorm:"size:20;not null" json:"method"`
	Note                string             `gorm:"type:text" json:"note,omitempty"`
	OverpaymentRecordID *uint              `gorm:"index" json:"overpayment_record_id,omitempty"`
	CreatedBy           *uuid.UUID         `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
	DeletedAt           gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new payment
func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Payment model
func (Payment) TableName() string {
	return "payments"
}
