package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// OverpaymentTransaction is an append-only entry of the client credit log.
// Amount is signed; uses and withdrawals are stored as negative amounts.
type OverpaymentTransaction struct {
	ID           uint                 `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientID     uuid.UUID            `gorm:"type:uuid;not null;index:idx_client_overpayments_client_created" json:"client_id"`
	SaleID       *uuid.UUID           `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	Amount       decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"amount"`
	Type         enum.OverpaymentType `gorm:"size:20;not null" json:"type"`
	BalanceAfter decimal.Decimal      `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	Version      int64                `gorm:"not null" json:"version"`
	Note         string               `gorm:"type:text" json:"note,omitempty"`
	Metadata     *string              `gorm:"type:text" json:"metadata,omitempty"`
	CreatedBy    *uuid.UUID           `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt    time.Time            `gorm:"index:idx_client_overpayments_client_created" json:"created_at"`
}

// TableName returns the table name for the OverpaymentTransaction model
func (OverpaymentTransaction) TableName() string {
	return "client_overpayments"
}
