package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/seedledger-api/internal/domain/enum"
)

// Stock holds the on-hand quantity of one product.
// It is only ever written through the stock ledger.
type Stock struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	Quantity  int       `gorm:"not null;default:0;check:chk_stocks_quantity,quantity >= 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Stock model
func (Stock) TableName() string {
	return "stocks"
}

// StockMovement is an append-only record of one stock change
type StockMovement struct {
	ID             uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_stock_movements_product_created" json:"product_id"`
	QuantityChange int               `gorm:"not null" json:"quantity_change"`
	QuantityAfter  int               `gorm:"not null" json:"quantity_after"`
	MovementType   enum.MovementType `gorm:"size:20;not null;index" json:"movement_type"`
	ReferenceID    *uuid.UUID        `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	Note           string            `gorm:"type:text" json:"note,omitempty"`
	CreatedBy      *uuid.UUID        `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time         `gorm:"index:idx_stock_movements_product_created" json:"created_at"`
}

// TableName returns the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}
