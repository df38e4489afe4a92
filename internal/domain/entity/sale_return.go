package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SaleReturn groups goods a client brought back from one sale
type SaleReturn struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	SaleID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"sale_id"`
	Reason    string         `gorm:"type:text" json:"reason,omitempty"`
	CreatedBy *uuid.UUID     `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items []SaleReturnItem `gorm:"foreignKey:ReturnID" json:"items,omitempty"`
}

// BeforeCreate generates a UUID before creating a new return
func (r *SaleReturn) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleReturn model
func (SaleReturn) TableName() string {
	return "returns"
}

// SaleReturnItem is one returned line
type SaleReturnItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ReturnID   uuid.UUID `gorm:"type:uuid;not null;index" json:"return_id"`
	SaleItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_item_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new return item
func (ri *SaleReturnItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleReturnItem model
func (SaleReturnItem) TableName() string {
	return "return_items"
}
