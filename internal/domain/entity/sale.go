package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale represents a sale to a client.
// Debt and NewOverpayment are derived from Total and Paid and at most one
// of them is non-zero.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptNumber  string          `gorm:"size:20;uniqueIndex;not null" json:"receipt_number"`
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"client_id"`
	Total          decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"total"`
	Paid           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"paid"`
	Debt           decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"debt"`
	NewOverpayment decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"new_overpayment"`
	Note           string          `gorm:"type:text" json:"note,omitempty"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Client   *Client    `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments []Payment  `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale
func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Sale model
func (Sale) TableName() string {
	return "sales"
}

// SetPaid updates Paid and recomputes Debt and NewOverpayment from Total
func (s *Sale) SetPaid(paid decimal.Decimal) {
	s.Paid = paid
	s.Debt = decimal.Max(decimal.Zero, s.Total.Sub(paid))
	s.NewOverpayment = decimal.Max(decimal.Zero, paid.Sub(s.Total))
}

// SaleItem represents a line item of a sale.
// Price is the unit price at the time of sale.
type SaleItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Position         int             `gorm:"not null;default:0" json:"position"`
	Quantity         int             `gorm:"not null" json:"quantity"`
	Price            decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"price"`
	ReturnedQuantity int             `gorm:"not null;default:0" json:"returned_quantity"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// BeforeCreate generates a UUID before creating a new sale item
func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the SaleItem model
func (SaleItem) TableName() string {
	return "sale_items"
}

// LineTotal returns quantity * price
func (si *SaleItem) LineTotal() decimal.Decimal {
	return si.Price.Mul(decimal.NewFromInt(int64(si.Quantity)))
}
