package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client represents a buyer of the company.
// CurrentOverpayment caches the overpayment ledger balance; Version is the
// optimistic concurrency token bumped on every balance-affecting write.
type Client struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name               string          `gorm:"size:255;not null" json:"name"`
	Phone              *string         `gorm:"size:50" json:"phone,omitempty"`
	Email              *string         `gorm:"size:255" json:"email,omitempty"`
	Address            *string         `gorm:"type:text" json:"address,omitempty"`
	IsActive           bool            `gorm:"not null;default:true" json:"is_active"`
	CurrentOverpayment decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"current_overpayment"`
	Version            int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relationships
	Sales []Sale `gorm:"foreignKey:ClientID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new client
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
