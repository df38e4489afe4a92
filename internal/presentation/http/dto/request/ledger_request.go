package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdjustStockRequest sets a product's quantity after a physical count
type AdjustStockRequest struct {
	Quantity *int   `json:"quantity" binding:"required,min=0"`
	Reason   string `json:"reason" binding:"max=1000"`
}

// StockDocumentRequest represents a write-off or a production batch
type StockDocumentRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Note      string    `json:"note" binding:"max=1000"`
}

// OverpaymentRequest represents a withdrawal or a signed adjustment of client credit
type OverpaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" binding:"max=1000"`
}

// LimitRequest bounds history-style listings
type LimitRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}
