package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItemRequest is one line of a sale
type SaleItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

// CreateSaleRequest represents a sale creation request.
// Amounts are accepted as JSON numbers or strings.
type CreateSaleRequest struct {
	ClientID      uuid.UUID         `json:"client_id" binding:"required"`
	Items         []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	PaidAmount    decimal.Decimal   `json:"paid_amount"`
	PaymentMethod string            `json:"payment_method" binding:"omitempty,oneof=cash card transfer"`
	CreditApplied decimal.Decimal   `json:"credit_applied"`
	Note          string            `json:"note" binding:"max=1000"`
}

// SaleFilterRequest represents sale list filters
type SaleFilterRequest struct {
	ClientID  string `form:"client_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}

// CreatePaymentRequest represents a payment against an existing sale
type CreatePaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" binding:"omitempty,oneof=cash card transfer overpayment"`
	Note   string          `json:"note" binding:"max=1000"`
}

// ReturnItemRequest is one returned sale line
type ReturnItemRequest struct {
	SaleItemID uuid.UUID `json:"sale_item_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
}

// CreateReturnRequest represents goods brought back against a sale
type CreateReturnRequest struct {
	Items  []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	Reason string              `json:"reason" binding:"max=1000"`
}
