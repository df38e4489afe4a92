package request

import "github.com/shopspring/decimal"

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name            string          `json:"name" binding:"required,min=2,max=255"`
	Code            string          `json:"code" binding:"omitempty,max=100"`
	Price           decimal.Decimal `json:"price"`
	InitialQuantity int             `json:"initial_quantity" binding:"min=0"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search  string `form:"search"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

// CreateClientRequest represents a client registration request
type CreateClientRequest struct {
	Name    string  `json:"name" binding:"required,min=2,max=255"`
	Phone   *string `json:"phone" binding:"omitempty,max=50"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Address *string `json:"address"`
}
