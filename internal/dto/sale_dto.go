package dto

import "github.com/shopspring/decimal"

type SaleItemRequest struct {
	ProductID   string          `validate:"required,uuid"`
	ColorSlug   string          `validate:"required"`
	Number      string          `validate:"required"`
	Quantity    int             `validate:"required,min=1"`
	PriceAtSale decimal.Decimal `validate:"min=0"`
	CostAtSale  decimal.Decimal `validate:"min=0"`
}

type CreateSaleRequest struct {
	Items         []SaleItemRequest `validate:"required,min=1,dive"`
	PaymentMethod string            `validate:"required,max=40"`
	CustomerID    *string           `validate:"omitempty,uuid"`
	Discount      decimal.Decimal   `validate:"min=0"`
	TotalAmount   decimal.Decimal   `validate:"min=0"`
	FinalAmount   decimal.Decimal   `validate:"min=0"`
	// StoreCreditCode is required when the payment method is "Vale".
	StoreCreditCode *string `validate:"omitempty,max=40"`
	// ClientRequestID makes retries of the same checkout idempotent.
	ClientRequestID *string `validate:"omitempty,max=64"`
}

type ReturnItemRequest struct {
	ProductID string `validate:"required,uuid"`
	ColorSlug string `validate:"required"`
	Number    string `validate:"required"`
	Quantity  int    `validate:"required,min=1"`
}

type CreateReturnRequest struct {
	OriginalSaleID    string              `validate:"required,uuid"`
	Items             []ReturnItemRequest `validate:"required,min=1,dive"`
	TotalRefundAmount decimal.Decimal     `validate:"min=0"`
	RefundMethod      string              `validate:"required,max=40"`
	Reason            *string             `validate:"omitempty,max=255"`
}
