package dto

import "github.com/shopspring/decimal"

type ProductItemRequest struct {
	Number  string  `validate:"required,max=10"`
	Amount  int     `validate:"min=0"`
	BarCode *string `validate:"omitempty,numeric,min=8,max=14"`
}

type ProductVariantRequest struct {
	Color string               `validate:"required,max=60"`
	Items []ProductItemRequest `validate:"required,min=1,dive"`
}

type CreateProductRequest struct {
	Brand         string                  `validate:"required,max=100"`
	Model         string                  `validate:"required,max=100"`
	PurchasePrice decimal.Decimal         `validate:"min=0"`
	SalePrice     decimal.Decimal         `validate:"gt=0"`
	Variants      []ProductVariantRequest `validate:"required,min=1,dive"`
}

type AdjustStockRequest struct {
	ProductID string `validate:"required,uuid"`
	ColorSlug string `validate:"required"`
	Number    string `validate:"required"`
	Delta     int    `validate:"required"`
}

type DunResult struct {
	UpdatedCount int
	NotFoundEANs []string
}

type LowStockItem struct {
	ProductID string
	Brand     string
	Model     string
	ColorSlug string
	Number    string
	Amount    int
}
