package dto

import "github.com/shopspring/decimal"

type UpdateStoreSettingsRequest struct {
	Name                 *string          `validate:"omitempty,min=2,max=100"`
	FiscalEnabled        *bool            `validate:"-"`
	CNPJ                 *string          `validate:"omitempty,numeric,len=14"`
	InscricaoEstadual    *string          `validate:"omitempty,max=20"`
	RazaoSocial          *string          `validate:"omitempty,max=150"`
	LoyaltyEnabled       *bool            `validate:"-"`
	LoyaltyPointsPerUnit *decimal.Decimal `validate:"omitempty"`
	MonthlySalesGoal     *decimal.Decimal `validate:"omitempty"`
}

type CreateCustomerRequest struct {
	Name  string  `validate:"required,min=2,max=100"`
	Phone *string `validate:"omitempty,max=20"`
	Email *string `validate:"omitempty,email"`
}

type CreateSupplierRequest struct {
	Name  string  `validate:"required,min=2,max=100"`
	CNPJ  *string `validate:"omitempty,numeric,len=14"`
	Phone *string `validate:"omitempty,max=20"`
	Email *string `validate:"omitempty,email"`
}

type PurchaseOrderItemRequest struct {
	ProductID string          `validate:"required,uuid"`
	ColorSlug string          `validate:"required"`
	Number    string          `validate:"required"`
	Quantity  int             `validate:"required,min=1"`
	CostPrice decimal.Decimal `validate:"min=0"`
}

type CreatePurchaseOrderRequest struct {
	SupplierID string                     `validate:"required,uuid"`
	Items      []PurchaseOrderItemRequest `validate:"required,min=1,dive"`
}
