package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CashMovementRequest struct {
	Type        string          `validate:"required,oneof=DEPOSIT WITHDRAWAL"`
	Amount      decimal.Decimal `validate:"gt=0"`
	Description string          `validate:"max=255"`
}

type PaymentMethodTotal struct {
	PaymentMethod string
	Total         decimal.Decimal
	Count         int
}

// CashSummary is the reconciliation of the open session for [OpenedAt, AsOf].
type CashSummary struct {
	SessionID           string
	OpeningBalance      decimal.Decimal
	OpenedAt            time.Time
	AsOf                time.Time
	SalesByPayment      []PaymentMethodTotal
	CashSales           decimal.Decimal
	TotalDeposits       decimal.Decimal
	TotalWithdrawals    decimal.Decimal
	ExpectedCashBalance decimal.Decimal
}
