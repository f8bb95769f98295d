package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Return reverses (part of) a prior sale.
type Return struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	OriginalSaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalRefundAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	RefundMethod      string          `gorm:"not null"`
	Reason            *string
	StoreCreditID     *uuid.UUID `gorm:"type:uuid"`
	CreatedBy         uuid.UUID  `gorm:"type:uuid"`
	CreatedAt         time.Time

	Items []ReturnItem `gorm:"foreignKey:ReturnID"`
}

func (r *Return) SetStoreID(id uuid.UUID) { r.StoreID = id }

type ReturnItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ReturnID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	ColorSlug string    `gorm:"not null"`
	Number    string    `gorm:"not null"`
	Quantity  int       `gorm:"not null"`
}

func (i ReturnItem) SKU() SKU {
	return SKU{ProductID: i.ProductID, ColorSlug: i.ColorSlug, Number: i.Number}
}

// StoreCredit is a redeemable balance issued from a return.
type StoreCredit struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID    uuid.UUID       `gorm:"type:uuid;not null"`
	Code       string          `gorm:"not null"`
	CustomerID *uuid.UUID      `gorm:"type:uuid"`
	ReturnID   *uuid.UUID      `gorm:"type:uuid"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Balance    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	IsActive   bool            `gorm:"not null;default:true"`
	CreatedAt  time.Time
}

func (c *StoreCredit) SetStoreID(id uuid.UUID) { c.StoreID = id }
