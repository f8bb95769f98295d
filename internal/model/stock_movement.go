package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons.
const (
	StockReasonSale     = "venda"
	StockReasonReturn   = "devolucao"
	StockReasonReceipt  = "recebimento"
	StockReasonAdjust   = "ajuste"
	StockReasonDunEntry = "dun"
)

// StockMovement records every applied stock delta.
type StockMovement struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	ColorSlug   string     `gorm:"not null"`
	Number      string     `gorm:"not null"`
	Delta       int        `gorm:"not null"` // positive = entrada, negative = saida
	Reason      string     `gorm:"not null"`
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (m *StockMovement) SetStoreID(id uuid.UUID) { m.StoreID = id }
