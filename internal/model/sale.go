package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods with special handling. Other methods are free text.
const (
	PaymentCash        = "Dinheiro"
	PaymentStoreCredit = "Vale"
)

// Fiscal receipt statuses.
const (
	NFCeNotIssued   = "nao_emitida"
	NFCePending     = "pendente"
	NFCeProcessing  = "processando"
	NFCeAuthorized  = "autorizada"
	NFCeRejected    = "rejeitada"
	NFCeSendError   = "erro_envio"
	NFCeStatusError = "erro_consulta"
)

// Sale is immutable once committed, except for the fiscal and loyalty fields
// written by post-commit steps.
type Sale struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	UserID              uuid.UUID       `gorm:"type:uuid;not null"`
	CustomerID          *uuid.UUID      `gorm:"type:uuid"`
	ClientRequestID     *string         `gorm:"type:varchar(64)"`
	TotalAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount            decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	FinalAmount         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod       string          `gorm:"not null"`
	NFCeStatus          string          `gorm:"column:nfce_status;not null;default:'nao_emitida'"`
	NFCePDFURL          *string         `gorm:"column:nfce_pdf_url"`
	NFCeXMLURL          *string         `gorm:"column:nfce_xml_url"`
	NFCeRejectionReason *string         `gorm:"column:nfce_rejection_reason"`
	LoyaltyPoints       int             `gorm:"not null;default:0"`
	CreatedAt           time.Time

	Items []SaleItem `gorm:"foreignKey:SaleID"`
}

func (s *Sale) SetStoreID(id uuid.UUID) { s.StoreID = id }

// SaleItem is one sold line. Prices are captured at sale time.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ColorSlug   string          `gorm:"not null"`
	Number      string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostAtSale  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

func (i SaleItem) SKU() SKU {
	return SKU{ProductID: i.ProductID, ColorSlug: i.ColorSlug, Number: i.Number}
}
