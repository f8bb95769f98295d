package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	CNPJ      *string   `gorm:"column:cnpj"`
	Phone     *string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *Supplier) SetStoreID(id uuid.UUID) { s.StoreID = id }

// Purchase order status values.
const (
	OrderPending  = "PENDENTE"
	OrderReceived = "RECEBIDO"
)

// PurchaseOrder is a supplier restock request. Only a PENDENTE order can be
// received.
type PurchaseOrder struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null"`
	Status     string          `gorm:"type:varchar(10);not null;default:'PENDENTE'"`
	TotalCost  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
	ReceivedAt *time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

func (o *PurchaseOrder) SetStoreID(id uuid.UUID) { o.StoreID = id }

type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	ColorSlug       string          `gorm:"not null"`
	Number          string          `gorm:"not null"`
	Quantity        int             `gorm:"not null"`
	CostPrice       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i PurchaseOrderItem) SKU() SKU {
	return SKU{ProductID: i.ProductID, ColorSlug: i.ColorSlug, Number: i.Number}
}
