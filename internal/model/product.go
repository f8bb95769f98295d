package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock lives on ProductItem, one row per
// (product, color, size) cell.
type Product struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID                uuid.UUID       `gorm:"type:uuid;not null;index"`
	Brand                  string          `gorm:"not null"`
	Model                  string          `gorm:"not null"`
	PurchasePrice          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice              decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	LowStockAcknowledgedAt *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// SetStoreID stamps the store on the product and on every owned item.
func (p *Product) SetStoreID(id uuid.UUID) {
	p.StoreID = id
	for i := range p.Variants {
		for j := range p.Variants[i].Items {
			p.Variants[i].Items[j].StoreID = id
		}
	}
}

// ProductVariant groups the sizes of one color.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Color     string    `gorm:"not null"`
	ColorSlug string    `gorm:"not null"`

	Items []ProductItem `gorm:"foreignKey:VariantID"`
}

// ProductItem is one SKU cell. Amount is never negative.
type ProductItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	VariantID uuid.UUID `gorm:"type:uuid;not null"`
	ColorSlug string    `gorm:"not null"`
	Number    string    `gorm:"not null"`
	Amount    int       `gorm:"not null;default:0"`
	BarCode   *string
}

// SKU identifies a stock cell.
type SKU struct {
	ProductID uuid.UUID
	ColorSlug string
	Number    string
}

func (s SKU) String() string {
	return s.ProductID.String() + "/" + s.ColorSlug + "/" + s.Number
}

// StockDelta is a signed quantity change applied to one SKU.
type StockDelta struct {
	SKU   SKU
	Delta int
}
