package model

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Name          string    `gorm:"not null"`
	Phone         *string
	Email         *string
	LoyaltyPoints int `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (c *Customer) SetStoreID(id uuid.UUID) { c.StoreID = id }

// LoyaltyEntry logs every point credit.
type LoyaltyEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID    uuid.UUID `gorm:"type:uuid;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index"`
	SaleID     uuid.UUID `gorm:"type:uuid;not null"`
	Points     int       `gorm:"not null"`
	CreatedAt  time.Time
}

func (e *LoyaltyEntry) SetStoreID(id uuid.UUID) { e.StoreID = id }
