package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a store-bound account. Users live in a global collection because
// login happens before a store is known.
// Role: "ADMIN" | "SELLER"
type User struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name           string          `gorm:"not null"`
	Email          string          `gorm:"uniqueIndex;not null"`
	PasswordHash   string          `gorm:"not null"`
	Role           string          `gorm:"type:varchar(20);not null"`
	ManagerPinHash *string
	MonthlyGoal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Active         bool            `gorm:"not null;default:true"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
