package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StoreScoped is implemented by every document that lives in a tenant
// collection. The data access gate stamps the caller's store on insert.
type StoreScoped interface {
	SetStoreID(id uuid.UUID)
}

// Store is the tenant root. It lives in a global collection.
type Store struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string          `gorm:"not null"`
	FiscalEnabled        bool            `gorm:"not null;default:false"`
	CNPJ                 *string         `gorm:"column:cnpj"`
	InscricaoEstadual    *string
	RazaoSocial          *string
	LoyaltyEnabled       bool            `gorm:"not null;default:false"`
	LoyaltyPointsPerUnit decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	MonthlySalesGoal     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FiscalConfigured reports whether the store can emit fiscal receipts.
func (s *Store) FiscalConfigured() bool {
	return s.FiscalEnabled &&
		s.CNPJ != nil && strings.TrimSpace(*s.CNPJ) != "" &&
		s.RazaoSocial != nil && strings.TrimSpace(*s.RazaoSocial) != ""
}
