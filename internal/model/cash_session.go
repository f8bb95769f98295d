package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cash session status values. CLOSED is terminal.
const (
	CashOpen   = "OPEN"
	CashClosed = "CLOSED"
)

// Cash movement types.
const (
	MovementDeposit    = "DEPOSIT"
	MovementWithdrawal = "WITHDRAWAL"
)

// CashSession is one register-open-to-close period. At most one OPEN session
// exists per store, enforced by a partial unique index.
type CashSession struct {
	ID                     uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID                uuid.UUID        `gorm:"type:uuid;not null;index"`
	Status                 string           `gorm:"type:varchar(10);not null;default:'OPEN'"`
	OpeningBalance         decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	OpenedAt               time.Time        `gorm:"not null"`
	OpenedBy               uuid.UUID        `gorm:"type:uuid;not null"`
	ClosedAt               *time.Time
	ClosedBy               *uuid.UUID       `gorm:"type:uuid"`
	ClosingBalanceActual   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ClosingBalanceExpected *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference             *decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalDeposits          decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	TotalWithdrawals       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	ReportPath             *string

	Totals []CashSessionTotal `gorm:"foreignKey:SessionID"`
}

func (s *CashSession) SetStoreID(id uuid.UUID) { s.StoreID = id }

// CashSessionTotal is the per payment method snapshot persisted on close.
type CashSessionTotal struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID       `gorm:"type:uuid;not null"`
	SessionID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PaymentMethod string          `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Count         int             `gorm:"not null"`
}

func (t *CashSessionTotal) SetStoreID(id uuid.UUID) { t.StoreID = id }

// CashMovement is a manual deposit or withdrawal. Movements are never
// modified or deleted.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID       `gorm:"type:uuid;not null"`
	SessionID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(12);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string
	CreatedBy   uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
}

func (m *CashMovement) SetStoreID(id uuid.UUID) { m.StoreID = id }
