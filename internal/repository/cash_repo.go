package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementTotal is the sum and count of one cash movement type.
type MovementTotal struct {
	Type  string
	Total decimal.Decimal
	Count int
}

// CashClosing holds the values written by the guarded close.
type CashClosing struct {
	ClosedAt         time.Time
	ClosedBy         uuid.UUID
	Actual           decimal.Decimal
	Expected         decimal.Decimal
	Difference       decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
}

type CashRepository interface {
	CreateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error
	FindOpen(ctx context.Context, tx *gorm.DB) (*model.CashSession, error)
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	// MovementTotals aggregates the movements of a session created up to upTo.
	MovementTotals(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, upTo time.Time) ([]MovementTotal, error)
	// Close transitions an OPEN session to CLOSED. It returns
	// apierror.ErrNoOpenSession when the session is no longer OPEN.
	Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, c CashClosing) (*model.CashSession, error)
	SaveTotals(ctx context.Context, tx *gorm.DB, totals []model.CashSessionTotal) error
	SetReportPath(ctx context.Context, id uuid.UUID, path string) error
}

type cashRepo struct{ gate *Gate }

func NewCashRepository(g *Gate) CashRepository { return &cashRepo{gate: g} }

func (r *cashRepo) CreateSession(ctx context.Context, tx *gorm.DB, s *model.CashSession) error {
	col, err := r.gate.Collection(CollCashSessions)
	if err != nil {
		return err
	}
	if err := col.InsertOne(ctx, tx, s); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.ErrSessionAlreadyOpen
		}
		return err
	}
	return nil
}

func (r *cashRepo) FindOpen(ctx context.Context, tx *gorm.DB) (*model.CashSession, error) {
	col, err := r.gate.Collection(CollCashSessions)
	if err != nil {
		return nil, err
	}
	var s model.CashSession
	if err := col.FindOne(ctx, tx, By("status", model.CashOpen), &s); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.ErrNoOpenSession
		}
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	col, err := r.gate.Collection(CollCashSessions)
	if err != nil {
		return nil, err
	}
	var s model.CashSession
	if err := col.FindOne(ctx, tx, ByID(id), &s, Preload("Totals")); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cashRepo) CreateMovement(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	col, err := r.gate.Collection(CollCashMovements)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, m)
}

func (r *cashRepo) MovementTotals(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, upTo time.Time) ([]MovementTotal, error) {
	col, err := r.gate.Collection(CollCashMovements)
	if err != nil {
		return nil, err
	}
	var totals []MovementTotal
	f := By("session_id", sessionID).Expr("cash_movements.created_at <= ?", upTo)
	err = col.Aggregate(ctx, tx, f, func(q *gorm.DB) *gorm.DB {
		return q.Select("type, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").Group("type")
	}, &totals)
	return totals, err
}

func (r *cashRepo) Close(ctx context.Context, tx *gorm.DB, id uuid.UUID, c CashClosing) (*model.CashSession, error) {
	col, err := r.gate.Collection(CollCashSessions)
	if err != nil {
		return nil, err
	}
	var s model.CashSession
	ok, err := col.FindOneAndUpdate(ctx, tx, ByID(id).Eq("status", model.CashOpen), map[string]any{
		"status":                   model.CashClosed,
		"closed_at":                c.ClosedAt,
		"closed_by":                c.ClosedBy,
		"closing_balance_actual":   c.Actual,
		"closing_balance_expected": c.Expected,
		"difference":               c.Difference,
		"total_deposits":           c.TotalDeposits,
		"total_withdrawals":        c.TotalWithdrawals,
	}, &s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.ErrNoOpenSession
	}
	return &s, nil
}

func (r *cashRepo) SaveTotals(ctx context.Context, tx *gorm.DB, totals []model.CashSessionTotal) error {
	col, err := r.gate.Collection(CollCashSessionTotals)
	if err != nil {
		return err
	}
	for i := range totals {
		if err := col.InsertOne(ctx, tx, &totals[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *cashRepo) SetReportPath(ctx context.Context, id uuid.UUID, path string) error {
	col, err := r.gate.Collection(CollCashSessions)
	if err != nil {
		return err
	}
	_, err = col.UpdateOne(ctx, nil, ByID(id), map[string]any{"report_path": path})
	return err
}
