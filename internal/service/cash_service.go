package service

import (
	"context"
	"errors"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/infra"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashService interface {
	Open(ctx context.Context, openingBalance decimal.Decimal) (*model.CashSession, error)
	RecordMovement(ctx context.Context, req dto.CashMovementRequest) (*model.CashMovement, error)
	// Summarize reconciles the open session over [openedAt, asOf]. It never
	// writes.
	Summarize(ctx context.Context, asOf time.Time) (*dto.CashSummary, error)
	Close(ctx context.Context, actualBalance decimal.Decimal) (*model.CashSession, error)
	// Active returns the open session, or nil when the register is closed.
	Active(ctx context.Context) (*model.CashSession, error)
}

type cashService struct {
	repos      repository.Factory
	uow        repository.UnitOfWork
	reportPath string
	now        func() time.Time
}

// NewCashService builds the register service. An empty reportPath disables
// the closing report.
func NewCashService(repos repository.Factory, uow repository.UnitOfWork, reportPath string) CashService {
	return &cashService{repos: repos, uow: uow, reportPath: reportPath, now: time.Now}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *cashService) Open(ctx context.Context, openingBalance decimal.Decimal) (*model.CashSession, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if openingBalance.IsNegative() {
		return nil, apierror.Validation("saldo inicial não pode ser negativo", map[string]string{"openingBalance": "min"})
	}

	session := &model.CashSession{
		Status:           model.CashOpen,
		OpeningBalance:   openingBalance,
		OpenedAt:         s.now(),
		OpenedBy:         p.UserID,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		if _, err := repos.Cash.FindOpen(ctx, tx); err == nil {
			return apierror.ErrSessionAlreadyOpen
		} else if !errors.Is(err, apierror.ErrNoOpenSession) {
			return err
		}
		// Concurrent opens that both pass the check above are serialized by
		// the one-open-session index.
		return repos.Cash.CreateSession(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", session.ID.String()).Str("store_id", p.StoreID.String()).Msg("caixa aberto")
	return session, nil
}

// ── RecordMovement ────────────────────────────────────────────────────────────
// Movements are immutable: no update or delete exists.

func (s *cashService) RecordMovement(ctx context.Context, req dto.CashMovementRequest) (*model.CashMovement, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	var mov *model.CashMovement
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		open, err := repos.Cash.FindOpen(ctx, tx)
		if err != nil {
			return err
		}
		mov = &model.CashMovement{
			SessionID:   open.ID,
			Type:        req.Type,
			Amount:      req.Amount,
			Description: req.Description,
			CreatedBy:   p.UserID,
			CreatedAt:   s.now(),
		}
		return repos.Cash.CreateMovement(ctx, tx, mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// ── Summarize ─────────────────────────────────────────────────────────────────

func (s *cashService) Summarize(ctx context.Context, asOf time.Time) (*dto.CashSummary, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	repos := s.repos.For(ctx)
	open, err := repos.Cash.FindOpen(ctx, nil)
	if err != nil {
		return nil, err
	}
	return summarize(ctx, nil, repos, open, asOf)
}

// summarize computes expected = opening + cash sales + deposits - withdrawals
// for the session window ending at asOf.
func summarize(ctx context.Context, tx *gorm.DB, repos *repository.Set, session *model.CashSession, asOf time.Time) (*dto.CashSummary, error) {
	sales, err := repos.Sales.TotalsByPaymentMethod(ctx, tx, session.OpenedAt, asOf)
	if err != nil {
		return nil, apierror.Infrastructure("falha ao totalizar vendas do caixa", err)
	}
	movs, err := repos.Cash.MovementTotals(ctx, tx, session.ID, asOf)
	if err != nil {
		return nil, apierror.Infrastructure("falha ao totalizar movimentos do caixa", err)
	}

	sum := &dto.CashSummary{
		SessionID:        session.ID.String(),
		OpeningBalance:   session.OpeningBalance,
		OpenedAt:         session.OpenedAt,
		AsOf:             asOf,
		SalesByPayment:   make([]dto.PaymentMethodTotal, 0, len(sales)),
		CashSales:        decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
	}
	for _, t := range sales {
		sum.SalesByPayment = append(sum.SalesByPayment, dto.PaymentMethodTotal{
			PaymentMethod: t.PaymentMethod, Total: t.Total, Count: t.Count,
		})
		if t.PaymentMethod == model.PaymentCash {
			sum.CashSales = sum.CashSales.Add(t.Total)
		}
	}
	for _, m := range movs {
		switch m.Type {
		case model.MovementDeposit:
			sum.TotalDeposits = sum.TotalDeposits.Add(m.Total)
		case model.MovementWithdrawal:
			sum.TotalWithdrawals = sum.TotalWithdrawals.Add(m.Total)
		}
	}
	sum.ExpectedCashBalance = session.OpeningBalance.
		Add(sum.CashSales).
		Add(sum.TotalDeposits).
		Sub(sum.TotalWithdrawals)
	return sum, nil
}

// ── Close ─────────────────────────────────────────────────────────────────────

func (s *cashService) Close(ctx context.Context, actualBalance decimal.Decimal) (*model.CashSession, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if actualBalance.IsNegative() {
		return nil, apierror.Validation("saldo contado não pode ser negativo", map[string]string{"actualBalance": "min"})
	}

	var closed *model.CashSession
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		open, err := repos.Cash.FindOpen(ctx, tx)
		if err != nil {
			return err
		}
		now := s.now()
		sum, err := summarize(ctx, tx, repos, open, now)
		if err != nil {
			return err
		}

		closed, err = repos.Cash.Close(ctx, tx, open.ID, repository.CashClosing{
			ClosedAt:         now,
			ClosedBy:         p.UserID,
			Actual:           actualBalance,
			Expected:         sum.ExpectedCashBalance,
			Difference:       actualBalance.Sub(sum.ExpectedCashBalance),
			TotalDeposits:    sum.TotalDeposits,
			TotalWithdrawals: sum.TotalWithdrawals,
		})
		if err != nil {
			return err
		}

		totals := make([]model.CashSessionTotal, len(sum.SalesByPayment))
		for i, t := range sum.SalesByPayment {
			totals[i] = model.CashSessionTotal{
				SessionID:     closed.ID,
				PaymentMethod: t.PaymentMethod,
				Total:         t.Total,
				Count:         t.Count,
			}
		}
		if err := repos.Cash.SaveTotals(ctx, tx, totals); err != nil {
			return err
		}
		closed.Totals = totals
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", closed.ID.String()).
		Str("expected", closed.ClosingBalanceExpected.String()).
		Str("actual", actualBalance.String()).
		Msg("caixa fechado")

	s.writeReport(ctx, closed)
	return closed, nil
}

// writeReport renders the closing PDF. The session is already committed, so
// failures are only logged.
func (s *cashService) writeReport(ctx context.Context, closed *model.CashSession) {
	if s.reportPath == "" {
		return
	}
	repos := s.repos.For(ctx)
	storeName := ""
	if store, err := repos.Stores.FindByID(ctx, closed.StoreID); err == nil {
		storeName = store.Name
	}
	path, err := infra.GenerateCashReportPDF(storeName, closed, s.reportPath)
	if err != nil {
		log.Error().Err(err).Str("session_id", closed.ID.String()).Msg("falha ao gerar relatório de fechamento")
		return
	}
	if err := repos.Cash.SetReportPath(ctx, closed.ID, path); err != nil {
		log.Error().Err(err).Str("session_id", closed.ID.String()).Msg("falha ao registrar relatório de fechamento")
		return
	}
	closed.ReportPath = &path
}

// ── Active ────────────────────────────────────────────────────────────────────

func (s *cashService) Active(ctx context.Context) (*model.CashSession, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	open, err := s.repos.For(ctx).Cash.FindOpen(ctx, nil)
	if errors.Is(err, apierror.ErrNoOpenSession) {
		return nil, nil
	}
	return open, err
}
