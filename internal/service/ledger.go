package service

import (
	"context"
	"fmt"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger applies signed stock deltas at SKU granularity. Callers pass the
// transaction handle of their unit of work.
type Ledger interface {
	AdjustStock(ctx context.Context, tx *gorm.DB, d model.StockDelta, reason string, ref *uuid.UUID) error
	// AdjustStockBatch applies every delta in order or none. Repeated SKUs
	// are applied one after the other, each against the current amount.
	AdjustStockBatch(ctx context.Context, tx *gorm.DB, deltas []model.StockDelta, reason string, ref *uuid.UUID) error
}

type ledger struct {
	repos repository.Factory
}

func NewLedger(repos repository.Factory) Ledger {
	return &ledger{repos: repos}
}

func (l *ledger) AdjustStock(ctx context.Context, tx *gorm.DB, d model.StockDelta, reason string, ref *uuid.UUID) error {
	return l.AdjustStockBatch(ctx, tx, []model.StockDelta{d}, reason, ref)
}

func (l *ledger) AdjustStockBatch(ctx context.Context, tx *gorm.DB, deltas []model.StockDelta, reason string, ref *uuid.UUID) error {
	if len(deltas) == 0 {
		return nil
	}
	for _, d := range deltas {
		if d.Delta == 0 {
			return apierror.Validation(fmt.Sprintf("quantidade inválida para %s", describeSKU(d.SKU)), nil)
		}
	}

	repos := l.repos.For(ctx)
	idx, outcome, err := repos.Products.AdjustStockBatch(ctx, tx, deltas)
	if err != nil {
		return err
	}
	switch outcome {
	case repository.StockInsufficient:
		return apierror.Precondition(fmt.Sprintf("estoque insuficiente para %s", describeSKU(deltas[idx].SKU)))
	case repository.StockNotFound:
		return apierror.NotFound(fmt.Sprintf("item de estoque não encontrado: %s", describeSKU(deltas[idx].SKU)))
	}

	movs := make([]model.StockMovement, len(deltas))
	for i, d := range deltas {
		movs[i] = model.StockMovement{
			ProductID:   d.SKU.ProductID,
			ColorSlug:   d.SKU.ColorSlug,
			Number:      d.SKU.Number,
			Delta:       d.Delta,
			Reason:      reason,
			ReferenceID: ref,
		}
	}
	return repos.StockMovements.CreateBatch(ctx, tx, movs)
}

func describeSKU(s model.SKU) string {
	return fmt.Sprintf("produto %s (cor %s, numeração %s)", s.ProductID, s.ColorSlug, s.Number)
}
