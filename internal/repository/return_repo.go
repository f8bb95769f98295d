package repository

import (
	"context"
	"errors"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, tx *gorm.DB, r *model.Return) error
	ListBySale(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]model.Return, error)
}

type returnRepo struct{ gate *Gate }

func NewReturnRepository(g *Gate) ReturnRepository { return &returnRepo{gate: g} }

func (r *returnRepo) Create(ctx context.Context, tx *gorm.DB, ret *model.Return) error {
	col, err := r.gate.Collection(CollReturns)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, ret)
}

func (r *returnRepo) ListBySale(ctx context.Context, tx *gorm.DB, saleID uuid.UUID) ([]model.Return, error) {
	col, err := r.gate.Collection(CollReturns)
	if err != nil {
		return nil, err
	}
	var out []model.Return
	if err := col.Find(ctx, tx, By("original_sale_id", saleID), &out, Preload("Items")); err != nil {
		return nil, err
	}
	return out, nil
}

type StoreCreditRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.StoreCredit) error
	FindByCode(ctx context.Context, code string) (*model.StoreCredit, error)
	// Redeem debits amount from an active credit holding at least amount.
	// It reports whether a credit matched.
	Redeem(ctx context.Context, tx *gorm.DB, code string, amount decimal.Decimal) (bool, error)
}

type storeCreditRepo struct{ gate *Gate }

func NewStoreCreditRepository(g *Gate) StoreCreditRepository { return &storeCreditRepo{gate: g} }

func (r *storeCreditRepo) Create(ctx context.Context, tx *gorm.DB, c *model.StoreCredit) error {
	col, err := r.gate.Collection(CollStoreCredits)
	if err != nil {
		return err
	}
	if err := col.InsertOne(ctx, tx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.Conflict("código de vale já utilizado", err)
		}
		return err
	}
	return nil
}

func (r *storeCreditRepo) FindByCode(ctx context.Context, code string) (*model.StoreCredit, error) {
	col, err := r.gate.Collection(CollStoreCredits)
	if err != nil {
		return nil, err
	}
	var c model.StoreCredit
	if err := col.FindOne(ctx, nil, Filter{}.Text("code", code), &c); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("vale não encontrado", err)
		}
		return nil, err
	}
	return &c, nil
}

func (r *storeCreditRepo) Redeem(ctx context.Context, tx *gorm.DB, code string, amount decimal.Decimal) (bool, error) {
	col, err := r.gate.Collection(CollStoreCredits)
	if err != nil {
		return false, err
	}
	f := Filter{}.Text("code", code).Eq("is_active", true).Expr("balance >= ?", amount)
	n, err := col.UpdateOne(ctx, tx, f, map[string]any{"balance": gorm.Expr("balance - ?", amount)})
	return n > 0, err
}
