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

// PaymentTotal is the sum of final amounts and the sale count for one
// payment method.
type PaymentTotal struct {
	PaymentMethod string
	Total         decimal.Decimal
	Count         int
}

// FiscalUpdate carries the fiscal fields written after commit.
type FiscalUpdate struct {
	Status          string
	PDFURL          *string
	XMLURL          *string
	RejectionReason *string
}

type SaleRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	FindByClientRequestID(ctx context.Context, key string) (*model.Sale, error)
	// TotalsByPaymentMethod aggregates sales created within [from, to].
	TotalsByPaymentMethod(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]PaymentTotal, error)
	UpdateFiscal(ctx context.Context, id uuid.UUID, upd FiscalUpdate) error
	SetLoyaltyPoints(ctx context.Context, tx *gorm.DB, id uuid.UUID, points int) error
}

type saleRepo struct{ gate *Gate }

func NewSaleRepository(g *Gate) SaleRepository { return &saleRepo{gate: g} }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return err
	}
	if err := col.InsertOne(ctx, tx, s); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.Conflict("venda já registrada para esta requisição", err)
		}
		return err
	}
	return nil
}

func (r *saleRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return nil, err
	}
	var s model.Sale
	if err := col.FindOne(ctx, tx, ByID(id), &s, Preload("Items")); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("venda não encontrada", err)
		}
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) FindByClientRequestID(ctx context.Context, key string) (*model.Sale, error) {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return nil, err
	}
	var s model.Sale
	if err := col.FindOne(ctx, nil, By("client_request_id", key), &s, Preload("Items")); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *saleRepo) TotalsByPaymentMethod(ctx context.Context, tx *gorm.DB, from, to time.Time) ([]PaymentTotal, error) {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return nil, err
	}
	var totals []PaymentTotal
	f := Filter{}.Expr("sales.created_at >= ? AND sales.created_at <= ?", from, to)
	err = col.Aggregate(ctx, tx, f, func(q *gorm.DB) *gorm.DB {
		return q.Select("payment_method, COALESCE(SUM(final_amount), 0) AS total, COUNT(*) AS count").
			Group("payment_method").
			Order("payment_method")
	}, &totals)
	return totals, err
}

func (r *saleRepo) UpdateFiscal(ctx context.Context, id uuid.UUID, upd FiscalUpdate) error {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return err
	}
	updates := map[string]any{"nfce_status": upd.Status}
	if upd.PDFURL != nil {
		updates["nfce_pdf_url"] = *upd.PDFURL
	}
	if upd.XMLURL != nil {
		updates["nfce_xml_url"] = *upd.XMLURL
	}
	if upd.RejectionReason != nil {
		updates["nfce_rejection_reason"] = *upd.RejectionReason
	}
	n, err := col.UpdateOne(ctx, nil, ByID(id), updates)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("venda não encontrada")
	}
	return nil
}

func (r *saleRepo) SetLoyaltyPoints(ctx context.Context, tx *gorm.DB, id uuid.UUID, points int) error {
	col, err := r.gate.Collection(CollSales)
	if err != nil {
		return err
	}
	_, err = col.UpdateOne(ctx, tx, ByID(id), map[string]any{"loyalty_points": points})
	return err
}
