package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockOutcome is the result of a conditional stock update.
type StockOutcome int

const (
	StockApplied StockOutcome = iota
	StockInsufficient
	StockNotFound
)

func (o StockOutcome) String() string {
	switch o {
	case StockApplied:
		return "applied"
	case StockInsufficient:
		return "insufficient_stock"
	case StockNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// LowStockItem is a SKU cell at or below the low-stock threshold.
type LowStockItem struct {
	ProductID uuid.UUID
	Brand     string
	Model     string
	ColorSlug string
	Number    string
	Amount    int
}

// ProductRepository defines the data access contract for products and their
// stock cells.
type ProductRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Product) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	Search(ctx context.Context, term string, limit int) ([]model.Product, error)
	FindItem(ctx context.Context, tx *gorm.DB, sku model.SKU) (*model.ProductItem, error)
	FindItemByBarcode(ctx context.Context, tx *gorm.DB, barcode string) (*model.ProductItem, error)

	// AdjustStockBatch applies deltas in order inside tx. A negative delta
	// only applies when the cell holds at least |delta|. The batch stops at
	// the first delta that does not apply and returns its index and outcome;
	// when every delta applies it returns -1 and StockApplied.
	AdjustStockBatch(ctx context.Context, tx *gorm.DB, deltas []model.StockDelta) (int, StockOutcome, error)

	ListLowStock(ctx context.Context, threshold int) ([]LowStockItem, error)
	AcknowledgeLowStock(ctx context.Context, id uuid.UUID, at time.Time) error
}

type productRepo struct{ gate *Gate }

func NewProductRepository(g *Gate) ProductRepository { return &productRepo{gate: g} }

func skuFilter(sku model.SKU) Filter {
	return By("product_id", sku.ProductID).Eq("color_slug", sku.ColorSlug).Eq("number", sku.Number)
}

func (r *productRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Product) error {
	col, err := r.gate.Collection(CollProducts)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, p)
}

func (r *productRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	col, err := r.gate.Collection(CollProducts)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := col.FindOne(ctx, tx, ByID(id), &p, Preload("Variants.Items")); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("produto não encontrado", err)
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Search(ctx context.Context, term string, limit int) ([]model.Product, error) {
	col, err := r.gate.Collection(CollProducts)
	if err != nil {
		return nil, err
	}
	f := Filter{}
	if term != "" {
		like := "%" + term + "%"
		f = f.Expr("(brand ILIKE ? OR model ILIKE ?)", like, like)
	}
	var products []model.Product
	err = col.Find(ctx, nil, f, &products, Preload("Variants.Items"), OrderBy("brand ASC, model ASC"), Limit(limit))
	return products, err
}

func (r *productRepo) FindItem(ctx context.Context, tx *gorm.DB, sku model.SKU) (*model.ProductItem, error) {
	col, err := r.gate.Collection(CollProductItems)
	if err != nil {
		return nil, err
	}
	var item model.ProductItem
	if err := col.FindOne(ctx, tx, skuFilter(sku), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *productRepo) FindItemByBarcode(ctx context.Context, tx *gorm.DB, barcode string) (*model.ProductItem, error) {
	col, err := r.gate.Collection(CollProductItems)
	if err != nil {
		return nil, err
	}
	var item model.ProductItem
	if err := col.FindOne(ctx, tx, By("bar_code", barcode), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *productRepo) AdjustStockBatch(ctx context.Context, tx *gorm.DB, deltas []model.StockDelta) (int, StockOutcome, error) {
	col, err := r.gate.Collection(CollProductItems)
	if err != nil {
		return -1, StockApplied, err
	}

	ops := make([]WriteOp, len(deltas))
	for i, d := range deltas {
		f := skuFilter(d.SKU)
		if d.Delta < 0 {
			f = f.Expr("amount >= ?", -d.Delta)
		}
		ops[i] = WriteOp{Filter: f, Update: map[string]any{"amount": gorm.Expr("amount + ?", d.Delta)}}
	}

	res, err := col.BulkWrite(ctx, tx, ops, BulkOptions{StopOnZeroMatch: true})
	if err != nil {
		return -1, StockApplied, err
	}
	if res.StoppedAt < 0 {
		return -1, StockApplied, nil
	}

	// Zero rows modified: probe existence in the same transaction to tell a
	// missing cell from a failed precondition.
	n, err := col.Count(ctx, tx, skuFilter(deltas[res.StoppedAt].SKU))
	if err != nil {
		return res.StoppedAt, StockApplied, err
	}
	if n == 0 {
		return res.StoppedAt, StockNotFound, nil
	}
	return res.StoppedAt, StockInsufficient, nil
}

func (r *productRepo) ListLowStock(ctx context.Context, threshold int) ([]LowStockItem, error) {
	col, err := r.gate.Collection(CollProductItems)
	if err != nil {
		return nil, err
	}
	var out []LowStockItem
	f := Filter{}.Expr("product_items.amount <= ?", threshold).Expr("products.low_stock_acknowledged_at IS NULL")
	err = col.Aggregate(ctx, nil, f, func(q *gorm.DB) *gorm.DB {
		return q.Select("product_items.product_id, products.brand, products.model, product_items.color_slug, product_items.number, product_items.amount").
			Joins("JOIN products ON products.id = product_items.product_id").
			Order("product_items.amount ASC, products.brand ASC")
	}, &out)
	return out, err
}

func (r *productRepo) AcknowledgeLowStock(ctx context.Context, id uuid.UUID, at time.Time) error {
	col, err := r.gate.Collection(CollProducts)
	if err != nil {
		return err
	}
	n, err := col.UpdateOne(ctx, nil, ByID(id), map[string]any{"low_stock_acknowledged_at": at})
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("produto não encontrado")
	}
	return nil
}
