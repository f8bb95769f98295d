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

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByName(ctx context.Context, name string) (*model.Supplier, error)
	List(ctx context.Context) ([]model.Supplier, error)
}

type supplierRepo struct{ gate *Gate }

func NewSupplierRepository(g *Gate) SupplierRepository { return &supplierRepo{gate: g} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	col, err := r.gate.Collection(CollSuppliers)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, nil, s)
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	col, err := r.gate.Collection(CollSuppliers)
	if err != nil {
		return nil, err
	}
	var s model.Supplier
	if err := col.FindOne(ctx, nil, ByID(id), &s); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("fornecedor não encontrado", err)
		}
		return nil, err
	}
	return &s, nil
}

// FindByName matches the name with the store collation, so "jose" finds
// "JOSE" but not "José".
func (r *supplierRepo) FindByName(ctx context.Context, name string) (*model.Supplier, error) {
	col, err := r.gate.Collection(CollSuppliers)
	if err != nil {
		return nil, err
	}
	var s model.Supplier
	if err := col.FindOne(ctx, nil, Filter{}.Text("name", name), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplierRepo) List(ctx context.Context) ([]model.Supplier, error) {
	col, err := r.gate.Collection(CollSuppliers)
	if err != nil {
		return nil, err
	}
	var out []model.Supplier
	err = col.Find(ctx, nil, Filter{}, &out, OrderBy("name ASC"))
	return out, err
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, o *model.PurchaseOrder) error
	List(ctx context.Context, status *string) ([]model.PurchaseOrder, error)
	// FindPendingForUpdate locks a PENDENTE order for the rest of tx. It
	// returns apierror.ErrOrderNotPending when the order is missing or
	// already received.
	FindPendingForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	MarkReceived(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error
}

type purchaseOrderRepo struct{ gate *Gate }

func NewPurchaseOrderRepository(g *Gate) PurchaseOrderRepository {
	return &purchaseOrderRepo{gate: g}
}

func (r *purchaseOrderRepo) Create(ctx context.Context, tx *gorm.DB, o *model.PurchaseOrder) error {
	col, err := r.gate.Collection(CollPurchaseOrders)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, o)
}

func (r *purchaseOrderRepo) List(ctx context.Context, status *string) ([]model.PurchaseOrder, error) {
	col, err := r.gate.Collection(CollPurchaseOrders)
	if err != nil {
		return nil, err
	}
	f := Filter{}
	if status != nil {
		f = f.Eq("status", *status)
	}
	var out []model.PurchaseOrder
	err = col.Find(ctx, nil, f, &out, Preload("Items"), OrderBy("created_at DESC"))
	return out, err
}

func (r *purchaseOrderRepo) FindPendingForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	col, err := r.gate.Collection(CollPurchaseOrders)
	if err != nil {
		return nil, err
	}
	var o model.PurchaseOrder
	err = col.FindOne(ctx, tx, ByID(id).Eq("status", model.OrderPending), &o, ForUpdate(), Preload("Items"))
	if err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.ErrOrderNotPending
		}
		return nil, err
	}
	return &o, nil
}

func (r *purchaseOrderRepo) MarkReceived(ctx context.Context, tx *gorm.DB, id uuid.UUID, at time.Time) error {
	col, err := r.gate.Collection(CollPurchaseOrders)
	if err != nil {
		return err
	}
	n, err := col.UpdateOne(ctx, tx, ByID(id).Eq("status", model.OrderPending), map[string]any{
		"status":      model.OrderReceived,
		"received_at": at,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.ErrOrderNotPending
	}
	return nil
}
