package repository

import (
	"context"
	"errors"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Customer, error)
	Search(ctx context.Context, term string, limit int) ([]model.Customer, error)
	AddLoyaltyPoints(ctx context.Context, tx *gorm.DB, id uuid.UUID, points int) error
	CreateLoyaltyEntry(ctx context.Context, tx *gorm.DB, e *model.LoyaltyEntry) error
}

type customerRepo struct{ gate *Gate }

func NewCustomerRepository(g *Gate) CustomerRepository { return &customerRepo{gate: g} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	col, err := r.gate.Collection(CollCustomers)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, nil, c)
}

func (r *customerRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Customer, error) {
	col, err := r.gate.Collection(CollCustomers)
	if err != nil {
		return nil, err
	}
	var c model.Customer
	if err := col.FindOne(ctx, tx, ByID(id), &c); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("cliente não encontrado", err)
		}
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) Search(ctx context.Context, term string, limit int) ([]model.Customer, error) {
	col, err := r.gate.Collection(CollCustomers)
	if err != nil {
		return nil, err
	}
	f := Filter{}
	if term != "" {
		like := "%" + term + "%"
		f = f.Expr("(name ILIKE ? OR phone ILIKE ? OR email ILIKE ?)", like, like, like)
	}
	var out []model.Customer
	err = col.Find(ctx, nil, f, &out, OrderBy("name ASC"), Limit(limit))
	return out, err
}

func (r *customerRepo) AddLoyaltyPoints(ctx context.Context, tx *gorm.DB, id uuid.UUID, points int) error {
	col, err := r.gate.Collection(CollCustomers)
	if err != nil {
		return err
	}
	n, err := col.UpdateOne(ctx, tx, ByID(id), map[string]any{
		"loyalty_points": gorm.Expr("loyalty_points + ?", points),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("cliente não encontrado")
	}
	return nil
}

func (r *customerRepo) CreateLoyaltyEntry(ctx context.Context, tx *gorm.DB, e *model.LoyaltyEntry) error {
	col, err := r.gate.Collection(CollLoyaltyEntries)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, e)
}
