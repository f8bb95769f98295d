package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, tx *gorm.DB, s *model.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	UpdateSettings(ctx context.Context, s *model.Store) error
}

type storeRepo struct{ gate *Gate }

func NewStoreRepository(g *Gate) StoreRepository { return &storeRepo{gate: g} }

func (r *storeRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Store) error {
	col, err := r.gate.Collection(CollStores)
	if err != nil {
		return err
	}
	return col.InsertOne(ctx, tx, s)
}

func (r *storeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	col, err := r.gate.Collection(CollStores)
	if err != nil {
		return nil, err
	}
	var s model.Store
	if err := col.FindOne(ctx, nil, ByID(id), &s); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("loja não encontrada", err)
		}
		return nil, err
	}
	return &s, nil
}

func (r *storeRepo) UpdateSettings(ctx context.Context, s *model.Store) error {
	col, err := r.gate.Collection(CollStores)
	if err != nil {
		return err
	}
	n, err := col.ReplaceOne(ctx, nil, ByID(s.ID), s)
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("loja não encontrada")
	}
	return nil
}

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.User, error)
	ListAdmins(ctx context.Context, storeID uuid.UUID) ([]model.User, error)
	SetManagerPin(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, storeID, id uuid.UUID) error
}

type userRepo struct{ gate *Gate }

func NewUserRepository(g *Gate) UserRepository { return &userRepo{gate: g} }

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, u *model.User) error {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return err
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := col.InsertOne(ctx, tx, u); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apierror.Conflict("e-mail já cadastrado", err)
		}
		return err
	}
	return nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return nil, err
	}
	var u model.User
	f := Filter{}.Expr("lower(email) = lower(?)", strings.TrimSpace(email)).Eq("active", true)
	if err := col.FindOne(ctx, nil, f, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := col.FindOne(ctx, nil, ByID(id), &u); err != nil {
		if errors.Is(err, apierror.ErrNotFound) {
			return nil, apierror.NotFound("usuário não encontrado", err)
		}
		return nil, err
	}
	return &u, nil
}

// Users is a global collection, so store filters are explicit here.

func (r *userRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.User, error) {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return nil, err
	}
	var out []model.User
	err = col.Find(ctx, nil, By("store_id", storeID).Eq("active", true), &out, OrderBy("name ASC"))
	return out, err
}

func (r *userRepo) ListAdmins(ctx context.Context, storeID uuid.UUID) ([]model.User, error) {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return nil, err
	}
	var out []model.User
	f := By("store_id", storeID).Eq("role", tenant.RoleAdmin).Eq("active", true)
	err = col.Find(ctx, nil, f, &out)
	return out, err
}

func (r *userRepo) SetManagerPin(ctx context.Context, id uuid.UUID, hash string) error {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return err
	}
	n, err := col.UpdateOne(ctx, nil, ByID(id), map[string]any{"manager_pin_hash": hash})
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("usuário não encontrado")
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, storeID, id uuid.UUID) error {
	col, err := r.gate.Collection(CollUsers)
	if err != nil {
		return err
	}
	n, err := col.DeleteOne(ctx, nil, ByID(id).Eq("store_id", storeID), &model.User{})
	if err != nil {
		return err
	}
	if n == 0 {
		return apierror.NotFound("usuário não encontrado")
	}
	return nil
}
