package service

import (
	"context"
	"strings"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/google/uuid"
)

// StoreService covers store settings, customers and suppliers.
type StoreService interface {
	Store(ctx context.Context) (*model.Store, error)
	UpdateSettings(ctx context.Context, req dto.UpdateStoreSettingsRequest) (*model.Store, error)

	CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	SearchCustomers(ctx context.Context, term string) ([]model.Customer, error)

	CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest) (*model.Supplier, error)
	Suppliers(ctx context.Context) ([]model.Supplier, error)
}

type storeService struct {
	repos repository.Factory
}

func NewStoreService(repos repository.Factory) StoreService {
	return &storeService{repos: repos}
}

func (s *storeService) Store(ctx context.Context) (*model.Store, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Stores.FindByID(ctx, p.StoreID)
}

func (s *storeService) UpdateSettings(ctx context.Context, req dto.UpdateStoreSettingsRequest) (*model.Store, error) {
	p, err := adminPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.LoyaltyPointsPerUnit != nil && req.LoyaltyPointsPerUnit.IsNegative() {
		return nil, apierror.Validation("pontos por unidade não pode ser negativo", map[string]string{"loyaltyPointsPerUnit": "min"})
	}
	if req.MonthlySalesGoal != nil && req.MonthlySalesGoal.IsNegative() {
		return nil, apierror.Validation("meta mensal não pode ser negativa", map[string]string{"monthlySalesGoal": "min"})
	}

	repos := s.repos.For(ctx)
	store, err := repos.Stores.FindByID(ctx, p.StoreID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		store.Name = strings.TrimSpace(*req.Name)
	}
	if req.FiscalEnabled != nil {
		store.FiscalEnabled = *req.FiscalEnabled
	}
	if req.CNPJ != nil {
		store.CNPJ = req.CNPJ
	}
	if req.InscricaoEstadual != nil {
		store.InscricaoEstadual = req.InscricaoEstadual
	}
	if req.RazaoSocial != nil {
		store.RazaoSocial = req.RazaoSocial
	}
	if req.LoyaltyEnabled != nil {
		store.LoyaltyEnabled = *req.LoyaltyEnabled
	}
	if req.LoyaltyPointsPerUnit != nil {
		store.LoyaltyPointsPerUnit = *req.LoyaltyPointsPerUnit
	}
	if req.MonthlySalesGoal != nil {
		store.MonthlySalesGoal = *req.MonthlySalesGoal
	}
	if store.FiscalEnabled && !store.FiscalConfigured() {
		return nil, apierror.Validation("emissão fiscal exige CNPJ e razão social", map[string]string{"cnpj": "required"})
	}

	if err := repos.Stores.UpdateSettings(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

// ── Customers ─────────────────────────────────────────────────────────────────

func (s *storeService) CreateCustomer(ctx context.Context, req dto.CreateCustomerRequest) (*model.Customer, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	c := &model.Customer{ID: uuid.New(), Name: strings.TrimSpace(req.Name), Phone: req.Phone, Email: req.Email}
	if err := s.repos.For(ctx).Customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *storeService) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Customers.FindByID(ctx, nil, id)
}

func (s *storeService) SearchCustomers(ctx context.Context, term string) ([]model.Customer, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Customers.Search(ctx, strings.TrimSpace(term), 50)
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

func (s *storeService) CreateSupplier(ctx context.Context, req dto.CreateSupplierRequest) (*model.Supplier, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	repos := s.repos.For(ctx)
	name := strings.TrimSpace(req.Name)
	if _, err := repos.Suppliers.FindByName(ctx, name); err == nil {
		return nil, apierror.Conflict("fornecedor já cadastrado: " + name)
	} else if !isNotFound(err) {
		return nil, err
	}
	sup := &model.Supplier{ID: uuid.New(), Name: name, CNPJ: req.CNPJ, Phone: req.Phone, Email: req.Email}
	if err := repos.Suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

func (s *storeService) Suppliers(ctx context.Context) ([]model.Supplier, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Suppliers.List(ctx)
}

func isNotFound(err error) bool {
	return apierror.KindOf(err) == apierror.KindNotFound
}
