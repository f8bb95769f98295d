package repository

import (
	"context"

	"github.com/Code-Vida/apistock/internal/tenant"

	"gorm.io/gorm"
)

// Set groups the typed repositories bound to one caller's Gate.
type Set struct {
	Stores         StoreRepository
	Users          UserRepository
	Products       ProductRepository
	StockMovements StockMovementRepository
	Sales          SaleRepository
	Cash           CashRepository
	Returns        ReturnRepository
	Credits        StoreCreditRepository
	Customers      CustomerRepository
	Suppliers      SupplierRepository
	PurchaseOrders PurchaseOrderRepository
}

// Factory builds a repository Set for the principal carried by ctx. A
// context without a principal yields a Set that can only reach global
// collections.
type Factory interface {
	For(ctx context.Context) *Set
}

type gormFactory struct{ db *gorm.DB }

func NewFactory(db *gorm.DB) Factory { return &gormFactory{db: db} }

func (f *gormFactory) For(ctx context.Context) *Set {
	p, _ := tenant.FromContext(ctx)
	return NewSet(NewGate(f.db, p))
}

// NewSet binds every repository to g.
func NewSet(g *Gate) *Set {
	return &Set{
		Stores:         NewStoreRepository(g),
		Users:          NewUserRepository(g),
		Products:       NewProductRepository(g),
		StockMovements: NewStockMovementRepository(g),
		Sales:          NewSaleRepository(g),
		Cash:           NewCashRepository(g),
		Returns:        NewReturnRepository(g),
		Credits:        NewStoreCreditRepository(g),
		Customers:      NewCustomerRepository(g),
		Suppliers:      NewSupplierRepository(g),
		PurchaseOrders: NewPurchaseOrderRepository(g),
	}
}
