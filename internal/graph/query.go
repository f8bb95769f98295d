package graph

import (
	"context"
	"time"

	"github.com/Code-Vida/apistock/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

const defaultSearchLimit = 20

// ── Users & store ─────────────────────────────────────────────────────────────

func (r *Resolver) Me(ctx context.Context) (*User, error) {
	u, err := r.svc.Auth.Me(ctx)
	if err != nil {
		return nil, fail(ctx, "me", err)
	}
	return toUser(service.UserResponse(u)), nil
}

func (r *Resolver) Users(ctx context.Context) ([]*User, error) {
	users, err := r.svc.Auth.ListUsers(ctx)
	if err != nil {
		return nil, fail(ctx, "users", err)
	}
	out := make([]*User, len(users))
	for i := range users {
		out[i] = toUser(service.UserResponse(&users[i]))
	}
	return out, nil
}

func (r *Resolver) Store(ctx context.Context) (*Store, error) {
	s, err := r.svc.Store.Store(ctx)
	if err != nil {
		return nil, fail(ctx, "store", err)
	}
	return toStore(s), nil
}

// ── Cash ──────────────────────────────────────────────────────────────────────

func (r *Resolver) ActiveCashSession(ctx context.Context) (*CashSession, error) {
	s, err := r.svc.Cash.Active(ctx)
	if err != nil {
		return nil, fail(ctx, "activeCashSession", err)
	}
	if s == nil {
		return nil, nil
	}
	return toCashSession(s), nil
}

func (r *Resolver) ActiveCashSessionSummary(ctx context.Context, args struct{ AsOf *graphql.Time }) (*CashSummary, error) {
	asOf := time.Now()
	if args.AsOf != nil {
		asOf = args.AsOf.Time
	}
	sum, err := r.svc.Cash.Summarize(ctx, asOf)
	if err != nil {
		return nil, fail(ctx, "activeCashSessionSummary", err)
	}
	return toCashSummary(sum), nil
}

// ── Sales ─────────────────────────────────────────────────────────────────────

func (r *Resolver) Sale(ctx context.Context, args struct{ ID graphql.ID }) (*Sale, error) {
	saleID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, fail(ctx, "sale", err)
	}
	s, err := r.svc.Sales.GetSale(ctx, saleID)
	if err != nil {
		return nil, fail(ctx, "sale", err)
	}
	return toSale(s), nil
}

func (r *Resolver) StoreCreditByCode(ctx context.Context, args struct{ Code string }) (*StoreCredit, error) {
	c, err := r.svc.Returns.StoreCreditByCode(ctx, args.Code)
	if err != nil {
		return nil, fail(ctx, "storeCreditByCode", err)
	}
	return toStoreCredit(c), nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (r *Resolver) Product(ctx context.Context, args struct{ ID graphql.ID }) (*Product, error) {
	productID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, fail(ctx, "product", err)
	}
	p, err := r.svc.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fail(ctx, "product", err)
	}
	return toProduct(p), nil
}

func (r *Resolver) SearchProducts(ctx context.Context, args struct {
	Term  string
	Limit *int32
}) ([]*Product, error) {
	products, err := r.svc.Catalog.SearchProducts(ctx, args.Term, limitOr(args.Limit, defaultSearchLimit))
	if err != nil {
		return nil, fail(ctx, "searchProducts", err)
	}
	out := make([]*Product, len(products))
	for i := range products {
		out[i] = toProduct(&products[i])
	}
	return out, nil
}

func (r *Resolver) LowStock(ctx context.Context, args struct{ Threshold *int32 }) ([]*LowStockItem, error) {
	threshold := service.DefaultLowStockThreshold
	if args.Threshold != nil {
		threshold = int(*args.Threshold)
	}
	items, err := r.svc.Catalog.LowStock(ctx, threshold)
	if err != nil {
		return nil, fail(ctx, "lowStock", err)
	}
	out := make([]*LowStockItem, len(items))
	for i, it := range items {
		out[i] = &LowStockItem{
			ProductID: graphql.ID(it.ProductID),
			Brand:     it.Brand,
			Model:     it.Model,
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Amount:    int32(it.Amount),
		}
	}
	return out, nil
}

func (r *Resolver) StockHistory(ctx context.Context, args struct {
	ProductID graphql.ID
	Limit     *int32
}) ([]*StockMovement, error) {
	productID, err := parseID(args.ProductID, "productId")
	if err != nil {
		return nil, fail(ctx, "stockHistory", err)
	}
	movs, err := r.svc.Catalog.StockHistory(ctx, productID, limitOr(args.Limit, 50))
	if err != nil {
		return nil, fail(ctx, "stockHistory", err)
	}
	out := make([]*StockMovement, len(movs))
	for i := range movs {
		out[i] = toStockMovement(&movs[i])
	}
	return out, nil
}

// ── Customers & suppliers ─────────────────────────────────────────────────────

func (r *Resolver) Customer(ctx context.Context, args struct{ ID graphql.ID }) (*Customer, error) {
	customerID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, fail(ctx, "customer", err)
	}
	c, err := r.svc.Store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fail(ctx, "customer", err)
	}
	return toCustomer(c), nil
}

func (r *Resolver) SearchCustomers(ctx context.Context, args struct{ Term string }) ([]*Customer, error) {
	customers, err := r.svc.Store.SearchCustomers(ctx, args.Term)
	if err != nil {
		return nil, fail(ctx, "searchCustomers", err)
	}
	out := make([]*Customer, len(customers))
	for i := range customers {
		out[i] = toCustomer(&customers[i])
	}
	return out, nil
}

func (r *Resolver) Suppliers(ctx context.Context) ([]*Supplier, error) {
	suppliers, err := r.svc.Store.Suppliers(ctx)
	if err != nil {
		return nil, fail(ctx, "suppliers", err)
	}
	out := make([]*Supplier, len(suppliers))
	for i := range suppliers {
		out[i] = toSupplier(&suppliers[i])
	}
	return out, nil
}

func (r *Resolver) PurchaseOrders(ctx context.Context, args struct{ Status *string }) ([]*PurchaseOrder, error) {
	orders, err := r.svc.Purchase.List(ctx, args.Status)
	if err != nil {
		return nil, fail(ctx, "purchaseOrders", err)
	}
	out := make([]*PurchaseOrder, len(orders))
	for i := range orders {
		out[i] = toPurchaseOrder(&orders[i])
	}
	return out, nil
}
