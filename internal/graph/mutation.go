package graph

import (
	"context"

	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/service"

	graphql "github.com/graph-gophers/graphql-go"
)

// ─── Inputs ──────────────────────────────────────────────────────────────────

type CashMovementInput struct {
	Type        string
	Amount      float64
	Description *string
}

type CloseCashSessionInput struct {
	ActualBalance float64
}

type SaleItemInput struct {
	ProductID   graphql.ID
	ColorSlug   string
	Number      string
	Quantity    int32
	PriceAtSale float64
	CostAtSale  *float64
}

type CreateSaleInput struct {
	Items           []SaleItemInput
	PaymentMethod   string
	CustomerID      *graphql.ID
	Discount        *float64
	TotalAmount     float64
	FinalAmount     float64
	StoreCreditCode *string
	ClientRequestID *string
}

type ReturnItemInput struct {
	ProductID graphql.ID
	ColorSlug string
	Number    string
	Quantity  int32
}

type CreateReturnInput struct {
	OriginalSaleID    graphql.ID
	Items             []ReturnItemInput
	TotalRefundAmount float64
	RefundMethod      string
	Reason            *string
}

type PurchaseOrderItemInput struct {
	ProductID graphql.ID
	ColorSlug string
	Number    string
	Quantity  int32
	CostPrice float64
}

type CreatePurchaseOrderInput struct {
	SupplierID graphql.ID
	Items      []PurchaseOrderItemInput
}

type ProductItemInput struct {
	Number  string
	Amount  int32
	BarCode *string
}

type ProductVariantInput struct {
	Color string
	Items []ProductItemInput
}

type CreateProductInput struct {
	Brand         string
	Model         string
	PurchasePrice float64
	SalePrice     float64
	Variants      []ProductVariantInput
}

type AdjustStockInput struct {
	ProductID graphql.ID
	ColorSlug string
	Number    string
	Delta     int32
}

type CreateCustomerInput struct {
	Name  string
	Phone *string
	Email *string
}

type CreateSupplierInput struct {
	Name  string
	CNPJ  *string
	Phone *string
	Email *string
}

type CreateUserInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	MonthlyGoal *float64
}

type StoreSettingsInput struct {
	Name                 *string
	FiscalEnabled        *bool
	CNPJ                 *string
	InscricaoEstadual    *string
	RazaoSocial          *string
	LoyaltyEnabled       *bool
	LoyaltyPointsPerUnit *float64
	MonthlySalesGoal     *float64
}

// ── Cash ──────────────────────────────────────────────────────────────────────

func (r *Resolver) OpenCashSession(ctx context.Context, args struct{ OpeningBalance float64 }) (*CashSession, error) {
	s, err := r.svc.Cash.Open(ctx, dec(args.OpeningBalance))
	if err != nil {
		return nil, fail(ctx, "openCashSession", err)
	}
	return toCashSession(s), nil
}

func (r *Resolver) AddCashMovement(ctx context.Context, args struct{ Input CashMovementInput }) (*bool, error) {
	req := dto.CashMovementRequest{Type: args.Input.Type, Amount: dec(args.Input.Amount)}
	if args.Input.Description != nil {
		req.Description = *args.Input.Description
	}
	if _, err := r.svc.Cash.RecordMovement(ctx, req); err != nil {
		return nil, fail(ctx, "addCashMovement", err)
	}
	return ok(), nil
}

func (r *Resolver) CloseCashSession(ctx context.Context, args struct{ Input CloseCashSessionInput }) (*CashSession, error) {
	s, err := r.svc.Cash.Close(ctx, dec(args.Input.ActualBalance))
	if err != nil {
		return nil, fail(ctx, "closeCashSession", err)
	}
	return toCashSession(s), nil
}

// ── Sales & returns ───────────────────────────────────────────────────────────

func (r *Resolver) CreateSale(ctx context.Context, args struct{ Input CreateSaleInput }) (*Sale, error) {
	in := args.Input
	req := dto.CreateSaleRequest{
		Items:           make([]dto.SaleItemRequest, len(in.Items)),
		PaymentMethod:   in.PaymentMethod,
		CustomerID:      optString(in.CustomerID),
		Discount:        optDec(in.Discount),
		TotalAmount:     dec(in.TotalAmount),
		FinalAmount:     dec(in.FinalAmount),
		StoreCreditCode: in.StoreCreditCode,
		ClientRequestID: in.ClientRequestID,
	}
	for i, it := range in.Items {
		req.Items[i] = dto.SaleItemRequest{
			ProductID:   string(it.ProductID),
			ColorSlug:   it.ColorSlug,
			Number:      it.Number,
			Quantity:    int(it.Quantity),
			PriceAtSale: dec(it.PriceAtSale),
			CostAtSale:  optDec(it.CostAtSale),
		}
	}
	s, err := r.svc.Sales.CreateSale(ctx, req)
	if err != nil {
		return nil, fail(ctx, "createSale", err)
	}
	return toSale(s), nil
}

func (r *Resolver) CreateReturn(ctx context.Context, args struct{ Input CreateReturnInput }) (*bool, error) {
	in := args.Input
	req := dto.CreateReturnRequest{
		OriginalSaleID:    string(in.OriginalSaleID),
		Items:             make([]dto.ReturnItemRequest, len(in.Items)),
		TotalRefundAmount: dec(in.TotalRefundAmount),
		RefundMethod:      in.RefundMethod,
		Reason:            in.Reason,
	}
	for i, it := range in.Items {
		req.Items[i] = dto.ReturnItemRequest{
			ProductID: string(it.ProductID),
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Quantity:  int(it.Quantity),
		}
	}
	if _, err := r.svc.Returns.CreateReturn(ctx, req); err != nil {
		return nil, fail(ctx, "createReturn", err)
	}
	return ok(), nil
}

// ── Purchase orders ───────────────────────────────────────────────────────────

func (r *Resolver) CreatePurchaseOrder(ctx context.Context, args struct{ Input CreatePurchaseOrderInput }) (*PurchaseOrder, error) {
	req := dto.CreatePurchaseOrderRequest{
		SupplierID: string(args.Input.SupplierID),
		Items:      make([]dto.PurchaseOrderItemRequest, len(args.Input.Items)),
	}
	for i, it := range args.Input.Items {
		req.Items[i] = dto.PurchaseOrderItemRequest{
			ProductID: string(it.ProductID),
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Quantity:  int(it.Quantity),
			CostPrice: dec(it.CostPrice),
		}
	}
	o, err := r.svc.Purchase.Create(ctx, req)
	if err != nil {
		return nil, fail(ctx, "createPurchaseOrder", err)
	}
	return toPurchaseOrder(o), nil
}

func (r *Resolver) ReceivePurchaseOrder(ctx context.Context, args struct{ ID graphql.ID }) (*bool, error) {
	orderID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, fail(ctx, "receivePurchaseOrder", err)
	}
	if err := r.svc.Purchase.Receive(ctx, orderID); err != nil {
		return nil, fail(ctx, "receivePurchaseOrder", err)
	}
	return ok(), nil
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (r *Resolver) CreateProduct(ctx context.Context, args struct{ Input CreateProductInput }) (*Product, error) {
	in := args.Input
	req := dto.CreateProductRequest{
		Brand:         in.Brand,
		Model:         in.Model,
		PurchasePrice: dec(in.PurchasePrice),
		SalePrice:     dec(in.SalePrice),
		Variants:      make([]dto.ProductVariantRequest, len(in.Variants)),
	}
	for i, v := range in.Variants {
		items := make([]dto.ProductItemRequest, len(v.Items))
		for j, it := range v.Items {
			items[j] = dto.ProductItemRequest{Number: it.Number, Amount: int(it.Amount), BarCode: it.BarCode}
		}
		req.Variants[i] = dto.ProductVariantRequest{Color: v.Color, Items: items}
	}
	p, err := r.svc.Catalog.CreateProduct(ctx, req)
	if err != nil {
		return nil, fail(ctx, "createProduct", err)
	}
	return toProduct(p), nil
}

func (r *Resolver) AdjustStock(ctx context.Context, args struct{ Input AdjustStockInput }) (*bool, error) {
	req := dto.AdjustStockRequest{
		ProductID: string(args.Input.ProductID),
		ColorSlug: args.Input.ColorSlug,
		Number:    args.Input.Number,
		Delta:     int(args.Input.Delta),
	}
	if err := r.svc.Catalog.AdjustStock(ctx, req); err != nil {
		return nil, fail(ctx, "adjustStock", err)
	}
	return ok(), nil
}

func (r *Resolver) ProcessDunCode(ctx context.Context, args struct {
	DunCode        string
	QuantityPerEan int32
}) (*DunResult, error) {
	res, err := r.svc.Catalog.ProcessDunCode(ctx, args.DunCode, int(args.QuantityPerEan))
	if err != nil {
		return nil, fail(ctx, "processDunCode", err)
	}
	notFound := res.NotFoundEANs
	if notFound == nil {
		notFound = []string{}
	}
	return &DunResult{UpdatedCount: int32(res.UpdatedCount), NotFoundEans: notFound}, nil
}

func (r *Resolver) AcknowledgeLowStock(ctx context.Context, args struct{ ProductID graphql.ID }) (*bool, error) {
	productID, err := parseID(args.ProductID, "productId")
	if err != nil {
		return nil, fail(ctx, "acknowledgeLowStock", err)
	}
	if err := r.svc.Catalog.AcknowledgeLowStock(ctx, productID); err != nil {
		return nil, fail(ctx, "acknowledgeLowStock", err)
	}
	return ok(), nil
}

// ── Customers & suppliers ─────────────────────────────────────────────────────

func (r *Resolver) CreateCustomer(ctx context.Context, args struct{ Input CreateCustomerInput }) (*Customer, error) {
	c, err := r.svc.Store.CreateCustomer(ctx, dto.CreateCustomerRequest{
		Name:  args.Input.Name,
		Phone: args.Input.Phone,
		Email: args.Input.Email,
	})
	if err != nil {
		return nil, fail(ctx, "createCustomer", err)
	}
	return toCustomer(c), nil
}

func (r *Resolver) CreateSupplier(ctx context.Context, args struct{ Input CreateSupplierInput }) (*Supplier, error) {
	s, err := r.svc.Store.CreateSupplier(ctx, dto.CreateSupplierRequest{
		Name:  args.Input.Name,
		CNPJ:  args.Input.CNPJ,
		Phone: args.Input.Phone,
		Email: args.Input.Email,
	})
	if err != nil {
		return nil, fail(ctx, "createSupplier", err)
	}
	return toSupplier(s), nil
}

// ── Users & settings ──────────────────────────────────────────────────────────

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input CreateUserInput }) (*User, error) {
	in := args.Input
	u, err := r.svc.Auth.CreateUser(ctx, dto.CreateUserRequest{
		Name:        in.Name,
		Email:       in.Email,
		Password:    in.Password,
		Role:        in.Role,
		MonthlyGoal: optDec(in.MonthlyGoal),
	})
	if err != nil {
		return nil, fail(ctx, "createUser", err)
	}
	return toUser(service.UserResponse(u)), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ ID graphql.ID }) (*bool, error) {
	userID, err := parseID(args.ID, "id")
	if err != nil {
		return nil, fail(ctx, "deleteUser", err)
	}
	if err := r.svc.Auth.DeleteUser(ctx, userID); err != nil {
		return nil, fail(ctx, "deleteUser", err)
	}
	return ok(), nil
}

func (r *Resolver) SetManagerPin(ctx context.Context, args struct{ Pin string }) (*bool, error) {
	if err := r.svc.Auth.SetManagerPin(ctx, args.Pin); err != nil {
		return nil, fail(ctx, "setManagerPin", err)
	}
	return ok(), nil
}

func (r *Resolver) AuthorizeAction(ctx context.Context, args struct{ Pin string }) (*bool, error) {
	granted, err := r.svc.Auth.AuthorizeAction(ctx, args.Pin)
	if err != nil {
		return nil, fail(ctx, "authorizeAction", err)
	}
	return &granted, nil
}

func (r *Resolver) UpdateStoreSettings(ctx context.Context, args struct{ Input StoreSettingsInput }) (*Store, error) {
	in := args.Input
	req := dto.UpdateStoreSettingsRequest{
		Name:              in.Name,
		FiscalEnabled:     in.FiscalEnabled,
		CNPJ:              in.CNPJ,
		InscricaoEstadual: in.InscricaoEstadual,
		RazaoSocial:       in.RazaoSocial,
		LoyaltyEnabled:    in.LoyaltyEnabled,
	}
	if in.LoyaltyPointsPerUnit != nil {
		v := dec(*in.LoyaltyPointsPerUnit)
		req.LoyaltyPointsPerUnit = &v
	}
	if in.MonthlySalesGoal != nil {
		v := dec(*in.MonthlySalesGoal)
		req.MonthlySalesGoal = &v
	}
	s, err := r.svc.Store.UpdateSettings(ctx, req)
	if err != nil {
		return nil, fail(ctx, "updateStoreSettings", err)
	}
	return toStore(s), nil
}

func ok() *bool {
	t := true
	return &t
}
