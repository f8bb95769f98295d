package graph

import (
	"time"

	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/shopspring/decimal"
)

// Output types are plain structs resolved field by field
// (graphql.UseFieldResolvers). Money is exposed as Float.

type User struct {
	ID            graphql.ID
	StoreID       graphql.ID
	Name          string
	Email         string
	Role          string
	MonthlyGoal   float64
	HasManagerPin bool
}

type Store struct {
	ID                   graphql.ID
	Name                 string
	FiscalEnabled        bool
	CNPJ                 *string
	InscricaoEstadual    *string
	RazaoSocial          *string
	LoyaltyEnabled       bool
	LoyaltyPointsPerUnit float64
	MonthlySalesGoal     float64
}

type PaymentTotal struct {
	PaymentMethod string
	Total         float64
	Count         int32
}

type CashSession struct {
	ID                     graphql.ID
	Status                 string
	OpeningBalance         float64
	OpenedAt               graphql.Time
	ClosedAt               *graphql.Time
	ClosingBalanceActual   *float64
	ClosingBalanceExpected *float64
	Difference             *float64
	TotalDeposits          float64
	TotalWithdrawals       float64
	Totals                 []*PaymentTotal
}

type CashSummary struct {
	SessionID           graphql.ID
	OpeningBalance      float64
	OpenedAt            graphql.Time
	AsOf                graphql.Time
	SalesByPayment      []*PaymentTotal
	CashSales           float64
	TotalDeposits       float64
	TotalWithdrawals    float64
	ExpectedCashBalance float64
}

type SaleItem struct {
	ProductID   graphql.ID
	ColorSlug   string
	Number      string
	Quantity    int32
	PriceAtSale float64
}

type Sale struct {
	ID                  graphql.ID
	UserID              graphql.ID
	CustomerID          *graphql.ID
	Items               []*SaleItem
	TotalAmount         float64
	Discount            float64
	FinalAmount         float64
	PaymentMethod       string
	NFCeStatus          string
	NFCePDFURL          *string
	NFCeXMLURL          *string
	NFCeRejectionReason *string
	LoyaltyPoints       int32
	CreatedAt           graphql.Time
}

type StoreCredit struct {
	ID        graphql.ID
	Code      string
	Amount    float64
	Balance   float64
	IsActive  bool
	CreatedAt graphql.Time
}

type ProductItem struct {
	Number  string
	Amount  int32
	BarCode *string
}

type ProductVariant struct {
	Color     string
	ColorSlug string
	Items     []*ProductItem
}

type Product struct {
	ID            graphql.ID
	Brand         string
	Model         string
	PurchasePrice float64
	SalePrice     float64
	Variants      []*ProductVariant
}

type LowStockItem struct {
	ProductID graphql.ID
	Brand     string
	Model     string
	ColorSlug string
	Number    string
	Amount    int32
}

type StockMovement struct {
	ID          graphql.ID
	ProductID   graphql.ID
	ColorSlug   string
	Number      string
	Delta       int32
	Reason      string
	ReferenceID *graphql.ID
	CreatedAt   graphql.Time
}

type DunResult struct {
	UpdatedCount int32
	NotFoundEans []string
}

type Customer struct {
	ID            graphql.ID
	Name          string
	Phone         *string
	Email         *string
	LoyaltyPoints int32
}

type Supplier struct {
	ID    graphql.ID
	Name  string
	CNPJ  *string
	Phone *string
	Email *string
}

type PurchaseOrderItem struct {
	ProductID graphql.ID
	ColorSlug string
	Number    string
	Quantity  int32
	CostPrice float64
}

type PurchaseOrder struct {
	ID         graphql.ID
	SupplierID graphql.ID
	Status     string
	TotalCost  float64
	CreatedAt  graphql.Time
	ReceivedAt *graphql.Time
	Items      []*PurchaseOrderItem
}

// ─── Mapping ─────────────────────────────────────────────────────────────────

func id(u uuid.UUID) graphql.ID { return graphql.ID(u.String()) }

func optID(u *uuid.UUID) *graphql.ID {
	if u == nil {
		return nil
	}
	v := id(*u)
	return &v
}

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

func optMoney(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := money(*d)
	return &v
}

func ts(t time.Time) graphql.Time { return graphql.Time{Time: t} }

func optTS(t *time.Time) *graphql.Time {
	if t == nil {
		return nil
	}
	v := ts(*t)
	return &v
}

func toUser(r dto.UserResponse) *User {
	return &User{
		ID:            graphql.ID(r.ID),
		StoreID:       graphql.ID(r.StoreID),
		Name:          r.Name,
		Email:         r.Email,
		Role:          r.Role,
		MonthlyGoal:   money(r.MonthlyGoal),
		HasManagerPin: r.HasManagerPin,
	}
}

func toStore(s *model.Store) *Store {
	return &Store{
		ID:                   id(s.ID),
		Name:                 s.Name,
		FiscalEnabled:        s.FiscalEnabled,
		CNPJ:                 s.CNPJ,
		InscricaoEstadual:    s.InscricaoEstadual,
		RazaoSocial:          s.RazaoSocial,
		LoyaltyEnabled:       s.LoyaltyEnabled,
		LoyaltyPointsPerUnit: s.LoyaltyPointsPerUnit.InexactFloat64(),
		MonthlySalesGoal:     money(s.MonthlySalesGoal),
	}
}

func toCashSession(s *model.CashSession) *CashSession {
	out := &CashSession{
		ID:                     id(s.ID),
		Status:                 s.Status,
		OpeningBalance:         money(s.OpeningBalance),
		OpenedAt:               ts(s.OpenedAt),
		ClosedAt:               optTS(s.ClosedAt),
		ClosingBalanceActual:   optMoney(s.ClosingBalanceActual),
		ClosingBalanceExpected: optMoney(s.ClosingBalanceExpected),
		Difference:             optMoney(s.Difference),
		TotalDeposits:          money(s.TotalDeposits),
		TotalWithdrawals:       money(s.TotalWithdrawals),
		Totals:                 make([]*PaymentTotal, len(s.Totals)),
	}
	for i, t := range s.Totals {
		out.Totals[i] = &PaymentTotal{PaymentMethod: t.PaymentMethod, Total: money(t.Total), Count: int32(t.Count)}
	}
	return out
}

func toCashSummary(s *dto.CashSummary) *CashSummary {
	out := &CashSummary{
		SessionID:           graphql.ID(s.SessionID),
		OpeningBalance:      money(s.OpeningBalance),
		OpenedAt:            ts(s.OpenedAt),
		AsOf:                ts(s.AsOf),
		SalesByPayment:      make([]*PaymentTotal, len(s.SalesByPayment)),
		CashSales:           money(s.CashSales),
		TotalDeposits:       money(s.TotalDeposits),
		TotalWithdrawals:    money(s.TotalWithdrawals),
		ExpectedCashBalance: money(s.ExpectedCashBalance),
	}
	for i, t := range s.SalesByPayment {
		out.SalesByPayment[i] = &PaymentTotal{PaymentMethod: t.PaymentMethod, Total: money(t.Total), Count: int32(t.Count)}
	}
	return out
}

func toSale(s *model.Sale) *Sale {
	out := &Sale{
		ID:                  id(s.ID),
		UserID:              id(s.UserID),
		CustomerID:          optID(s.CustomerID),
		Items:               make([]*SaleItem, len(s.Items)),
		TotalAmount:         money(s.TotalAmount),
		Discount:            money(s.Discount),
		FinalAmount:         money(s.FinalAmount),
		PaymentMethod:       s.PaymentMethod,
		NFCeStatus:          s.NFCeStatus,
		NFCePDFURL:          s.NFCePDFURL,
		NFCeXMLURL:          s.NFCeXMLURL,
		NFCeRejectionReason: s.NFCeRejectionReason,
		LoyaltyPoints:       int32(s.LoyaltyPoints),
		CreatedAt:           ts(s.CreatedAt),
	}
	for i, it := range s.Items {
		out.Items[i] = &SaleItem{
			ProductID:   id(it.ProductID),
			ColorSlug:   it.ColorSlug,
			Number:      it.Number,
			Quantity:    int32(it.Quantity),
			PriceAtSale: money(it.PriceAtSale),
		}
	}
	return out
}

func toStoreCredit(c *model.StoreCredit) *StoreCredit {
	return &StoreCredit{
		ID:        id(c.ID),
		Code:      c.Code,
		Amount:    money(c.Amount),
		Balance:   money(c.Balance),
		IsActive:  c.IsActive,
		CreatedAt: ts(c.CreatedAt),
	}
}

func toProduct(p *model.Product) *Product {
	out := &Product{
		ID:            id(p.ID),
		Brand:         p.Brand,
		Model:         p.Model,
		PurchasePrice: money(p.PurchasePrice),
		SalePrice:     money(p.SalePrice),
		Variants:      make([]*ProductVariant, len(p.Variants)),
	}
	for i, v := range p.Variants {
		pv := &ProductVariant{Color: v.Color, ColorSlug: v.ColorSlug, Items: make([]*ProductItem, len(v.Items))}
		for j, it := range v.Items {
			pv.Items[j] = &ProductItem{Number: it.Number, Amount: int32(it.Amount), BarCode: it.BarCode}
		}
		out.Variants[i] = pv
	}
	return out
}

func toStockMovement(m *model.StockMovement) *StockMovement {
	return &StockMovement{
		ID:          id(m.ID),
		ProductID:   id(m.ProductID),
		ColorSlug:   m.ColorSlug,
		Number:      m.Number,
		Delta:       int32(m.Delta),
		Reason:      m.Reason,
		ReferenceID: optID(m.ReferenceID),
		CreatedAt:   ts(m.CreatedAt),
	}
}

func toCustomer(c *model.Customer) *Customer {
	return &Customer{
		ID:            id(c.ID),
		Name:          c.Name,
		Phone:         c.Phone,
		Email:         c.Email,
		LoyaltyPoints: int32(c.LoyaltyPoints),
	}
}

func toSupplier(s *model.Supplier) *Supplier {
	return &Supplier{ID: id(s.ID), Name: s.Name, CNPJ: s.CNPJ, Phone: s.Phone, Email: s.Email}
}

func toPurchaseOrder(o *model.PurchaseOrder) *PurchaseOrder {
	out := &PurchaseOrder{
		ID:         id(o.ID),
		SupplierID: id(o.SupplierID),
		Status:     o.Status,
		TotalCost:  money(o.TotalCost),
		CreatedAt:  ts(o.CreatedAt),
		ReceivedAt: optTS(o.ReceivedAt),
		Items:      make([]*PurchaseOrderItem, len(o.Items)),
	}
	for i, it := range o.Items {
		out.Items[i] = &PurchaseOrderItem{
			ProductID: id(it.ProductID),
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Quantity:  int32(it.Quantity),
			CostPrice: money(it.CostPrice),
		}
	}
	return out
}
