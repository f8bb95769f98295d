package service

import (
	"errors"
	"testing"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSaleService(env *testEnv) *saleService {
	return &saleService{repos: env.repos, uow: env.uow, ledger: env.ledger, fiscal: env.fiscal}
}

func (e *testEnv) saleRequest(method string, lines map[string]int) dto.CreateSaleRequest {
	req := dto.CreateSaleRequest{PaymentMethod: method}
	total := decimal.Zero
	for _, n := range []string{"36", "37"} {
		q, ok := lines[n]
		if !ok {
			continue
		}
		req.Items = append(req.Items, dto.SaleItemRequest{
			ProductID: e.product.ID.String(), ColorSlug: "preto", Number: n,
			Quantity: q, PriceAtSale: e.product.SalePrice, CostAtSale: e.product.PurchasePrice,
		})
		total = total.Add(e.product.SalePrice.Mul(decimal.NewFromInt(int64(q))))
	}
	req.TotalAmount = total
	req.FinalAmount = total
	return req
}

func strPtr(s string) *string { return &s }

func (e *testEnv) enableFiscal() {
	e.updateStore(func(s *model.Store) {
		s.FiscalEnabled = true
		s.CNPJ = strPtr("12345678000199")
		s.RazaoSocial = strPtr("Loja Centro LTDA")
	})
}

func TestSaleService_CreateSale_DebitsStock(t *testing.T) {
	env := newTestEnv()
	svc := newTestSaleService(env)

	sale, err := svc.CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentCash, map[string]int{"36": 2}))

	require.NoError(t, err)
	assert.Equal(t, 3, env.stock("36"))
	assert.Equal(t, env.store.ID, sale.StoreID)
	assert.Equal(t, env.seller.UserID, sale.UserID)
	assert.Equal(t, model.NFCeNotIssued, sale.NFCeStatus)
	require.Len(t, env.db.movements, 1)
	assert.Equal(t, -2, env.db.movements[0].Delta)
	assert.Equal(t, &sale.ID, env.db.movements[0].ReferenceID)
	assert.Empty(t, env.fiscal.enqueued, "fiscal not configured")
}

func TestSaleService_CreateSale_InsufficientStockCommitsNothing(t *testing.T) {
	env := newTestEnv()
	svc := newTestSaleService(env)

	_, err := svc.CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentCash, map[string]int{"36": 2, "37": 2}))

	require.Error(t, err)
	assert.Equal(t, apierror.KindPrecondition, apierror.KindOf(err))
	assert.Equal(t, 5, env.stock("36"))
	assert.Equal(t, 1, env.stock("37"))
	assert.Empty(t, env.db.sales)
	assert.Empty(t, env.db.movements)
}

func TestSaleService_CreateSale_SameClientRequestIDIsIdempotent(t *testing.T) {
	env := newTestEnv()
	svc := newTestSaleService(env)
	ctx := env.ctx(env.seller)
	req := env.saleRequest(model.PaymentCash, map[string]int{"36": 1})
	req.ClientRequestID = strPtr("pdv-1-000042")

	first, err := svc.CreateSale(ctx, req)
	require.NoError(t, err)
	second, err := svc.CreateSale(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, env.db.sales, 1)
	assert.Equal(t, 4, env.stock("36"))
}

func TestSaleService_CreateSale_StoreCreditRedeemed(t *testing.T) {
	env := newTestEnv()
	svc := newTestSaleService(env)
	ctx := env.ctx(env.seller)
	env.db.credits["ABCD2345"] = model.StoreCredit{
		ID: uuid.New(), StoreID: env.store.ID, Code: "ABCD2345",
		Amount: decimal.NewFromInt(200), Balance: decimal.NewFromInt(200), IsActive: true,
	}
	req := env.saleRequest(model.PaymentStoreCredit, map[string]int{"36": 1})
	req.StoreCreditCode = strPtr("ABCD2345")

	_, err := svc.CreateSale(ctx, req)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(env.db.credits["ABCD2345"].Balance))

	// 50 left is not enough for another 150 sale: nothing commits.
	_, err = svc.CreateSale(ctx, req)
	require.Error(t, err)
	assert.Equal(t, apierror.KindPrecondition, apierror.KindOf(err))
	assert.Equal(t, 4, env.stock("36"))
	assert.Len(t, env.db.sales, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(env.db.credits["ABCD2345"].Balance))
}

func TestSaleService_CreateSale_StoreCreditNeedsCode(t *testing.T) {
	env := newTestEnv()

	_, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentStoreCredit, map[string]int{"36": 1}))

	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Equal(t, 5, env.stock("36"))
}

func TestSaleService_CreateSale_DiscountAboveTotalRejected(t *testing.T) {
	env := newTestEnv()
	req := env.saleRequest(model.PaymentCash, map[string]int{"36": 1})
	req.Discount = req.TotalAmount.Add(decimal.NewFromInt(1))

	_, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), req)

	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestSaleService_CreateSale_FiscalHandOff(t *testing.T) {
	env := newTestEnv()
	env.enableFiscal()

	sale, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentCash, map[string]int{"36": 1}))

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{sale.ID}, env.fiscal.enqueued)
	assert.Equal(t, model.NFCePending, sale.NFCeStatus)
	assert.Equal(t, model.NFCePending, env.db.sales[sale.ID].NFCeStatus)
}

func TestSaleService_CreateSale_FiscalEnqueueFailureKeepsSale(t *testing.T) {
	env := newTestEnv()
	env.enableFiscal()
	env.fiscal.err = errors.New("redis: connection refused")

	sale, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentCash, map[string]int{"36": 1}))

	require.NoError(t, err)
	assert.Equal(t, model.NFCeSendError, env.db.sales[sale.ID].NFCeStatus)
	assert.Equal(t, 4, env.stock("36"))
}

func (e *testEnv) loyaltyCustomer() uuid.UUID {
	e.updateStore(func(s *model.Store) {
		s.LoyaltyEnabled = true
		s.LoyaltyPointsPerUnit = decimal.RequireFromString("0.1")
	})
	c := model.Customer{ID: uuid.New(), StoreID: e.store.ID, Name: "Maria"}
	e.db.customers[c.ID] = c
	return c.ID
}

func TestSaleService_CreateSale_CreditsLoyaltyPoints(t *testing.T) {
	env := newTestEnv()
	customerID := env.loyaltyCustomer()
	req := env.saleRequest(model.PaymentCash, map[string]int{"36": 1})
	req.CustomerID = strPtr(customerID.String())
	req.FinalAmount = decimal.RequireFromString("149.99")

	sale, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), req)

	require.NoError(t, err)
	assert.Equal(t, 14, sale.LoyaltyPoints)
	assert.Equal(t, 14, env.db.customers[customerID].LoyaltyPoints)
	require.Len(t, env.db.loyalty, 1)
	assert.Equal(t, sale.ID, env.db.loyalty[0].SaleID)
}

func TestSaleService_CreateSale_LoyaltyFailureKeepsSale(t *testing.T) {
	env := newTestEnv()
	customerID := env.loyaltyCustomer()
	env.db.loyaltyErr = errors.New("deadlock detected")
	req := env.saleRequest(model.PaymentCash, map[string]int{"36": 1})
	req.CustomerID = strPtr(customerID.String())

	sale, err := newTestSaleService(env).CreateSale(env.ctx(env.seller), req)

	require.NoError(t, err)
	assert.Zero(t, sale.LoyaltyPoints)
	assert.Contains(t, env.db.sales, sale.ID)
	assert.Equal(t, 4, env.stock("36"))
	assert.Empty(t, env.db.loyalty)
}

func TestSaleService_GetSale_OtherStoreNotFound(t *testing.T) {
	env := newTestEnv()
	svc := newTestSaleService(env)
	sale, err := svc.CreateSale(env.ctx(env.seller), env.saleRequest(model.PaymentCash, map[string]int{"36": 1}))
	require.NoError(t, err)

	other := env.seller
	other.StoreID = uuid.New()
	_, err = svc.GetSale(env.ctx(other), sale.ID)

	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}
