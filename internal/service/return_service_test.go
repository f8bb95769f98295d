package service

import (
	"testing"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReturnService(env *testEnv) *returnService {
	return &returnService{repos: env.repos, uow: env.uow, ledger: env.ledger}
}

// soldSale commits a two-unit sale of size 36 and returns it.
func (e *testEnv) soldSale(t *testing.T) *model.Sale {
	t.Helper()
	sale, err := newTestSaleService(e).CreateSale(e.ctx(e.seller), e.saleRequest(model.PaymentCash, map[string]int{"36": 2}))
	require.NoError(t, err)
	return sale
}

func (e *testEnv) returnRequest(sale *model.Sale, method string, qty int) dto.CreateReturnRequest {
	return dto.CreateReturnRequest{
		OriginalSaleID: sale.ID.String(),
		Items: []dto.ReturnItemRequest{{
			ProductID: e.product.ID.String(), ColorSlug: "preto", Number: "36", Quantity: qty,
		}},
		TotalRefundAmount: e.product.SalePrice.Mul(decimal.NewFromInt(int64(qty))),
		RefundMethod:      method,
	}
}

func TestReturnService_CashRefundRecordsWithdrawal(t *testing.T) {
	env := newTestEnv()
	ctx := env.ctx(env.seller)
	_, err := newTestCashService(env).Open(ctx, decimal.NewFromInt(300))
	require.NoError(t, err)
	sale := env.soldSale(t)

	ret, err := newTestReturnService(env).CreateReturn(ctx, env.returnRequest(sale, model.PaymentCash, 1))

	require.NoError(t, err)
	assert.Equal(t, 4, env.stock("36"))
	require.Len(t, env.db.cashMovs, 1)
	assert.Equal(t, model.MovementWithdrawal, env.db.cashMovs[0].Type)
	assert.True(t, decimal.NewFromInt(150).Equal(env.db.cashMovs[0].Amount))
	assert.Contains(t, env.db.cashMovs[0].Description, sale.ID.String()[:8])
	require.Len(t, env.db.returns, 1)
	assert.Equal(t, ret.ID, env.db.returns[0].ID)
}

func TestReturnService_CashRefundWithoutSessionCommitsNothing(t *testing.T) {
	env := newTestEnv()
	sale := env.soldSale(t)

	_, err := newTestReturnService(env).CreateReturn(env.ctx(env.seller), env.returnRequest(sale, model.PaymentCash, 2))

	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
	assert.Contains(t, err.Error(), "nenhum caixa aberto")
	assert.Equal(t, 3, env.stock("36"))
	assert.Empty(t, env.db.returns)
	assert.Len(t, env.db.movements, 1, "only the sale debit")
}

func TestReturnService_StoreCreditRefundIssuesCredit(t *testing.T) {
	env := newTestEnv()
	sale := env.soldSale(t)
	svc := newTestReturnService(env)
	ctx := env.ctx(env.seller)

	ret, err := svc.CreateReturn(ctx, env.returnRequest(sale, model.PaymentStoreCredit, 2))

	require.NoError(t, err)
	require.NotNil(t, ret.StoreCreditID)
	require.Len(t, env.db.credits, 1)
	for code, c := range env.db.credits {
		assert.Len(t, code, 8)
		assert.True(t, decimal.NewFromInt(300).Equal(c.Balance))
		assert.True(t, c.IsActive)
		assert.Equal(t, ret.ID, *c.ReturnID)

		found, err := svc.StoreCreditByCode(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)
	}
	assert.Equal(t, 5, env.stock("36"))
	assert.Empty(t, env.db.cashMovs)
}

func TestReturnService_MoreThanSoldRejected(t *testing.T) {
	env := newTestEnv()
	sale := env.soldSale(t)

	_, err := newTestReturnService(env).CreateReturn(env.ctx(env.seller), env.returnRequest(sale, "Pix", 3))

	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Equal(t, 3, env.stock("36"))
}

func TestReturnService_EarlierReturnsCount(t *testing.T) {
	env := newTestEnv()
	sale := env.soldSale(t)
	svc := newTestReturnService(env)
	ctx := env.ctx(env.seller)

	_, err := svc.CreateReturn(ctx, env.returnRequest(sale, "Pix", 1))
	require.NoError(t, err)
	_, err = svc.CreateReturn(ctx, env.returnRequest(sale, "Pix", 2))

	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
	assert.Equal(t, 4, env.stock("36"))
	assert.Len(t, env.db.returns, 1)
}

func TestReturnService_UnknownSale(t *testing.T) {
	env := newTestEnv()
	sale := &model.Sale{ID: env.product.ID}

	_, err := newTestReturnService(env).CreateReturn(env.ctx(env.seller), env.returnRequest(sale, "Pix", 1))

	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestReturnService_StoreCreditByCode_Unknown(t *testing.T) {
	env := newTestEnv()

	_, err := newTestReturnService(env).StoreCreditByCode(env.ctx(env.seller), "ZZZZ9999")

	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestNewCreditCode_Alphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newCreditCode()
		require.NoError(t, err)
		require.Len(t, code, 8)
		for _, r := range code {
			assert.Contains(t, creditCodeAlphabet, string(r))
		}
	}
}
