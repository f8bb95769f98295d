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

func newTestCatalogService(env *testEnv) *catalogService {
	return &catalogService{repos: env.repos, uow: env.uow, ledger: env.ledger, now: env.clock.Now}
}

func TestDunToEan(t *testing.T) {
	ean, err := DunToEan("17891234567895")
	require.NoError(t, err)
	assert.Equal(t, "7891234567895", ean)

	for _, bad := range []string{"", "7891234567895", "1789123456789X"} {
		_, err := DunToEan(bad)
		assert.Equal(t, apierror.KindValidation, apierror.KindOf(err), bad)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Azul Marinho":      "azul-marinho",
		"  Preto  ":         "preto",
		"Café com Leite":    "cafe-com-leite",
		"Verde/Limão":       "verde-limao",
		"Off-White (nude)!": "off-white-nude",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func productRequest() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Brand: "Moleca", Model: "Sapatilha",
		PurchasePrice: decimal.NewFromInt(40), SalePrice: decimal.NewFromInt(89),
		Variants: []dto.ProductVariantRequest{
			{Color: "Azul Marinho", Items: []dto.ProductItemRequest{
				{Number: "35", Amount: 2, BarCode: strPtr("7891234567895")},
				{Number: "36", Amount: 0},
			}},
		},
	}
}

func TestCatalogService_CreateProduct(t *testing.T) {
	env := newTestEnv()
	svc := newTestCatalogService(env)
	ctx := env.ctx(env.seller)

	p, err := svc.CreateProduct(ctx, productRequest())
	require.NoError(t, err)
	assert.Equal(t, env.store.ID, p.StoreID)
	assert.Equal(t, "azul-marinho", p.Variants[0].ColorSlug)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Len(t, got.Variants[0].Items, 2)
}

func TestCatalogService_CreateProduct_RepeatedColorRejected(t *testing.T) {
	env := newTestEnv()
	req := productRequest()
	req.Variants = append(req.Variants, dto.ProductVariantRequest{
		Color: "azul marinho", Items: []dto.ProductItemRequest{{Number: "37"}},
	})

	_, err := newTestCatalogService(env).CreateProduct(env.ctx(env.seller), req)

	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestCatalogService_CreateProduct_DuplicateBarcodeConflict(t *testing.T) {
	env := newTestEnv()
	svc := newTestCatalogService(env)
	ctx := env.ctx(env.seller)
	_, err := svc.CreateProduct(ctx, productRequest())
	require.NoError(t, err)

	_, err = svc.CreateProduct(ctx, productRequest())

	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCatalogService_ProcessDunCode(t *testing.T) {
	env := newTestEnv()
	svc := newTestCatalogService(env)
	ctx := env.ctx(env.seller)
	p, err := svc.CreateProduct(ctx, productRequest())
	require.NoError(t, err)

	res, err := svc.ProcessDunCode(ctx, "17891234567895", 12)
	require.NoError(t, err)
	assert.Equal(t, 1, res.UpdatedCount)
	assert.Empty(t, res.NotFoundEANs)
	sku := model.SKU{ProductID: p.ID, ColorSlug: "azul-marinho", Number: "35"}
	assert.Equal(t, 14, env.db.amount(env.store.ID, sku))

	res, err = svc.ProcessDunCode(ctx, "17890000000001", 12)
	require.NoError(t, err)
	assert.Zero(t, res.UpdatedCount)
	assert.Len(t, res.NotFoundEANs, 1)
}

func TestCatalogService_AdjustStock_AdminOnly(t *testing.T) {
	env := newTestEnv()
	svc := newTestCatalogService(env)
	req := dto.AdjustStockRequest{ProductID: env.product.ID.String(), ColorSlug: "preto", Number: "36", Delta: -5}

	err := svc.AdjustStock(env.ctx(env.seller), req)
	assert.ErrorIs(t, err, apierror.ErrForbidden)

	require.NoError(t, svc.AdjustStock(env.ctx(env.admin), req))
	assert.Equal(t, 0, env.stock("36"))
	assert.Equal(t, model.StockReasonAdjust, env.db.movements[0].Reason)
}

func TestCatalogService_LowStockAndAcknowledge(t *testing.T) {
	env := newTestEnv()
	svc := newTestCatalogService(env)
	ctx := env.ctx(env.seller)

	items, err := svc.LowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "37", items[0].Number)

	require.NoError(t, svc.AcknowledgeLowStock(ctx, env.product.ID))
	items, err = svc.LowStock(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
}
