package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultLowStockThreshold is used when the caller passes no threshold.
const DefaultLowStockThreshold = 2

type CatalogService interface {
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error)
	AdjustStock(ctx context.Context, req dto.AdjustStockRequest) error
	// ProcessDunCode credits quantityPerEan units to the item whose barcode
	// is the EAN-13 embedded in dunCode.
	ProcessDunCode(ctx context.Context, dunCode string, quantityPerEan int) (*dto.DunResult, error)
	LowStock(ctx context.Context, threshold int) ([]dto.LowStockItem, error)
	AcknowledgeLowStock(ctx context.Context, productID uuid.UUID) error
	StockHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type catalogService struct {
	repos  repository.Factory
	uow    repository.UnitOfWork
	ledger Ledger
	now    func() time.Time
}

func NewCatalogService(repos repository.Factory, uow repository.UnitOfWork, ledger Ledger) CatalogService {
	return &catalogService{repos: repos, uow: uow, ledger: ledger, now: time.Now}
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *catalogService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:            uuid.New(),
		Brand:         strings.TrimSpace(req.Brand),
		Model:         strings.TrimSpace(req.Model),
		PurchasePrice: req.PurchasePrice,
		SalePrice:     req.SalePrice,
		Variants:      make([]model.ProductVariant, len(req.Variants)),
	}
	slugs := make(map[string]bool, len(req.Variants))
	for i, v := range req.Variants {
		slug := Slugify(v.Color)
		if slugs[slug] {
			return nil, apierror.Validation(fmt.Sprintf("cor repetida: %s", v.Color), map[string]string{"variants": "unique"})
		}
		slugs[slug] = true

		variant := model.ProductVariant{
			ID:        uuid.New(),
			ProductID: p.ID,
			Color:     strings.TrimSpace(v.Color),
			ColorSlug: slug,
			Items:     make([]model.ProductItem, len(v.Items)),
		}
		numbers := make(map[string]bool, len(v.Items))
		for j, it := range v.Items {
			if numbers[it.Number] {
				return nil, apierror.Validation(fmt.Sprintf("numeração repetida na cor %s: %s", v.Color, it.Number), map[string]string{"items": "unique"})
			}
			numbers[it.Number] = true
			variant.Items[j] = model.ProductItem{
				ID:        uuid.New(),
				ProductID: p.ID,
				VariantID: variant.ID,
				ColorSlug: slug,
				Number:    it.Number,
				Amount:    it.Amount,
				BarCode:   it.BarCode,
			}
		}
		p.Variants[i] = variant
	}

	err := s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := s.repos.For(ctx).Products.Create(ctx, tx, p); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.Conflict("código de barras ou numeração já cadastrado", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Products.FindByID(ctx, nil, id)
}

func (s *catalogService) SearchProducts(ctx context.Context, term string, limit int) ([]model.Product, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.For(ctx).Products.Search(ctx, strings.TrimSpace(term), limit)
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *catalogService) AdjustStock(ctx context.Context, req dto.AdjustStockRequest) error {
	p, err := adminPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	d := model.StockDelta{
		SKU:   model.SKU{ProductID: uuid.MustParse(req.ProductID), ColorSlug: req.ColorSlug, Number: req.Number},
		Delta: req.Delta,
	}
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.ledger.AdjustStock(ctx, tx, d, model.StockReasonAdjust, nil)
	})
	if err != nil {
		return err
	}
	log.Info().Str("user_id", p.UserID.String()).Str("sku", d.SKU.String()).Int("delta", d.Delta).Msg("estoque ajustado")
	return nil
}

func (s *catalogService) ProcessDunCode(ctx context.Context, dunCode string, quantityPerEan int) (*dto.DunResult, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if quantityPerEan <= 0 {
		return nil, apierror.Validation("quantidade por EAN deve ser positiva", map[string]string{"quantityPerEan": "min"})
	}
	ean, err := DunToEan(dunCode)
	if err != nil {
		return nil, err
	}

	res := &dto.DunResult{NotFoundEANs: []string{}}
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		item, err := s.repos.For(ctx).Products.FindItemByBarcode(ctx, tx, ean)
		if errors.Is(err, apierror.ErrNotFound) {
			res.NotFoundEANs = append(res.NotFoundEANs, ean)
			return nil
		}
		if err != nil {
			return err
		}
		sku := model.SKU{ProductID: item.ProductID, ColorSlug: item.ColorSlug, Number: item.Number}
		if err := s.ledger.AdjustStock(ctx, tx, model.StockDelta{SKU: sku, Delta: quantityPerEan}, model.StockReasonDunEntry, nil); err != nil {
			return err
		}
		res.UpdatedCount = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DunToEan extracts the EAN-13 carried by a DUN-14 code: the logistic digit
// and the DUN check digit are dropped and a new EAN check digit is computed.
func DunToEan(dun string) (string, error) {
	if len(dun) != 14 || strings.IndexFunc(dun, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return "", apierror.Validation("código DUN-14 inválido", map[string]string{"dunCode": "len"})
	}
	base := dun[1:13]
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(base[i]-'0') * w
	}
	check := (10 - sum%10) % 10
	return base + string(rune('0'+check)), nil
}

func (s *catalogService) LowStock(ctx context.Context, threshold int) ([]dto.LowStockItem, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	items, err := s.repos.For(ctx).Products.ListLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockItem, len(items))
	for i, it := range items {
		out[i] = dto.LowStockItem{
			ProductID: it.ProductID.String(),
			Brand:     it.Brand,
			Model:     it.Model,
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Amount:    it.Amount,
		}
	}
	return out, nil
}

func (s *catalogService) AcknowledgeLowStock(ctx context.Context, productID uuid.UUID) error {
	if _, err := storePrincipal(ctx); err != nil {
		return err
	}
	return s.repos.For(ctx).Products.AcknowledgeLowStock(ctx, productID, s.now())
}

func (s *catalogService) StockHistory(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repos.For(ctx).StockMovements.ListByProduct(ctx, productID, limit)
}

var accentFold = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'ê': 'e', 'è': 'e', 'ë': 'e',
	'í': 'i', 'î': 'i', 'ì': 'i', 'ï': 'i',
	'ó': 'o', 'ô': 'o', 'õ': 'o', 'ò': 'o', 'ö': 'o',
	'ú': 'u', 'û': 'u', 'ù': 'u', 'ü': 'u',
	'ç': 'c', 'ñ': 'n',
}

// Slugify turns a color name into its stock key: "Azul Marinho" -> "azul-marinho".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if f, ok := accentFold[r]; ok {
			r = f
		}
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
