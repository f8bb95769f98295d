package service

import (
	"context"
	"errors"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"
	"github.com/Code-Vida/apistock/internal/tenant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FiscalQueue hands a committed sale to the fiscal outbox.
type FiscalQueue interface {
	EnqueueEmission(ctx context.Context, storeID, saleID uuid.UUID) error
}

type SaleService interface {
	CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*model.Sale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

type saleService struct {
	repos  repository.Factory
	uow    repository.UnitOfWork
	ledger Ledger
	fiscal FiscalQueue
}

// NewSaleService builds the sale orchestrator. fiscal may be nil, in which
// case no store gets fiscal receipts.
func NewSaleService(repos repository.Factory, uow repository.UnitOfWork, ledger Ledger, fiscal FiscalQueue) SaleService {
	return &saleService{repos: repos, uow: uow, ledger: ledger, fiscal: fiscal}
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// Sale insert and stock debits commit together. Fiscal hand-off and loyalty
// credit run after commit and never undo the sale.

func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*model.Sale, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	sale, err := buildSale(p, req)
	if err != nil {
		return nil, err
	}

	if req.ClientRequestID != nil {
		existing, err := s.repos.For(ctx).Sales.FindByClientRequestID(ctx, *req.ClientRequestID)
		if err == nil {
			log.Info().Str("sale_id", existing.ID.String()).Msg("venda repetida para a mesma requisição")
			return existing, nil
		}
		if !errors.Is(err, apierror.ErrNotFound) {
			return nil, err
		}
	}

	deltas := make([]model.StockDelta, len(sale.Items))
	for i, it := range sale.Items {
		deltas[i] = model.StockDelta{SKU: it.SKU(), Delta: -it.Quantity}
	}

	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		if err := repos.Sales.Create(ctx, tx, sale); err != nil {
			return err
		}
		if err := s.ledger.AdjustStockBatch(ctx, tx, deltas, model.StockReasonSale, &sale.ID); err != nil {
			return err
		}
		if sale.PaymentMethod == model.PaymentStoreCredit {
			ok, err := repos.Credits.Redeem(ctx, tx, *req.StoreCreditCode, sale.FinalAmount)
			if err != nil {
				return err
			}
			if !ok {
				return apierror.Precondition("vale inexistente, inativo ou sem saldo suficiente")
			}
		}
		return nil
	})
	if err != nil && req.ClientRequestID != nil && apierror.KindOf(err) == apierror.KindConflict {
		// A concurrent request with the same key committed first.
		if existing, ferr := s.repos.For(ctx).Sales.FindByClientRequestID(ctx, *req.ClientRequestID); ferr == nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("store_id", p.StoreID.String()).
		Str("final_amount", sale.FinalAmount.String()).
		Int("items", len(sale.Items)).
		Msg("venda registrada")

	s.afterCommit(ctx, p, sale)
	return sale, nil
}

func buildSale(p tenant.Principal, req dto.CreateSaleRequest) (*model.Sale, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.Discount.GreaterThan(req.TotalAmount) {
		return nil, apierror.Validation("desconto maior que o total da venda", map[string]string{"discount": "lte"})
	}
	if req.PaymentMethod == model.PaymentStoreCredit && (req.StoreCreditCode == nil || *req.StoreCreditCode == "") {
		return nil, apierror.Validation("código do vale é obrigatório para pagamento com vale", map[string]string{"storeCreditCode": "required"})
	}

	sale := &model.Sale{
		ID:              uuid.New(),
		UserID:          p.UserID,
		ClientRequestID: req.ClientRequestID,
		TotalAmount:     req.TotalAmount,
		Discount:        req.Discount,
		FinalAmount:     req.FinalAmount,
		PaymentMethod:   req.PaymentMethod,
		NFCeStatus:      model.NFCeNotIssued,
		Items:           make([]model.SaleItem, len(req.Items)),
	}
	if req.CustomerID != nil {
		id := uuid.MustParse(*req.CustomerID)
		sale.CustomerID = &id
	}
	for i, it := range req.Items {
		sale.Items[i] = model.SaleItem{
			SaleID:      sale.ID,
			ProductID:   uuid.MustParse(it.ProductID),
			ColorSlug:   it.ColorSlug,
			Number:      it.Number,
			Quantity:    it.Quantity,
			PriceAtSale: it.PriceAtSale,
			CostAtSale:  it.CostAtSale,
		}
	}
	return sale, nil
}

// afterCommit runs the best-effort steps of a committed sale.
func (s *saleService) afterCommit(ctx context.Context, p tenant.Principal, sale *model.Sale) {
	repos := s.repos.For(ctx)
	store, err := repos.Stores.FindByID(ctx, p.StoreID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("pós-venda: loja não carregada")
		return
	}
	s.handOffFiscal(ctx, repos, store, sale)
	s.creditLoyalty(ctx, store, sale)
}

func (s *saleService) handOffFiscal(ctx context.Context, repos *repository.Set, store *model.Store, sale *model.Sale) {
	if s.fiscal == nil || !store.FiscalConfigured() {
		return
	}
	status := model.NFCePending
	if err := s.fiscal.EnqueueEmission(ctx, store.ID, sale.ID); err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("falha ao enfileirar emissão de NFC-e")
		status = model.NFCeSendError
	}
	if err := repos.Sales.UpdateFiscal(ctx, sale.ID, repository.FiscalUpdate{Status: status}); err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("falha ao atualizar status fiscal")
		return
	}
	sale.NFCeStatus = status
}

// creditLoyalty credits floor(finalAmount × rate) points in its own
// transaction.
func (s *saleService) creditLoyalty(ctx context.Context, store *model.Store, sale *model.Sale) {
	if !store.LoyaltyEnabled || sale.CustomerID == nil || !store.LoyaltyPointsPerUnit.IsPositive() {
		return
	}
	points := int(sale.FinalAmount.Mul(store.LoyaltyPointsPerUnit).Floor().IntPart())
	if points <= 0 {
		return
	}
	err := s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		if err := repos.Customers.AddLoyaltyPoints(ctx, tx, *sale.CustomerID, points); err != nil {
			return err
		}
		entry := &model.LoyaltyEntry{CustomerID: *sale.CustomerID, SaleID: sale.ID, Points: points}
		if err := repos.Customers.CreateLoyaltyEntry(ctx, tx, entry); err != nil {
			return err
		}
		return repos.Sales.SetLoyaltyPoints(ctx, tx, sale.ID, points)
	})
	if err != nil {
		log.Error().Err(err).Str("sale_id", sale.ID.String()).Msg("falha ao creditar pontos de fidelidade")
		return
	}
	sale.LoyaltyPoints = points
}

// ── GetSale ───────────────────────────────────────────────────────────────────

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Sales.FindByID(ctx, nil, id)
}

