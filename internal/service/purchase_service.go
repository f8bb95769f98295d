package service

import (
	"context"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseService interface {
	Create(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*model.PurchaseOrder, error)
	// Receive credits every line of a PENDENTE order and marks it RECEBIDO.
	Receive(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, status *string) ([]model.PurchaseOrder, error)
}

type purchaseService struct {
	repos  repository.Factory
	uow    repository.UnitOfWork
	ledger Ledger
	now    func() time.Time
}

func NewPurchaseService(repos repository.Factory, uow repository.UnitOfWork, ledger Ledger) PurchaseService {
	return &purchaseService{repos: repos, uow: uow, ledger: ledger, now: time.Now}
}

func (s *purchaseService) Create(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*model.PurchaseOrder, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	supplierID := uuid.MustParse(req.SupplierID)
	if _, err := s.repos.For(ctx).Suppliers.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}

	order := &model.PurchaseOrder{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Status:     model.OrderPending,
		TotalCost:  decimal.Zero,
		Items:      make([]model.PurchaseOrderItem, len(req.Items)),
	}
	for i, it := range req.Items {
		order.Items[i] = model.PurchaseOrderItem{
			PurchaseOrderID: order.ID,
			ProductID:       uuid.MustParse(it.ProductID),
			ColorSlug:       it.ColorSlug,
			Number:          it.Number,
			Quantity:        it.Quantity,
			CostPrice:       it.CostPrice,
		}
		order.TotalCost = order.TotalCost.Add(it.CostPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	err := s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return s.repos.For(ctx).PurchaseOrders.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *purchaseService) Receive(ctx context.Context, id uuid.UUID) error {
	if _, err := storePrincipal(ctx); err != nil {
		return err
	}
	var credited int
	err := s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		order, err := repos.PurchaseOrders.FindPendingForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		deltas := make([]model.StockDelta, len(order.Items))
		for i, it := range order.Items {
			deltas[i] = model.StockDelta{SKU: it.SKU(), Delta: it.Quantity}
		}
		if err := s.ledger.AdjustStockBatch(ctx, tx, deltas, model.StockReasonReceipt, &order.ID); err != nil {
			return err
		}
		credited = len(deltas)
		return repos.PurchaseOrders.MarkReceived(ctx, tx, order.ID, s.now())
	})
	if err != nil {
		return err
	}
	log.Info().Str("order_id", id.String()).Int("lines", credited).Msg("ordem de compra recebida")
	return nil
}

func (s *purchaseService) List(ctx context.Context, status *string) ([]model.PurchaseOrder, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	if status != nil && *status != model.OrderPending && *status != model.OrderReceived {
		return nil, apierror.Validation("status de ordem de compra inválido", map[string]string{"status": "oneof"})
	}
	return s.repos.For(ctx).PurchaseOrders.List(ctx, status)
}
