package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/Code-Vida/apistock/internal/apierror"
	"github.com/Code-Vida/apistock/internal/dto"
	"github.com/Code-Vida/apistock/internal/model"
	"github.com/Code-Vida/apistock/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ReturnService interface {
	CreateReturn(ctx context.Context, req dto.CreateReturnRequest) (*model.Return, error)
	StoreCreditByCode(ctx context.Context, code string) (*model.StoreCredit, error)
}

type returnService struct {
	repos  repository.Factory
	uow    repository.UnitOfWork
	ledger Ledger
}

func NewReturnService(repos repository.Factory, uow repository.UnitOfWork, ledger Ledger) ReturnService {
	return &returnService{repos: repos, uow: uow, ledger: ledger}
}

// ── CreateReturn ──────────────────────────────────────────────────────────────
// Return insert, stock credit, the cash withdrawal of a cash refund and the
// store credit of a "Vale" refund commit together.

func (s *returnService) CreateReturn(ctx context.Context, req dto.CreateReturnRequest) (*model.Return, error) {
	p, err := storePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	saleID := uuid.MustParse(req.OriginalSaleID)

	ret := &model.Return{
		ID:                uuid.New(),
		OriginalSaleID:    saleID,
		TotalRefundAmount: req.TotalRefundAmount,
		RefundMethod:      req.RefundMethod,
		Reason:            req.Reason,
		CreatedBy:         p.UserID,
		Items:             make([]model.ReturnItem, len(req.Items)),
	}
	deltas := make([]model.StockDelta, len(req.Items))
	for i, it := range req.Items {
		ret.Items[i] = model.ReturnItem{
			ReturnID:  ret.ID,
			ProductID: uuid.MustParse(it.ProductID),
			ColorSlug: it.ColorSlug,
			Number:    it.Number,
			Quantity:  it.Quantity,
		}
		deltas[i] = model.StockDelta{SKU: ret.Items[i].SKU(), Delta: it.Quantity}
	}

	var credit *model.StoreCredit
	err = s.uow.Run(ctx, func(ctx context.Context, tx *gorm.DB) error {
		repos := s.repos.For(ctx)
		sale, err := repos.Sales.FindByID(ctx, tx, saleID)
		if err != nil {
			return err
		}
		prior, err := repos.Returns.ListBySale(ctx, tx, saleID)
		if err != nil {
			return err
		}
		if err := checkReturnedQuantities(sale, prior, ret.Items); err != nil {
			return err
		}

		if req.RefundMethod == model.PaymentStoreCredit {
			code, err := newCreditCode()
			if err != nil {
				return apierror.Infrastructure("falha ao gerar código do vale", err)
			}
			credit = &model.StoreCredit{
				ID:         uuid.New(),
				Code:       code,
				CustomerID: sale.CustomerID,
				ReturnID:   &ret.ID,
				Amount:     req.TotalRefundAmount,
				Balance:    req.TotalRefundAmount,
				IsActive:   true,
			}
			ret.StoreCreditID = &credit.ID
		}

		if err := repos.Returns.Create(ctx, tx, ret); err != nil {
			return err
		}
		if err := s.ledger.AdjustStockBatch(ctx, tx, deltas, model.StockReasonReturn, &ret.ID); err != nil {
			return err
		}

		switch req.RefundMethod {
		case model.PaymentCash:
			open, err := repos.Cash.FindOpen(ctx, tx)
			if err != nil {
				return apierror.Conflict("nenhum caixa aberto para registrar a saída do reembolso", err)
			}
			return repos.Cash.CreateMovement(ctx, tx, &model.CashMovement{
				SessionID:   open.ID,
				Type:        model.MovementWithdrawal,
				Amount:      req.TotalRefundAmount,
				Description: fmt.Sprintf("Devolução da Venda #%s", saleID.String()[:8]),
				CreatedBy:   p.UserID,
			})
		case model.PaymentStoreCredit:
			return repos.Credits.Create(ctx, tx, credit)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	evt := log.Info().
		Str("return_id", ret.ID.String()).
		Str("sale_id", saleID.String()).
		Str("refund_method", ret.RefundMethod)
	if credit != nil {
		evt = evt.Str("store_credit", credit.Code)
	}
	evt.Msg("devolução registrada")
	return ret, nil
}

// checkReturnedQuantities rejects returning a SKU that was not sold or more
// units than remain after the sale's earlier returns.
func checkReturnedQuantities(sale *model.Sale, prior []model.Return, items []model.ReturnItem) error {
	sold := make(map[model.SKU]int, len(sale.Items))
	for _, it := range sale.Items {
		sold[it.SKU()] += it.Quantity
	}
	returned := make(map[model.SKU]int, len(items))
	for _, r := range prior {
		for _, it := range r.Items {
			returned[it.SKU()] += it.Quantity
		}
	}
	for _, it := range items {
		returned[it.SKU()] += it.Quantity
		if returned[it.SKU()] > sold[it.SKU()] {
			return apierror.Validation(
				fmt.Sprintf("quantidade devolvida maior que a vendida para %s", describeSKU(it.SKU())),
				map[string]string{"items": "lte"},
			)
		}
	}
	return nil
}

const creditCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newCreditCode returns an 8 character code without ambiguous glyphs.
func newCreditCode() (string, error) {
	b := make([]byte, 8)
	max := big.NewInt(int64(len(creditCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = creditCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *returnService) StoreCreditByCode(ctx context.Context, code string) (*model.StoreCredit, error) {
	if _, err := storePrincipal(ctx); err != nil {
		return nil, err
	}
	return s.repos.For(ctx).Credits.FindByCode(ctx, code)
}
