package repository

import (
	"context"

	"github.com/Code-Vida/apistock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockMovementRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, movs []model.StockMovement) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error)
}

type stockMovementRepo struct{ gate *Gate }

func NewStockMovementRepository(g *Gate) StockMovementRepository {
	return &stockMovementRepo{gate: g}
}

func (r *stockMovementRepo) CreateBatch(ctx context.Context, tx *gorm.DB, movs []model.StockMovement) error {
	col, err := r.gate.Collection(CollStockMovements)
	if err != nil {
		return err
	}
	for i := range movs {
		if err := col.InsertOne(ctx, tx, &movs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *stockMovementRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	col, err := r.gate.Collection(CollStockMovements)
	if err != nil {
		return nil, err
	}
	var movs []model.StockMovement
	err = col.Find(ctx, nil, By("product_id", productID), &movs, OrderBy("created_at DESC"), Limit(limit))
	return movs, err
}
