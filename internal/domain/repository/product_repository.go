package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// ProductRepository port de persistance du catalogue (partie stock).
// Les produits "standard" sont visibles de tous ; les "custom" de leur seul créateur.
type ProductRepository interface {
	GetByID(ctx context.Context, userID, id string) (*entity.Product, error)
	GetForUpdate(ctx context.Context, userID, id string) (*entity.Product, error)
	UpdateStock(ctx context.Context, id string, stock, averageCost decimal.Decimal, at time.Time) error
	ListLowStock(ctx context.Context, userID string) ([]*entity.Product, error)
}

// StockMovementRepository registre des mouvements de stock (ajout seul).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByProduct(ctx context.Context, userID, productID string, limit, offset int) ([]*entity.StockMovement, error)
}
