package stock

import (
	"context"

	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// TxRunner exécute fn dans une transaction : le mouvement et le stock dénormalisé du
// produit sont écrits ensemble ou pas du tout.
type TxRunner interface {
	RunStock(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		movementRepo repository.StockMovementRepository,
	) error) error
}
