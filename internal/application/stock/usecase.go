package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/inventory"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// UseCase registre des mouvements de stock.
type UseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	validators   []inventory.Validator
}

// NewUseCase construit le cas d'utilisation. Sans validateur, tout mouvement est écrit,
// même s'il rend le stock négatif ; passer inventory.RejectNegative pour l'interdire.
func NewUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	validators ...inventory.Validator,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		validators:   validators,
	}
}

// RecordMovement verrouille le produit (SELECT ... FOR UPDATE), calcule stock avant/après,
// met à jour le stock du produit (et son coût moyen sur une entrée valorisée) puis
// ajoute le mouvement au registre.
func (uc *UseCase) RecordMovement(ctx context.Context, userID string, in dto.RecordMovementRequest) (*dto.StockMovementResponse, error) {
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: produit obligatoire", domain.ErrInvalidInput)
	}
	if in.Type != entity.MovementTypeIn && in.Type != entity.MovementTypeOut {
		return nil, fmt.Errorf("%w: type de mouvement %q", domain.ErrInvalidInput, in.Type)
	}
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prix unitaire négatif", domain.ErrInvalidInput)
	}

	var mov *entity.StockMovement
	var low bool
	err := uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository) error {
		product, err := productRepo.GetForUpdate(ctx, userID, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if !product.StockTracked {
			return fmt.Errorf("%w: le produit n'a pas de suivi de stock", domain.ErrInvalidState)
		}

		after, err := inventory.ApplyMovement(product.CurrentStock, in.Type, in.Quantity)
		if err != nil {
			return err
		}
		for _, validate := range uc.validators {
			if err := validate(product, in.Type, after); err != nil {
				return err
			}
		}

		cost := product.AverageCost
		if in.Type == entity.MovementTypeIn && in.UnitPrice != nil {
			cost = inventory.CostCalculator(product.CurrentStock, product.AverageCost, in.Quantity, *in.UnitPrice)
		}

		now := time.Now()
		if err := productRepo.UpdateStock(ctx, product.ID, after, cost, now); err != nil {
			return err
		}
		mov = &entity.StockMovement{
			ID:          uuid.New().String(),
			UserID:      userID,
			ProductID:   product.ID,
			Type:        in.Type,
			Quantity:    in.Quantity,
			StockBefore: product.CurrentStock,
			StockAfter:  after,
			UnitPrice:   in.UnitPrice,
			DocumentRef: in.DocumentRef,
			SupplierID:  in.SupplierID,
			Notes:       in.Notes,
			CreatedAt:   now,
		}
		low = inventory.IsLowStock(after, product.MinimumStock)
		return movementRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	out := dto.MovementFromEntity(mov)
	out.LowStock = low
	return out, nil
}

// LowStock produits dont le stock est au plus égal au minimum (minimum > 0).
func (uc *UseCase) LowStock(ctx context.Context, userID string) ([]*dto.LowStockResponse, error) {
	list, err := uc.productRepo.ListLowStock(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.LowStockResponse, 0, len(list))
	for _, p := range list {
		if !inventory.IsLowStock(p.CurrentStock, p.MinimumStock) {
			continue
		}
		out = append(out, &dto.LowStockResponse{
			ProductID:    p.ID,
			Designation:  p.Designation,
			Reference:    p.Reference,
			Unit:         p.Unit,
			CurrentStock: p.CurrentStock,
			MinimumStock: p.MinimumStock,
		})
	}
	return out, nil
}

// ListMovements historique d'un produit, du plus récent au plus ancien.
func (uc *UseCase) ListMovements(ctx context.Context, userID, productID string, page dto.PageRequest) ([]*dto.StockMovementResponse, error) {
	page.DefaultPage()
	p, err := uc.productRepo.GetByID(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.movementRepo.ListByProduct(ctx, userID, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, dto.MovementFromEntity(m))
	}
	return out, nil
}
