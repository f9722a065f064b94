package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// Validator contrôle un mouvement avant son écriture ; une erreur annule le mouvement.
type Validator func(product *entity.Product, movementType string, stockAfter decimal.Decimal) error

// RejectNegative refuse une sortie qui rendrait le stock négatif.
func RejectNegative(product *entity.Product, movementType string, stockAfter decimal.Decimal) error {
	if movementType == entity.MovementTypeOut && stockAfter.IsNegative() {
		return fmt.Errorf("%w: %s (disponible %s)", domain.ErrInsufficientStock, product.Designation, product.CurrentStock)
	}
	return nil
}

// ApplyMovement calcule le stock après mouvement.
func ApplyMovement(stockBefore decimal.Decimal, movementType string, quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: la quantité doit être positive", domain.ErrInvalidInput)
	}
	switch movementType {
	case entity.MovementTypeIn:
		return stockBefore.Add(quantity), nil
	case entity.MovementTypeOut:
		return stockBefore.Sub(quantity), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: type de mouvement %q", domain.ErrInvalidInput, movementType)
	}
}

// IsLowStock vrai si stock <= minimum et minimum > 0.
func IsLowStock(current, minimum decimal.Decimal) bool {
	return minimum.IsPositive() && current.LessThanOrEqual(minimum)
}
