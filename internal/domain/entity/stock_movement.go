package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Types de mouvement de stock.
const (
	MovementTypeIn  = "in"
	MovementTypeOut = "out"
)

// StockMovement écriture du registre de stock (ajout seul).
// StockAfter = StockBefore + Quantity (entrée) ou StockBefore - Quantity (sortie).
type StockMovement struct {
	ID          string
	UserID      string
	ProductID   string
	Type        string
	Quantity    decimal.Decimal // toujours > 0
	StockBefore decimal.Decimal
	StockAfter  decimal.Decimal
	UnitPrice   *decimal.Decimal
	DocumentRef string
	SupplierID  string
	Notes       string
	CreatedAt   time.Time
}
