package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Nature d'un produit du catalogue.
const (
	ProductKindStandard = "standard" // fourni par la plateforme
	ProductKindCustom   = "custom"   // créé par l'utilisateur
)

// Product entrée du catalogue. CurrentStock est le stock_after du dernier mouvement,
// dénormalisé pour la lecture. AverageCost est le coût moyen pondéré des entrées.
type Product struct {
	ID                string
	UserID            string
	Kind              string
	Designation       string
	Reference         string
	Unit              string
	DefaultPriceHT    decimal.Decimal
	DefaultTaxRate    decimal.Decimal
	DefaultMargin     decimal.Decimal
	DefaultSupplierID string
	Active            bool
	StockTracked      bool
	CurrentStock      decimal.Decimal
	MinimumStock      decimal.Decimal
	AverageCost       decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
