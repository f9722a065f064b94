package inventory

import "github.com/shopspring/decimal"

// CostCalculator coût moyen pondéré après une entrée de stock.
// NouveauCoût = ((StockActuel × CoûtActuel) + (QtéEntrée × PrixEntrée)) / (StockActuel + QtéEntrée)
// Un stock négatif avant l'entrée est compté pour zéro.
func CostCalculator(stockActuel, coutActuel, qteEntree, prixEntree decimal.Decimal) decimal.Decimal {
	if stockActuel.IsNegative() {
		stockActuel = decimal.Zero
	}
	sum := stockActuel.Add(qteEntree)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActuel.Mul(coutActuel).Add(qteEntree.Mul(prixEntree))
	return num.Div(sum)
}
