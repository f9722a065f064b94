package facture

import (
	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// PaidTotal somme des écritures, annulations comprises (montants négatifs).
func PaidTotal(payments []*entity.Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// RemainingBalance = max(0, TTC - payé).
func RemainingBalance(totalTTC, paid decimal.Decimal) decimal.Decimal {
	r := totalTTC.Sub(paid)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// DeriveStatus calcule le statut à la lecture : une facture annulée le reste ;
// sinon payée si le total est atteint, partiellement payée si un montant est réglé,
// impayée sinon.
func DeriveStatus(stored string, totalTTC, paid decimal.Decimal) string {
	switch {
	case stored == entity.InvoiceStatusCancelled:
		return entity.InvoiceStatusCancelled
	case paid.GreaterThanOrEqual(totalTTC):
		return entity.InvoiceStatusPaid
	case paid.IsPositive():
		return entity.InvoiceStatusPartiallyPaid
	default:
		return entity.InvoiceStatusUnpaid
	}
}
