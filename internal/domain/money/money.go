// Package money calcule les montants HT, TVA et TTC des devis et factures.
// Aucun arrondi n'est appliqué au stockage ; l'affichage arrondit à deux décimales.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ExemptionNotice mention obligatoire lorsque le taux de TVA applicable est nul.
const ExemptionNotice = "TVA non applicable, art. 293 B du CGI"

var (
	hundred     = decimal.NewFromInt(100)
	defaultRate = decimal.NewFromInt(20)

	allowedRates = []decimal.Decimal{
		decimal.Zero,
		decimal.RequireFromString("5.5"),
		decimal.NewFromInt(10),
		decimal.NewFromInt(20),
	}
)

// Line données minimales d'une ligne pour le calcul des totaux.
type Line struct {
	Quantity    decimal.Decimal
	UnitPriceHT decimal.Decimal
	TaxRate     decimal.Decimal // pourcentage
}

// Totals totaux d'un document.
type Totals struct {
	HT  decimal.Decimal
	TVA decimal.Decimal
	TTC decimal.Decimal
}

// LineTotalHT = quantité × prix unitaire HT.
func LineTotalHT(quantity, unitPriceHT decimal.Decimal) decimal.Decimal {
	return Sanitize(quantity).Mul(Sanitize(unitPriceHT))
}

// LineTVA = total HT × taux / 100.
func LineTVA(lineTotalHT, taxRatePercent decimal.Decimal) decimal.Decimal {
	return Sanitize(lineTotalHT).Mul(Sanitize(taxRatePercent)).Div(hundred)
}

// DocumentTotals somme les lignes. TTC = HT + TVA.
func DocumentTotals(lines []Line) Totals {
	ht, tva := decimal.Zero, decimal.Zero
	for _, l := range lines {
		lht := LineTotalHT(l.Quantity, l.UnitPriceHT)
		ht = ht.Add(lht)
		tva = tva.Add(LineTVA(lht, l.TaxRate))
	}
	return Totals{HT: ht, TVA: tva, TTC: ht.Add(tva)}
}

// Sanitize ramène les valeurs négatives à zéro.
func Sanitize(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseAmount lit un montant saisi ("12.5", "12,5", " 1 200,00 "). Toute valeur
// illisible ou négative vaut zéro.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", ",", ".").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return Sanitize(d)
}

// IsAllowedTaxRate indique si rate fait partie des taux français {0, 5.5, 10, 20}.
func IsAllowedTaxRate(rate decimal.Decimal) bool {
	for _, r := range allowedRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// ResolveDefaultTaxRate applique l'ordre : réglages entreprise, puis profil, puis 0 si
// l'artisan est exonéré (franchise en base), sinon 20 %.
func ResolveDefaultTaxRate(settingsRate, profileRate *decimal.Decimal, taxExempt bool) decimal.Decimal {
	switch {
	case settingsRate != nil:
		return Sanitize(*settingsRate)
	case profileRate != nil:
		return Sanitize(*profileRate)
	case taxExempt:
		return decimal.Zero
	default:
		return defaultRate
	}
}

// RequiresExemptionNotice vrai si le taux résolu impose la mention 293 B.
func RequiresExemptionNotice(resolvedRate decimal.Decimal) bool {
	return resolvedRate.IsZero()
}

var frPrinter = message.NewPrinter(language.French)

// Format affiche un montant à la française avec deux décimales ("1 234,50").
func Format(d decimal.Decimal) string {
	s := frPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
	return strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
}

// FormatEUR ajoute le symbole euro.
func FormatEUR(d decimal.Decimal) string {
	return Format(d) + " €"
}

// FormatRate affiche un taux ("5,5 %", "20 %").
func FormatRate(rate decimal.Decimal) string {
	return strings.Replace(rate.String(), ".", ",", 1) + " %"
}
