package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

// ──────────────────────────────────────────────────────────────────────────────
// Totaux
// ──────────────────────────────────────────────────────────────────────────────

// Devis DEV-0001 : 2 × 100,00 HT à 20 % -> 200 / 40 / 240.
func TestDocumentTotals_ScenarioDEV0001(t *testing.T) {
	totals := money.DocumentTotals([]money.Line{
		{Quantity: d("2"), UnitPriceHT: d("100.00"), TaxRate: d("20")},
	})

	assert.True(t, totals.HT.Equal(d("200")), "HT = %s", totals.HT)
	assert.True(t, totals.TVA.Equal(d("40")), "TVA = %s", totals.TVA)
	assert.True(t, totals.TTC.Equal(d("240")), "TTC = %s", totals.TTC)
}

// TTC = HT + TVA et HT = Σ quantité × prix, exactement, pour des lignes aux taux mélangés.
func TestDocumentTotals_InvariantExact(t *testing.T) {
	lines := []money.Line{
		{Quantity: d("3"), UnitPriceHT: d("19.99"), TaxRate: d("5.5")},
		{Quantity: d("0.333"), UnitPriceHT: d("12.10"), TaxRate: d("10")},
		{Quantity: d("1"), UnitPriceHT: d("0.01"), TaxRate: d("20")},
		{Quantity: d("7.25"), UnitPriceHT: d("42"), TaxRate: d("0")},
	}
	totals := money.DocumentTotals(lines)

	sumHT := decimal.Zero
	for _, l := range lines {
		sumHT = sumHT.Add(l.Quantity.Mul(l.UnitPriceHT))
	}
	assert.True(t, totals.HT.Equal(sumHT))
	assert.True(t, totals.TTC.Equal(totals.HT.Add(totals.TVA)))
	// 59.97*5.5% + 4.0293*10% + 0.01*20% = 3.29835 + 0.40293 + 0.002
	assert.True(t, totals.TVA.Equal(d("3.70328")), "TVA = %s", totals.TVA)
}

func TestDocumentTotals_SansLigne(t *testing.T) {
	totals := money.DocumentTotals(nil)
	assert.True(t, totals.HT.IsZero())
	assert.True(t, totals.TVA.IsZero())
	assert.True(t, totals.TTC.IsZero())
}

// Les valeurs négatives sont neutralisées.
func TestLineTotalHT_NegatifVautZero(t *testing.T) {
	assert.True(t, money.LineTotalHT(d("-2"), d("10")).IsZero())
	assert.True(t, money.LineTVA(d("100"), d("-20")).IsZero())
}

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"12.5":        "12.5",
		"12,5":        "12.5",
		" 1 200,00 ":  "1200",
		"":            "0",
		"abc":         "0",
		"-4":          "0",
		"1 000,10": "1000.1",
	}
	for in, want := range cases {
		assert.True(t, money.ParseAmount(in).Equal(d(want)), "ParseAmount(%q) = %s", in, money.ParseAmount(in))
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Taux de TVA
// ──────────────────────────────────────────────────────────────────────────────

func TestIsAllowedTaxRate(t *testing.T) {
	for _, r := range []string{"0", "5.5", "10", "20", "20.00"} {
		assert.True(t, money.IsAllowedTaxRate(d(r)), r)
	}
	for _, r := range []string{"19.6", "7", "-20", "100"} {
		assert.False(t, money.IsAllowedTaxRate(d(r)), r)
	}
}

func TestResolveDefaultTaxRate_OrdreDePriorite(t *testing.T) {
	// réglages entreprise prioritaires, même à zéro
	assert.True(t, money.ResolveDefaultTaxRate(ptr("0"), ptr("20"), false).IsZero())
	assert.True(t, money.ResolveDefaultTaxRate(ptr("10"), ptr("20"), true).Equal(d("10")))
	// puis profil
	assert.True(t, money.ResolveDefaultTaxRate(nil, ptr("5.5"), true).Equal(d("5.5")))
	// puis exonération
	assert.True(t, money.ResolveDefaultTaxRate(nil, nil, true).IsZero())
	// sinon 20 %
	assert.True(t, money.ResolveDefaultTaxRate(nil, nil, false).Equal(d("20")))
}

func TestRequiresExemptionNotice(t *testing.T) {
	assert.True(t, money.RequiresExemptionNotice(money.ResolveDefaultTaxRate(nil, nil, true)))
	assert.False(t, money.RequiresExemptionNotice(money.ResolveDefaultTaxRate(nil, nil, false)))
	assert.False(t, money.RequiresExemptionNotice(d("5.5")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Affichage
// ──────────────────────────────────────────────────────────────────────────────

func TestFormat_DeuxDecimalesVirgule(t *testing.T) {
	assert.Equal(t, "240,00", money.Format(d("240")))
	assert.Equal(t, "0,01", money.Format(d("0.005")))
	require.Contains(t, money.Format(d("1234.5")), ",50")
	assert.Equal(t, "240,00 €", money.FormatEUR(d("240")))
	assert.Equal(t, "5,5 %", money.FormatRate(d("5.5")))
}
