package document_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/application/dto"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func baseInput(docType string) document.Input {
	return document.Input{
		Type:   docType,
		Number: "DEV-0001",
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Profile: entity.Profile{
			CompanyName: "Martin Plomberie",
			LegalForm:   "EI",
			SIRET:       "12345678900011",
		},
		Client: entity.Client{Name: "Mme Durand"},
		Lines: []document.Line{
			{Designation: "Remplacement chauffe-eau", Quantity: d("2"), UnitPriceHT: d("100.00"), TaxRate: d("20")},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Build
// ──────────────────────────────────────────────────────────────────────────────

func TestBuild_TotauxRecalcules(t *testing.T) {
	in := baseInput(document.TypeDevis)
	in.Lines = append(in.Lines,
		document.Line{Designation: "Main d'oeuvre", Quantity: d("3"), UnitPriceHT: d("45"), TaxRate: d("10")},
		document.Line{Designation: "Fournitures", Quantity: d("1"), UnitPriceHT: d("10"), TaxRate: d("20")},
	)

	doc, err := document.Build(in)
	require.NoError(t, err)

	assert.True(t, doc.Totals.HT.Equal(d("345")), "HT = %s", doc.Totals.HT)
	assert.True(t, doc.Totals.TVA.Equal(d("55.5")), "TVA = %s", doc.Totals.TVA)
	assert.True(t, doc.Totals.TTC.Equal(d("400.5")), "TTC = %s", doc.Totals.TTC)

	require.Len(t, doc.VAT, 2)
	assert.True(t, doc.VAT[0].Rate.Equal(d("10")))
	assert.True(t, doc.VAT[0].Amount.Equal(d("13.5")))
	assert.True(t, doc.VAT[1].Rate.Equal(d("20")))
	assert.True(t, doc.VAT[1].Base.Equal(d("210")))
	assert.True(t, doc.Lines[0].TotalHT.Equal(d("200")))
}

func TestBuild_MentionsParDefaut(t *testing.T) {
	doc, err := document.Build(baseInput(document.TypeFacture))
	require.NoError(t, err)

	m := doc.Mentions
	assert.Equal(t, document.DefaultPaymentConditions, m.PaymentConditions)
	assert.Equal(t, document.DefaultPaymentDelay, m.PaymentDelay)
	assert.Equal(t, document.DefaultLatePenaltyRate, m.LatePenaltyRate)
	assert.Contains(t, m.RecoveryIndemnity, "40 €")
	assert.Equal(t, document.DefaultEarlyPaymentDiscount, m.EarlyPaymentDiscount)
	assert.Empty(t, m.QuoteValidity, "pas de validité sur une facture")
	assert.Nil(t, m.Bank)
	assert.Equal(t, "FACTURE", doc.Title)
	assert.False(t, doc.Acceptance)
	assert.Equal(t, "Martin Plomberie (EI) - SIRET 12345678900011", doc.Footer)
}

func TestBuild_DevisValiditeEtBonPourAccord(t *testing.T) {
	in := baseInput(document.TypeDevis)
	in.Profile.QuoteValidity = "3 mois"

	doc, err := document.Build(in)
	require.NoError(t, err)

	assert.True(t, doc.Acceptance)
	assert.Equal(t, "3 mois", doc.Mentions.QuoteValidity)
	assert.Equal(t, "Durée de validité du devis : 3 mois", doc.Mentions.MentionLines()[0])
}

func TestBuild_CoordonneesBancairesSurFacture(t *testing.T) {
	in := baseInput(document.TypeFacture)
	in.Profile.BankName = "Banque Populaire"
	in.Profile.IBAN = "FR7630001007941234567890185"
	in.Profile.BIC = "BDFEFRPPCCT"

	doc, err := document.Build(in)
	require.NoError(t, err)

	require.NotNil(t, doc.Mentions.Bank)
	lines := doc.Mentions.MentionLines()
	assert.Equal(t, "Banque Populaire - IBAN : FR7630001007941234567890185 - BIC : BDFEFRPPCCT", lines[len(lines)-1])
}

func TestBuild_Mention293B(t *testing.T) {
	cases := []struct {
		name     string
		settings *entity.CompanySettings
		profile  *decimal.Decimal
		exempt   bool
		notice   bool
	}{
		{name: "aucun réglage : 20 %", notice: false},
		{name: "franchise en base", exempt: true, notice: true},
		{name: "profil à 0", profile: ptr("0"), notice: true},
		{name: "réglages à 0 prioritaires", settings: &entity.CompanySettings{DefaultTaxRate: ptr("0")}, profile: ptr("20"), notice: true},
		{name: "réglages à 10 prioritaires sur la franchise", settings: &entity.CompanySettings{DefaultTaxRate: ptr("10")}, exempt: true, notice: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := baseInput(document.TypeFacture)
			in.Settings = tc.settings
			in.Profile.DefaultTaxRate = tc.profile
			in.Profile.TVAExempt = tc.exempt

			doc, err := document.Build(in)
			require.NoError(t, err)
			if tc.notice {
				assert.Equal(t, money.ExemptionNotice, doc.Mentions.VATExemption)
				assert.Contains(t, doc.Mentions.MentionLines(), money.ExemptionNotice)
			} else {
				assert.Empty(t, doc.Mentions.VATExemption)
			}
		})
	}
}

func TestBuild_BandeauEssai(t *testing.T) {
	in := baseInput(document.TypeDevis)
	in.TrialMode = true

	doc, err := document.Build(in)
	require.NoError(t, err)
	assert.Equal(t, document.TrialWatermark, doc.Watermark)
}

func TestBuild_EntreeInvalide(t *testing.T) {
	in := baseInput("avoir")
	_, err := document.Build(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = baseInput(document.TypeDevis)
	in.Number = " "
	_, err = document.Build(in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFilename(t *testing.T) {
	in := baseInput(document.TypeFacture)
	in.Number = "FA-0001"
	doc, err := document.Build(in)
	require.NoError(t, err)
	assert.Equal(t, "facture-FA-0001.pdf", doc.Filename())

	assert.Equal(t, "FA_2024_ete", document.SanitizeFilename("FA/2024 été"))
	assert.Equal(t, "DEV-0001", document.SanitizeFilename("DEV-0001"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Paginate
// ──────────────────────────────────────────────────────────────────────────────

func manyLines(n int) []document.Line {
	lines := make([]document.Line, n)
	for i := range lines {
		lines[i] = document.Line{Designation: "Fourniture", Quantity: d("1"), UnitPriceHT: d("10"), TaxRate: d("20")}
	}
	return lines
}

func TestPaginate_UnePage(t *testing.T) {
	doc, err := document.Build(baseInput(document.TypeDevis))
	require.NoError(t, err)

	pages := document.Paginate(doc, document.DefaultLayout())
	require.Len(t, pages, 1)

	var kinds []document.BlockKind
	for _, b := range pages[0].Blocks {
		kinds = append(kinds, b.Kind)
	}
	assert.Equal(t, []document.BlockKind{
		document.BlockHeader,
		document.BlockTableHeader,
		document.BlockLine,
		document.BlockTotals,
		document.BlockMentions,
		document.BlockAcceptance,
	}, kinds)
}

func TestPaginate_EnTeteDeTableauRepete(t *testing.T) {
	in := baseInput(document.TypeFacture)
	in.Lines = manyLines(90)
	in.TrialMode = true
	doc, err := document.Build(in)
	require.NoError(t, err)

	layout := document.DefaultLayout()
	pages := document.Paginate(doc, layout)
	require.Greater(t, len(pages), 2)

	next := 0
	for _, pg := range pages {
		var used float64
		for _, b := range pg.Blocks {
			used += b.Height
		}
		assert.LessOrEqual(t, used, layout.ContentHeight, "page %d déborde", pg.Number)
		assert.Equal(t, document.BlockWatermark, pg.Blocks[0].Kind, "bandeau en tête de la page %d", pg.Number)

		sawHeader := false
		for _, b := range pg.Blocks {
			switch b.Kind {
			case document.BlockTableHeader:
				sawHeader = true
			case document.BlockLine:
				assert.True(t, sawHeader, "ligne %d sans en-tête de tableau sur la page %d", b.LineIndex, pg.Number)
				assert.Equal(t, next, b.LineIndex)
				next++
			}
		}
	}
	assert.Equal(t, 90, next, "toutes les lignes sont placées une seule fois")

	last := pages[len(pages)-1].Blocks
	assert.Equal(t, document.BlockMentions, last[len(last)-1].Kind)
}

func TestPaginate_LongueDesignation(t *testing.T) {
	in := baseInput(document.TypeDevis)
	in.Lines[0].Designation = strings.Repeat("x", 150)
	doc, err := document.Build(in)
	require.NoError(t, err)

	layout := document.DefaultLayout()
	pages := document.Paginate(doc, layout)
	for _, b := range pages[0].Blocks {
		if b.Kind == document.BlockLine {
			assert.Equal(t, layout.LineHeight+3*layout.WrapHeight, b.Height)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// RenderUseCase
// ──────────────────────────────────────────────────────────────────────────────

type fakeRenderer struct {
	got *document.Document
}

func (f *fakeRenderer) Render(doc *document.Document) ([]byte, error) {
	f.got = doc
	return []byte("%PDF-fake"), nil
}

func TestFromPayload_MontantsALaFrancaise(t *testing.T) {
	body := `{
		"type": "facture",
		"document": {"numero": "FA-0001", "date": "2024-03-01", "date_echeance": "2024-03-31"},
		"client": {"nom": "Mme Durand"},
		"profile": {"raison_sociale": "Martin Plomberie", "franchise_tva": true},
		"lignes": [
			{"designation": "Pose", "quantite": "2", "prix_unitaire_ht": "1 000,50", "taux_tva": 0},
			{"designation": "Déplacement", "quantite": 1, "prix_unitaire_ht": 30, "taux_tva": "0"}
		],
		"isTrialMode": true
	}`
	var req dto.RenderRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	r := &fakeRenderer{}
	uc := document.NewRenderUseCase(r, nil, nil, nil, nil, nil, nil)
	out, err := uc.FromPayload(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "facture-FA-0001.pdf", out.Filename)
	assert.Equal(t, []byte("%PDF-fake"), out.Content)
	require.NotNil(t, r.got)
	assert.True(t, r.got.Totals.HT.Equal(d("2031")), "HT = %s", r.got.Totals.HT)
	assert.True(t, r.got.Totals.TVA.IsZero())
	assert.Equal(t, money.ExemptionNotice, r.got.Mentions.VATExemption)
	assert.Equal(t, document.TrialWatermark, r.got.Watermark)
	require.NotNil(t, r.got.DueDate)
	assert.Equal(t, 31, r.got.DueDate.Day())
}

func TestFromPayload_DateInvalide(t *testing.T) {
	req := dto.RenderRequest{Type: "devis", Document: dto.RenderDocument{Number: "DEV-0001", Date: "01/03/2024"}}
	uc := document.NewRenderUseCase(&fakeRenderer{}, nil, nil, nil, nil, nil, nil)
	_, err := uc.FromPayload(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
