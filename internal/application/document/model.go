// Package document assemble le contenu d'un devis ou d'une facture à imprimer :
// émetteur, client, lignes, totaux recalculés, mentions légales, et le découpage en pages.
// La mise en forme (PDF) est déléguée à un Renderer.
package document

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

// Types de document.
const (
	TypeDevis   = "devis"
	TypeFacture = "facture"
)

// Valeurs par défaut des mentions non renseignées dans le profil.
const (
	DefaultPaymentConditions    = "Paiement à réception de facture"
	DefaultPaymentDelay         = "30 jours"
	DefaultLatePenaltyRate      = "3 fois le taux d'intérêt légal"
	DefaultRecoveryIndemnity    = "Indemnité forfaitaire pour frais de recouvrement : 40 €"
	DefaultEarlyPaymentDiscount = "Aucun escompte pour paiement anticipé"
	DefaultQuoteValidity        = "30 jours"
)

// TrialWatermark bandeau des documents produits pendant l'essai.
const TrialWatermark = "VERSION D'ESSAI - DeviFact"

// Line ligne à imprimer.
type Line struct {
	Designation string
	Reference   string
	Unit        string
	Quantity    decimal.Decimal
	UnitPriceHT decimal.Decimal
	TaxRate     decimal.Decimal
}

// Input données brutes d'un document.
type Input struct {
	Type            string
	Number          string
	Date            time.Time
	ValidUntil      *time.Time
	DueDate         *time.Time
	Notes           string
	WorkDescription string
	Profile         entity.Profile
	Settings        *entity.CompanySettings
	Client          entity.Client
	Lines           []Line
	TrialMode       bool
}

// RenderedLine ligne avec son total HT.
type RenderedLine struct {
	Line
	TotalHT decimal.Decimal
}

// VATGroup ventilation de la TVA par taux.
type VATGroup struct {
	Rate   decimal.Decimal
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// Bank coordonnées bancaires imprimées sur les factures.
type Bank struct {
	Name string
	IBAN string
	BIC  string
}

// Mentions bloc des mentions légales.
type Mentions struct {
	PaymentConditions    string
	PaymentDelay         string
	LatePenaltyRate      string
	RecoveryIndemnity    string
	EarlyPaymentDiscount string
	QuoteValidity        string
	VATExemption         string // vide si la TVA s'applique
	Extra                string
	Bank                 *Bank
}

// Document contenu complet prêt à mettre en page.
type Document struct {
	Type            string
	Title           string
	Number          string
	Date            time.Time
	ValidUntil      *time.Time
	DueDate         *time.Time
	Profile         entity.Profile
	Client          entity.Client
	Lines           []RenderedLine
	Totals          money.Totals
	VAT             []VATGroup
	Notes           string
	WorkDescription string
	Mentions        Mentions
	Acceptance      bool // bloc "Bon pour accord" des devis
	Watermark       string
	Footer          string
}

// Build assemble le document. Les totaux sont recalculés à partir des lignes.
func Build(in Input) (*Document, error) {
	if in.Type != TypeDevis && in.Type != TypeFacture {
		return nil, fmt.Errorf("%w: type de document %q", domain.ErrInvalidInput, in.Type)
	}
	if strings.TrimSpace(in.Number) == "" {
		return nil, fmt.Errorf("%w: numéro de document manquant", domain.ErrInvalidInput)
	}

	doc := &Document{
		Type:            in.Type,
		Title:           "DEVIS",
		Number:          in.Number,
		Date:            in.Date,
		ValidUntil:      in.ValidUntil,
		DueDate:         in.DueDate,
		Profile:         in.Profile,
		Client:          in.Client,
		Notes:           in.Notes,
		WorkDescription: in.WorkDescription,
		Acceptance:      in.Type == TypeDevis,
	}
	if in.Type == TypeFacture {
		doc.Title = "FACTURE"
	}
	if in.TrialMode {
		doc.Watermark = TrialWatermark
	}

	lines := make([]money.Line, 0, len(in.Lines))
	groups := map[string]*VATGroup{}
	for _, l := range in.Lines {
		l.Quantity = money.Sanitize(l.Quantity)
		l.UnitPriceHT = money.Sanitize(l.UnitPriceHT)
		l.TaxRate = money.Sanitize(l.TaxRate)
		ht := money.LineTotalHT(l.Quantity, l.UnitPriceHT)
		doc.Lines = append(doc.Lines, RenderedLine{Line: l, TotalHT: ht})
		lines = append(lines, money.Line{Quantity: l.Quantity, UnitPriceHT: l.UnitPriceHT, TaxRate: l.TaxRate})

		key := l.TaxRate.String()
		g, ok := groups[key]
		if !ok {
			g = &VATGroup{Rate: l.TaxRate}
			groups[key] = g
		}
		g.Base = g.Base.Add(ht)
		g.Amount = g.Amount.Add(money.LineTVA(ht, l.TaxRate))
	}
	doc.Totals = money.DocumentTotals(lines)
	for _, g := range groups {
		doc.VAT = append(doc.VAT, *g)
	}
	sort.Slice(doc.VAT, func(i, j int) bool { return doc.VAT[i].Rate.LessThan(doc.VAT[j].Rate) })

	var settingsRate *decimal.Decimal
	if in.Settings != nil {
		settingsRate = in.Settings.DefaultTaxRate
		doc.Footer = in.Settings.FooterText
	}
	rate := money.ResolveDefaultTaxRate(settingsRate, in.Profile.DefaultTaxRate, in.Profile.TVAExempt)
	doc.Mentions = buildMentions(in, rate)
	if doc.Footer == "" {
		doc.Footer = issuerFooter(in.Profile)
	}
	return doc, nil
}

func buildMentions(in Input, resolvedRate decimal.Decimal) Mentions {
	p := in.Profile
	m := Mentions{
		PaymentConditions:    nonEmpty(p.PaymentConditions, DefaultPaymentConditions),
		PaymentDelay:         nonEmpty(p.PaymentDelay, DefaultPaymentDelay),
		LatePenaltyRate:      nonEmpty(p.LatePenaltyRate, DefaultLatePenaltyRate),
		RecoveryIndemnity:    nonEmpty(p.RecoveryIndemnity, DefaultRecoveryIndemnity),
		EarlyPaymentDiscount: nonEmpty(p.EarlyPaymentDiscount, DefaultEarlyPaymentDiscount),
	}
	if in.Type == TypeDevis {
		m.QuoteValidity = nonEmpty(p.QuoteValidity, DefaultQuoteValidity)
	}
	if money.RequiresExemptionNotice(resolvedRate) {
		m.VATExemption = money.ExemptionNotice
	}
	if in.Settings != nil {
		m.Extra = in.Settings.LegalMentions
	}
	if in.Type == TypeFacture && (p.IBAN != "" || p.BIC != "") {
		m.Bank = &Bank{Name: p.BankName, IBAN: p.IBAN, BIC: p.BIC}
	}
	return m
}

// MentionLines texte des mentions, dans l'ordre d'impression.
func (m Mentions) MentionLines() []string {
	var out []string
	if m.QuoteValidity != "" {
		out = append(out, "Durée de validité du devis : "+m.QuoteValidity)
	}
	out = append(out,
		"Conditions de paiement : "+m.PaymentConditions,
		"Délai de paiement : "+m.PaymentDelay,
		"Pénalités de retard : "+m.LatePenaltyRate,
		m.RecoveryIndemnity,
		m.EarlyPaymentDiscount,
	)
	if m.VATExemption != "" {
		out = append(out, m.VATExemption)
	}
	if m.Bank != nil {
		bank := "IBAN : " + m.Bank.IBAN
		if m.Bank.BIC != "" {
			bank += " - BIC : " + m.Bank.BIC
		}
		if m.Bank.Name != "" {
			bank = m.Bank.Name + " - " + bank
		}
		out = append(out, bank)
	}
	if m.Extra != "" {
		out = append(out, strings.Split(m.Extra, "\n")...)
	}
	return out
}

func issuerFooter(p entity.Profile) string {
	var parts []string
	if name := p.CompanyName; name != "" {
		if p.LegalForm != "" {
			name += " (" + p.LegalForm + ")"
		}
		parts = append(parts, name)
	}
	if p.SIRET != "" {
		parts = append(parts, "SIRET "+p.SIRET)
	}
	if p.TVANumber != "" {
		parts = append(parts, "TVA "+p.TVANumber)
	}
	return strings.Join(parts, " - ")
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Filename nom du fichier : <type>-<numéro nettoyé>.pdf, accents retirés.
func (d *Document) Filename() string {
	return fmt.Sprintf("%s-%s.pdf", d.Type, SanitizeFilename(d.Number))
}

// SanitizeFilename retire les accents puis remplace tout caractère hors [A-Za-z0-9_-] par "_".
func SanitizeFilename(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return unsafeFilename.ReplaceAllString(s, "_")
}

func nonEmpty(s, fallback string) string {
	if strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}
