// Package pdf met en page les devis et factures en PDF A4 avec Maroto v2.
//
// Mise en page d'une page :
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  BANDEAU D'ESSAI (si version d'essai, sur chaque page)        │
//	│  ÉMETTEUR : raison sociale, adresse, SIRET │ DEVIS / FACTURE  │
//	│                                            │ N°, dates, client│
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLEAU : Désignation | Qté | Unité | PU HT | TVA | Total HT │
//	│  (en-tête répété sur chaque page de suite)                    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTAUX : Total HT / TVA par taux / Total TTC                 │
//	│  NOTES, MENTIONS LÉGALES, BON POUR ACCORD (devis)             │
//	│  PIED : SIRET / TVA             Page n/N                      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/application/document"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

// ── Palette ───────────────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorTrial   = &props.Color{Red: 200, Green: 30, Blue: 30}
)

const footerHeight = 8

// ── Renderer ──────────────────────────────────────────────────────────────────

// MarotoRenderer implémente document.Renderer.
type MarotoRenderer struct {
	layout document.Layout
}

// NewMarotoRenderer construit le renderer avec la mise en page A4 par défaut.
func NewMarotoRenderer() *MarotoRenderer {
	return &MarotoRenderer{layout: document.DefaultLayout()}
}

// Render découpe le document en pages puis génère le PDF.
func (r *MarotoRenderer) Render(doc *document.Document) ([]byte, error) {
	author := doc.Profile.CompanyName
	if author == "" {
		author = strings.TrimSpace(doc.Profile.FirstName + " " + doc.Profile.LastName)
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title+" "+doc.Number, true).
		WithAuthor(author, true).
		Build()

	m := maroto.New(cfg)

	planned := document.Paginate(doc, r.layout)
	pages := make([]core.Page, 0, len(planned))
	for _, pl := range planned {
		var used float64
		rows := make([]core.Row, 0, len(pl.Blocks)+2)
		for _, b := range pl.Blocks {
			rows = append(rows, blockRow(doc, b))
			used += b.Height
		}
		// marge de 0,5 mm : la somme des rangées reste sous la hauteur utile de Maroto
		if gap := r.layout.ContentHeight - used - 0.5; gap > 0 {
			rows = append(rows, row.New(gap))
		}
		rows = append(rows, footerRow(doc, pl.Number, len(planned)))
		pages = append(pages, page.New().Add(rows...))
	}
	m.AddPages(pages...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: générer le document: %w", err)
	}
	return out.GetBytes(), nil
}

func blockRow(doc *document.Document, b document.Block) core.Row {
	switch b.Kind {
	case document.BlockWatermark:
		return watermarkRow(doc.Watermark, b.Height)
	case document.BlockHeader:
		return headerRow(doc, b.Height)
	case document.BlockDescription:
		return textBlockRow("Description des travaux", doc.WorkDescription, b.Height)
	case document.BlockTableHeader:
		return tableHeaderRow(b.Height)
	case document.BlockLine:
		return lineRow(doc.Lines[b.LineIndex], b.Height)
	case document.BlockTotals:
		return totalsRow(doc, b.Height)
	case document.BlockNotes:
		return textBlockRow("Notes", doc.Notes, b.Height)
	case document.BlockMentions:
		return mentionsRow(doc.Mentions, b.Height)
	case document.BlockAcceptance:
		return acceptanceRow(b.Height)
	}
	return row.New(b.Height)
}

// ── Sections ──────────────────────────────────────────────────────────────────

func watermarkRow(label string, height float64) core.Row {
	return row.New(height).Add(
		col.New(12).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 11, Align: align.Center, Color: colorTrial, Top: 1,
		})),
	)
}

// headerRow : émetteur (gauche), type, numéro, dates et client (droite).
func headerRow(doc *document.Document, height float64) core.Row {
	p := doc.Profile
	issuer := []string{}
	if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" && name != p.CompanyName {
		issuer = append(issuer, name)
	}
	issuer = append(issuer,
		p.Address,
		strings.TrimSpace(p.PostalCode+" "+p.City),
		joinNonEmpty("  |  ", p.Phone, p.Email),
		prefixed("SIRET : ", p.SIRET),
		prefixed("TVA intracom. : ", p.TVANumber),
	)
	left := []core.Component{
		text.New(nonEmpty(p.CompanyName, "-"), props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
		}),
	}
	top := 8.0
	for _, s := range issuer {
		if s == "" {
			continue
		}
		left = append(left, text.New(s, props.Text{Size: 8, Top: top, Color: colorGray}))
		top += 5
	}

	right := []core.Component{
		text.New(doc.Title, props.Text{
			Style: fontstyle.Bold, Size: 16, Align: align.Right, Color: colorPrimary, Top: 1,
		}),
		text.New("N° "+doc.Number, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 9,
		}),
		text.New("Date : "+doc.Date.Format("02/01/2006"), props.Text{
			Size: 8, Align: align.Right, Top: 15, Color: colorGray,
		}),
	}
	switch {
	case doc.ValidUntil != nil:
		right = append(right, text.New("Valable jusqu'au : "+doc.ValidUntil.Format("02/01/2006"), props.Text{
			Size: 8, Align: align.Right, Top: 20, Color: colorGray,
		}))
	case doc.DueDate != nil:
		right = append(right, text.New("Échéance : "+doc.DueDate.Format("02/01/2006"), props.Text{
			Size: 8, Align: align.Right, Top: 20, Color: colorGray,
		}))
	}

	c := doc.Client
	right = append(right,
		text.New("CLIENT", props.Text{
			Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 28,
		}),
		text.New(nonEmpty(c.DisplayName(), "-"), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 33,
		}),
	)
	top = 39
	for _, s := range []string{
		c.Address,
		strings.TrimSpace(c.PostalCode + " " + c.City),
		joinNonEmpty("  |  ", prefixed("SIRET : ", c.SIRET), c.Email),
	} {
		if s == "" {
			continue
		}
		right = append(right, text.New(s, props.Text{Size: 8, Align: align.Right, Top: top, Color: colorGray}))
		top += 4.5
	}

	return row.New(height).Add(
		col.New(6).Add(left...),
		col.New(6).Add(right...),
	)
}

func textBlockRow(label, body string, height float64) core.Row {
	return row.New(height).Add(
		col.New(12).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(body, props.Text{Size: 8, Top: 5}),
		),
	)
}

// tableHeaderRow : en-tête du tableau sur fond bleu.
func tableHeaderRow(height float64) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(height).
		WithStyle(&props.Cell{BackgroundColor: colorPrimary}).
		Add(
			h("Désignation", 5, align.Left),
			h("Qté", 1, align.Center),
			h("Unité", 1, align.Center),
			h("PU HT", 2, align.Right),
			h("TVA", 1, align.Center),
			h("Total HT", 2, align.Right),
		)
}

func lineRow(l document.RenderedLine, height float64) core.Row {
	designation := l.Designation
	if l.Reference != "" {
		designation = "[" + l.Reference + "] " + designation
	}
	return row.New(height).Add(
		col.New(5).Add(text.New(designation, props.Text{Size: 8, Align: align.Left, Top: 1.5, Left: 1})),
		col.New(1).Add(text.New(formatQuantity(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1.5})),
		col.New(1).Add(text.New(l.Unit, props.Text{Size: 8, Align: align.Center, Top: 1.5})),
		col.New(2).Add(text.New(money.FormatEUR(l.UnitPriceHT), props.Text{Size: 8, Align: align.Right, Top: 1.5, Right: 1})),
		col.New(1).Add(text.New(money.FormatRate(l.TaxRate), props.Text{Size: 8, Align: align.Center, Top: 1.5})),
		col.New(2).Add(text.New(money.FormatEUR(l.TotalHT), props.Text{Size: 8, Align: align.Right, Top: 1.5, Right: 1})),
	)
}

// totalsRow : total HT, TVA ventilée par taux, total TTC.
func totalsRow(doc *document.Document, height float64) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}

	labels := []core.Component{label("Total HT :", 3)}
	values := []core.Component{value(money.FormatEUR(doc.Totals.HT), 3)}
	top := 8.0
	if len(doc.VAT) == 0 {
		labels = append(labels, label("TVA :", top))
		values = append(values, value(money.FormatEUR(doc.Totals.TVA), top))
		top += 5
	}
	for _, g := range doc.VAT {
		labels = append(labels, label("TVA "+money.FormatRate(g.Rate)+" :", top))
		values = append(values, value(money.FormatEUR(g.Amount), top))
		top += 5
	}
	top++
	labels = append(labels, text.New("Total TTC :", props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: top,
	}))
	values = append(values, text.New(money.FormatEUR(doc.Totals.TTC), props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: top,
	}))

	return row.New(height).Add(
		col.New(6),
		col.New(3).Add(labels...),
		col.New(3).Add(values...),
	)
}

func mentionsRow(m document.Mentions, height float64) core.Row {
	components := []core.Component{
		text.New("Mentions légales", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
	}
	top := 5.5
	for _, s := range m.MentionLines() {
		components = append(components, text.New(s, props.Text{Size: 7, Top: top, Color: colorGray}))
		top += 4
	}
	return row.New(height).Add(col.New(12).Add(components...))
}

// acceptanceRow : cadre de signature du devis.
func acceptanceRow(height float64) core.Row {
	return row.New(height).Add(
		col.New(6),
		col.New(6).Add(
			text.New("Bon pour accord", props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 2}),
			text.New("Date et signature du client, précédées de la mention manuscrite « Bon pour accord »", props.Text{
				Size: 7, Top: 8, Color: colorGray,
			}),
		),
	)
}

func footerRow(doc *document.Document, current, total int) core.Row {
	return row.New(footerHeight).Add(
		col.New(9).Add(
			line.New(props.Line{Color: colorGray, Thickness: 0.2}),
			text.New(doc.Footer, props.Text{Size: 6.5, Color: colorGray, Top: 2}),
		),
		col.New(3).Add(
			line.New(props.Line{Color: colorGray, Thickness: 0.2}),
			text.New(fmt.Sprintf("Page %d/%d", current, total), props.Text{
				Size: 6.5, Align: align.Right, Color: colorGray, Top: 2,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func prefixed(prefix, s string) string {
	if s == "" {
		return ""
	}
	return prefix + s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// formatQuantity "1,5" ; les entiers sans décimales.
func formatQuantity(q decimal.Decimal) string {
	return strings.Replace(q.String(), ".", ",", 1)
}
