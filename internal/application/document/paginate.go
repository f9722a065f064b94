package document

import "strings"

// BlockKind nature d'un bloc de mise en page.
type BlockKind string

const (
	BlockWatermark   BlockKind = "watermark"
	BlockHeader      BlockKind = "header"       // émetteur, client, titre et dates
	BlockDescription BlockKind = "description"  // description des travaux
	BlockTableHeader BlockKind = "table_header" // réimprimé en tête de chaque page de suite
	BlockLine        BlockKind = "line"
	BlockTotals      BlockKind = "totals"
	BlockNotes       BlockKind = "notes"
	BlockMentions    BlockKind = "mentions"
	BlockAcceptance  BlockKind = "acceptance"
)

// Block élément vertical insécable. LineIndex n'a de sens que pour BlockLine.
type Block struct {
	Kind      BlockKind
	Height    float64
	LineIndex int
}

// Page blocs d'une page, dans l'ordre.
type Page struct {
	Number int
	Blocks []Block
}

// Layout hauteurs en millimètres utilisées par le découpage.
type Layout struct {
	ContentHeight     float64 // hauteur utile (A4 moins marges et pied de page)
	WatermarkHeight   float64
	HeaderHeight      float64
	TableHeaderHeight float64
	LineHeight        float64 // ligne d'une seule ligne de texte
	WrapHeight        float64 // par ligne de texte supplémentaire
	CharsPerLine      int     // largeur de la colonne désignation
	TotalsHeight      float64
	VATRowHeight      float64
	TextLineHeight    float64 // notes, description et mentions
	SectionPadding    float64
	AcceptanceHeight  float64
}

// DefaultLayout A4 portrait, marges de 10 mm et 8 mm de pied de page.
func DefaultLayout() Layout {
	return Layout{
		ContentHeight:     269,
		WatermarkHeight:   8,
		HeaderHeight:      52,
		TableHeaderHeight: 8,
		LineHeight:        7,
		WrapHeight:        4,
		CharsPerLine:      48,
		TotalsHeight:      22,
		VATRowHeight:      5,
		TextLineHeight:    4,
		SectionPadding:    6,
		AcceptanceHeight:  30,
	}
}

// Paginate répartit le document en pages. Les lignes du tableau ne sont jamais coupées ;
// chaque page qui reçoit des lignes commence par l'en-tête du tableau, et le bandeau
// d'essai est répété sur chaque page.
func Paginate(doc *Document, l Layout) []Page {
	p := &planner{layout: l, doc: doc}
	p.newPage()

	p.place(Block{Kind: BlockHeader, Height: l.HeaderHeight})
	if doc.WorkDescription != "" {
		p.place(Block{Kind: BlockDescription, Height: p.textHeight(doc.WorkDescription)})
	}

	p.tableOpen = true
	p.place(Block{Kind: BlockTableHeader, Height: l.TableHeaderHeight})
	for i, line := range doc.Lines {
		h := l.LineHeight + float64(wrappedLines(line.Designation, l.CharsPerLine)-1)*l.WrapHeight
		p.place(Block{Kind: BlockLine, Height: h, LineIndex: i})
	}
	p.tableOpen = false

	totals := l.TotalsHeight
	if n := len(doc.VAT); n > 1 {
		totals += float64(n-1) * l.VATRowHeight
	}
	p.place(Block{Kind: BlockTotals, Height: totals})
	if doc.Notes != "" {
		p.place(Block{Kind: BlockNotes, Height: p.textHeight(doc.Notes)})
	}
	mentions := l.SectionPadding + float64(len(doc.Mentions.MentionLines()))*l.TextLineHeight
	p.place(Block{Kind: BlockMentions, Height: mentions})
	if doc.Acceptance {
		p.place(Block{Kind: BlockAcceptance, Height: l.AcceptanceHeight})
	}
	return p.pages
}

type planner struct {
	layout    Layout
	doc       *Document
	pages     []Page
	used      float64
	tableOpen bool
}

func (p *planner) current() *Page { return &p.pages[len(p.pages)-1] }

func (p *planner) newPage() {
	p.pages = append(p.pages, Page{Number: len(p.pages) + 1})
	p.used = 0
	if p.doc.Watermark != "" {
		p.push(Block{Kind: BlockWatermark, Height: p.layout.WatermarkHeight})
	}
}

func (p *planner) push(b Block) {
	pg := p.current()
	pg.Blocks = append(pg.Blocks, b)
	p.used += b.Height
}

// place ajoute b, en ouvrant une nouvelle page s'il ne tient pas. Un bloc plus haut qu'une
// page entière est posé seul sur sa page. Un en-tête de tableau resté seul en bas de page
// est retiré : il est réimprimé sur la page suivante.
func (p *planner) place(b Block) {
	if p.used+b.Height > p.layout.ContentHeight && !p.onlyFixed() {
		if b.Kind == BlockLine {
			p.dropTrailingTableHeader()
		}
		p.newPage()
		if p.tableOpen && b.Kind == BlockLine {
			p.push(Block{Kind: BlockTableHeader, Height: p.layout.TableHeaderHeight})
		}
	}
	p.push(b)
}

func (p *planner) dropTrailingTableHeader() {
	pg := p.current()
	if n := len(pg.Blocks); n > 0 && pg.Blocks[n-1].Kind == BlockTableHeader {
		p.used -= pg.Blocks[n-1].Height
		pg.Blocks = pg.Blocks[:n-1]
	}
}

// onlyFixed vrai si la page ne contient que les blocs répétés (bandeau, en-tête de tableau).
func (p *planner) onlyFixed() bool {
	for _, b := range p.current().Blocks {
		if b.Kind != BlockWatermark && b.Kind != BlockTableHeader {
			return false
		}
	}
	return true
}

func (p *planner) textHeight(s string) float64 {
	n := 0
	for _, para := range strings.Split(s, "\n") {
		n += wrappedLines(para, p.layout.CharsPerLine*2)
	}
	return p.layout.SectionPadding + float64(n)*p.layout.TextLineHeight
}

// wrappedLines nombre de lignes de texte d'une chaîne coupée à width caractères.
func wrappedLines(s string, width int) int {
	n := len([]rune(s))
	if width <= 0 || n <= width {
		return 1
	}
	return (n + width - 1) / width
}
