package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts de facture. Seul "cancelled" est décidé par l'utilisateur ; les autres sont
// dérivés des paiements à la lecture.
const (
	InvoiceStatusUnpaid        = "unpaid"
	InvoiceStatusPartiallyPaid = "partially_paid"
	InvoiceStatusPaid          = "paid"
	InvoiceStatusCancelled     = "cancelled"
)

// Invoice facture issue de la conversion d'un devis accepté.
type Invoice struct {
	ID        string
	UserID    string
	ClientID  string
	QuoteID   string // vide si le devis d'origine a été supprimé
	Number    string
	IssuedAt  time.Time
	DueDate   *time.Time
	Status    string
	TotalHT   decimal.Decimal
	TotalTVA  decimal.Decimal
	TotalTTC  decimal.Decimal
	Notes     string
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines  []*InvoiceLine
	Client *Client
}

// InvoiceLine copie figée d'une ligne de devis, sans lien vers le catalogue.
type InvoiceLine struct {
	ID            string
	InvoiceID     string
	SupplierID    string
	Designation   string
	Reference     string
	Unit          string
	Quantity      decimal.Decimal
	UnitPriceHT   decimal.Decimal
	TaxRate       decimal.Decimal
	MarginPercent decimal.Decimal
	Position      int
}

// InvoiceLineFromQuote copie une ligne de devis.
func InvoiceLineFromQuote(invoiceID string, l *QuoteLine) *InvoiceLine {
	return &InvoiceLine{
		InvoiceID:     invoiceID,
		SupplierID:    l.SupplierID,
		Designation:   l.Designation,
		Reference:     l.Reference,
		Unit:          l.Unit,
		Quantity:      l.Quantity,
		UnitPriceHT:   l.UnitPriceHT,
		TaxRate:       l.TaxRate,
		MarginPercent: l.MarginPercent,
		Position:      l.Position,
	}
}
