package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statuts d'un devis. Toute transition entre deux statuts distincts est permise.
const (
	QuoteStatusDraft    = "draft"
	QuoteStatusSent     = "sent"
	QuoteStatusAccepted = "accepted"
	QuoteStatusRefused  = "refused"
)

// QuoteNumberPrefix et InvoiceNumberPrefix préfixes de numérotation (DEV-0001 -> FA-0001).
const (
	QuoteNumberPrefix   = "DEV-"
	InvoiceNumberPrefix = "FA-"
)

// IsValidQuoteStatus indique si s est un statut de devis connu.
func IsValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRefused:
		return true
	}
	return false
}

// Quote représente un devis. Les totaux sont ceux calculés lors du dernier enregistrement des lignes.
type Quote struct {
	ID              string
	UserID          string
	ClientID        string
	Number          string
	Status          string
	ValidUntil      *time.Time
	TotalHT         decimal.Decimal
	TotalTVA        decimal.Decimal
	TotalTTC        decimal.Decimal
	Notes           string
	WorkDescription string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Lines []*QuoteLine
}

// QuoteLine ligne de devis. ProductID et SupplierID sont vides si la ligne est saisie librement.
type QuoteLine struct {
	ID            string
	QuoteID       string
	ProductID     string
	SupplierID    string
	Designation   string
	Reference     string
	Unit          string
	Quantity      decimal.Decimal
	UnitPriceHT   decimal.Decimal
	TaxRate       decimal.Decimal // pourcentage : 0, 5.5, 10 ou 20
	MarginPercent decimal.Decimal // informatif
	Position      int
}
