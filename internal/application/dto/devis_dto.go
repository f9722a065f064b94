package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

// QuoteLineRequest ligne saisie dans le formulaire de devis.
type QuoteLineRequest struct {
	ProductID     string          `json:"produit_id,omitempty"`
	SupplierID    string          `json:"fournisseur_id,omitempty"`
	Designation   string          `json:"designation"`
	Reference     string          `json:"reference,omitempty"`
	Unit          string          `json:"unite,omitempty"`
	Quantity      decimal.Decimal `json:"quantite"`
	UnitPriceHT   decimal.Decimal `json:"prix_unitaire_ht"`
	TaxRate       decimal.Decimal `json:"taux_tva"`
	MarginPercent decimal.Decimal `json:"marge,omitempty"`
}

// CreateQuoteRequest body de POST /api/devis.
type CreateQuoteRequest struct {
	ClientID        string             `json:"client_id"`
	ValidUntil      *time.Time         `json:"date_validite,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	WorkDescription string             `json:"description_travaux,omitempty"`
	Lines           []QuoteLineRequest `json:"lignes"`
}

// UpdateQuoteRequest body de PUT /api/devis/:id (remplace les lignes).
type UpdateQuoteRequest = CreateQuoteRequest

// SetQuoteStatusRequest body de PATCH /api/devis/:id/statut.
type SetQuoteStatusRequest struct {
	Status string `json:"statut"`
}

// QuoteLineResponse ligne de devis avec son total HT.
type QuoteLineResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"produit_id,omitempty"`
	SupplierID    string          `json:"fournisseur_id,omitempty"`
	Designation   string          `json:"designation"`
	Reference     string          `json:"reference,omitempty"`
	Unit          string          `json:"unite,omitempty"`
	Quantity      decimal.Decimal `json:"quantite"`
	UnitPriceHT   decimal.Decimal `json:"prix_unitaire_ht"`
	TaxRate       decimal.Decimal `json:"taux_tva"`
	MarginPercent decimal.Decimal `json:"marge"`
	TotalHT       decimal.Decimal `json:"total_ht"`
	Position      int             `json:"ordre"`
}

// QuoteResponse devis. Locked indique qu'une facture en est issue.
type QuoteResponse struct {
	ID              string              `json:"id"`
	ClientID        string              `json:"client_id"`
	Number          string              `json:"numero"`
	Status          string              `json:"statut"`
	ValidUntil      *time.Time          `json:"date_validite,omitempty"`
	TotalHT         decimal.Decimal     `json:"total_ht"`
	TotalTVA        decimal.Decimal     `json:"total_tva"`
	TotalTTC        decimal.Decimal     `json:"total_ttc"`
	Notes           string              `json:"notes,omitempty"`
	WorkDescription string              `json:"description_travaux,omitempty"`
	Locked          bool                `json:"verrouille"`
	CreatedAt       time.Time           `json:"date_creation"`
	Lines           []QuoteLineResponse `json:"lignes,omitempty"`
}

// NextNumberResponse aperçu du prochain numéro.
type NextNumberResponse struct {
	Number string `json:"numero"`
}

// QuoteFromEntity construit la réponse.
func QuoteFromEntity(q *entity.Quote, locked bool) *QuoteResponse {
	out := &QuoteResponse{
		ID:              q.ID,
		ClientID:        q.ClientID,
		Number:          q.Number,
		Status:          q.Status,
		ValidUntil:      q.ValidUntil,
		TotalHT:         q.TotalHT,
		TotalTVA:        q.TotalTVA,
		TotalTTC:        q.TotalTTC,
		Notes:           q.Notes,
		WorkDescription: q.WorkDescription,
		Locked:          locked,
		CreatedAt:       q.CreatedAt,
	}
	for _, l := range q.Lines {
		out.Lines = append(out.Lines, QuoteLineResponse{
			ID:            l.ID,
			ProductID:     l.ProductID,
			SupplierID:    l.SupplierID,
			Designation:   l.Designation,
			Reference:     l.Reference,
			Unit:          l.Unit,
			Quantity:      l.Quantity,
			UnitPriceHT:   l.UnitPriceHT,
			TaxRate:       l.TaxRate,
			MarginPercent: l.MarginPercent,
			TotalHT:       money.LineTotalHT(l.Quantity, l.UnitPriceHT),
			Position:      l.Position,
		})
	}
	return out
}
