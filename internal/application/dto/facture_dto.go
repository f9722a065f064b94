package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

// ClientResponse client rattaché à un document.
type ClientResponse struct {
	ID          string `json:"id"`
	Name        string `json:"nom"`
	CompanyName string `json:"entreprise,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"telephone,omitempty"`
	Address     string `json:"adresse,omitempty"`
	PostalCode  string `json:"code_postal,omitempty"`
	City        string `json:"ville,omitempty"`
}

// InvoiceLineResponse ligne de facture.
type InvoiceLineResponse struct {
	ID          string          `json:"id"`
	SupplierID  string          `json:"fournisseur_id,omitempty"`
	Designation string          `json:"designation"`
	Reference   string          `json:"reference,omitempty"`
	Unit        string          `json:"unite,omitempty"`
	Quantity    decimal.Decimal `json:"quantite"`
	UnitPriceHT decimal.Decimal `json:"prix_unitaire_ht"`
	TaxRate     decimal.Decimal `json:"taux_tva"`
	TotalHT     decimal.Decimal `json:"total_ht"`
	Position    int             `json:"ordre"`
}

// InvoiceResponse facture avec montants réglés et statut dérivé des paiements.
type InvoiceResponse struct {
	ID        string                `json:"id"`
	QuoteID   string                `json:"devis_id,omitempty"`
	ClientID  string                `json:"client_id"`
	Client    *ClientResponse       `json:"client,omitempty"`
	Number    string                `json:"numero"`
	IssuedAt  time.Time             `json:"date_emission"`
	DueDate   *time.Time            `json:"date_echeance,omitempty"`
	Status    string                `json:"statut"`
	TotalHT   decimal.Decimal       `json:"total_ht"`
	TotalTVA  decimal.Decimal       `json:"total_tva"`
	TotalTTC  decimal.Decimal       `json:"total_ttc"`
	Paid      decimal.Decimal       `json:"montant_paye"`
	Remaining decimal.Decimal       `json:"reste_a_payer"`
	Notes     string                `json:"notes,omitempty"`
	Locked    bool                  `json:"verrouille"`
	Lines     []InvoiceLineResponse `json:"lignes,omitempty"`
}

// InvoiceFromEntity construit la réponse ; status, paid et remaining sont fournis par l'appelant.
func InvoiceFromEntity(inv *entity.Invoice, status string, paid, remaining decimal.Decimal) *InvoiceResponse {
	out := &InvoiceResponse{
		ID:        inv.ID,
		QuoteID:   inv.QuoteID,
		ClientID:  inv.ClientID,
		Number:    inv.Number,
		IssuedAt:  inv.IssuedAt,
		DueDate:   inv.DueDate,
		Status:    status,
		TotalHT:   inv.TotalHT,
		TotalTVA:  inv.TotalTVA,
		TotalTTC:  inv.TotalTTC,
		Paid:      paid,
		Remaining: remaining,
		Notes:     inv.Notes,
		Locked:    inv.Locked,
	}
	if inv.Client != nil {
		out.Client = ClientFromEntity(inv.Client)
	}
	for _, l := range inv.Lines {
		out.Lines = append(out.Lines, InvoiceLineResponse{
			ID:          l.ID,
			SupplierID:  l.SupplierID,
			Designation: l.Designation,
			Reference:   l.Reference,
			Unit:        l.Unit,
			Quantity:    l.Quantity,
			UnitPriceHT: l.UnitPriceHT,
			TaxRate:     l.TaxRate,
			TotalHT:     money.LineTotalHT(l.Quantity, l.UnitPriceHT),
			Position:    l.Position,
		})
	}
	return out
}

// ClientFromEntity construit la réponse client.
func ClientFromEntity(c *entity.Client) *ClientResponse {
	return &ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		PostalCode:  c.PostalCode,
		City:        c.City,
	}
}

// Intentions de paiement côté interface ; "balance" pré-remplit le reste à payer.
const (
	PaymentIntentDeposit = "deposit"
	PaymentIntentBalance = "balance"
)

// RecordPaymentRequest body de POST /api/factures/:id/paiements.
type RecordPaymentRequest struct {
	Amount    *decimal.Decimal `json:"montant,omitempty"`
	Mode      string           `json:"mode_paiement"`
	Reference string           `json:"reference,omitempty"`
	Notes     string           `json:"notes,omitempty"`
	Intent    string           `json:"type,omitempty"`
}

// ReversalRequest body d'annulation d'un paiement.
type ReversalRequest struct {
	Notes string `json:"notes,omitempty"`
}

// PaymentResponse écriture du registre.
type PaymentResponse struct {
	ID                string          `json:"id"`
	InvoiceID         string          `json:"facture_id"`
	Amount            decimal.Decimal `json:"montant"`
	PaidAt            time.Time       `json:"date_paiement"`
	Mode              string          `json:"mode_paiement"`
	Reference         string          `json:"reference,omitempty"`
	Notes             string          `json:"notes,omitempty"`
	Kind              string          `json:"nature"`
	ReversesPaymentID string          `json:"annule_paiement_id,omitempty"`
}

// PaymentFromEntity construit la réponse.
func PaymentFromEntity(p *entity.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                p.ID,
		InvoiceID:         p.InvoiceID,
		Amount:            p.Amount,
		PaidAt:            p.PaidAt,
		Mode:              p.Mode,
		Reference:         p.Reference,
		Notes:             p.Notes,
		Kind:              p.Kind,
		ReversesPaymentID: p.ReversesPaymentID,
	}
}

// PaymentSummaryResponse état des règlements d'une facture.
type PaymentSummaryResponse struct {
	InvoiceID string            `json:"facture_id"`
	TotalTTC  decimal.Decimal   `json:"total_ttc"`
	Paid      decimal.Decimal   `json:"montant_paye"`
	Remaining decimal.Decimal   `json:"reste_a_payer"`
	Status    string            `json:"statut"`
	Payments  []PaymentResponse `json:"paiements"`
}
