package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/money"
)

// RenderRequest corps de POST /api/pdf : document complet fourni par le client web.
type RenderRequest struct {
	Type        string          `json:"type"` // devis | facture
	Document    RenderDocument  `json:"document"`
	Client      RenderClient    `json:"client"`
	Profile     RenderProfile   `json:"profile"`
	Lines       []RenderLine    `json:"lignes"`
	Settings    *RenderSettings `json:"parametres,omitempty"`
	IsTrialMode bool            `json:"isTrialMode"`
}

// RenderDocument en-tête du document.
type RenderDocument struct {
	Number          string `json:"numero"`
	Date            string `json:"date"` // AAAA-MM-JJ ou RFC 3339
	ValidUntil      string `json:"date_validite"`
	DueDate         string `json:"date_echeance"`
	Notes           string `json:"notes"`
	WorkDescription string `json:"description_travaux"`
}

// RenderClient destinataire.
type RenderClient struct {
	Name        string `json:"nom"`
	CompanyName string `json:"societe"`
	Email       string `json:"email"`
	Phone       string `json:"telephone"`
	Address     string `json:"adresse"`
	PostalCode  string `json:"code_postal"`
	City        string `json:"ville"`
	SIRET       string `json:"siret"`
	TVANumber   string `json:"tva_intracommunautaire"`
}

// RenderProfile émetteur et mentions.
type RenderProfile struct {
	CompanyName          string           `json:"raison_sociale"`
	FirstName            string           `json:"prenom"`
	LastName             string           `json:"nom"`
	LegalForm            string           `json:"forme_juridique"`
	SIRET                string           `json:"siret"`
	TVANumber            string           `json:"tva_intracommunautaire"`
	Address              string           `json:"adresse"`
	PostalCode           string           `json:"code_postal"`
	City                 string           `json:"ville"`
	Phone                string           `json:"telephone"`
	Email                string           `json:"email"`
	DefaultTaxRate       *decimal.Decimal `json:"taux_tva_defaut,omitempty"`
	TVAExempt            bool             `json:"franchise_tva"`
	PaymentConditions    string           `json:"conditions_paiement"`
	PaymentDelay         string           `json:"delai_paiement"`
	LatePenaltyRate      string           `json:"penalites_retard"`
	RecoveryIndemnity    string           `json:"indemnite_recouvrement"`
	EarlyPaymentDiscount string           `json:"escompte"`
	QuoteValidity        string           `json:"validite_devis"`
	BankName             string           `json:"banque"`
	IBAN                 string           `json:"iban"`
	BIC                  string           `json:"bic"`
}

// RenderSettings réglages entreprise facultatifs.
type RenderSettings struct {
	DefaultTaxRate *decimal.Decimal `json:"taux_tva_defaut,omitempty"`
	LegalMentions  string           `json:"mentions_legales"`
	FooterText     string           `json:"pied_de_page"`
}

// RenderLine ligne du document. Les montants arrivent en nombres ou en chaînes ("12,50").
type RenderLine struct {
	Designation string `json:"designation"`
	Reference   string `json:"reference"`
	Unit        string `json:"unite"`
	Quantity    Amount `json:"quantite"`
	UnitPriceHT Amount `json:"prix_unitaire_ht"`
	TaxRate     Amount `json:"taux_tva"`
}

// Amount montant JSON accepté en nombre ou en chaîne à la française ("1 234,50").
// Une valeur illisible vaut zéro.
type Amount struct {
	decimal.Decimal
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		s = ""
	}
	a.Decimal = money.ParseAmount(s)
	return nil
}
