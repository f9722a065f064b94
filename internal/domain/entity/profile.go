package entity

import "github.com/shopspring/decimal"

// Profile informations légales et bancaires de l'artisan (émetteur des documents).
// Les mentions vides prennent leur valeur par défaut au rendu.
type Profile struct {
	UserID         string
	CompanyName    string
	FirstName      string
	LastName       string
	LegalForm      string
	SIRET          string
	TVANumber      string
	Address        string
	PostalCode     string
	City           string
	Phone          string
	Email          string
	DefaultTaxRate *decimal.Decimal
	TVAExempt      bool

	PaymentConditions    string
	PaymentDelay         string
	PaymentDelayDays     int
	LatePenaltyRate      string
	RecoveryIndemnity    string
	EarlyPaymentDiscount string
	QuoteValidity        string

	BankName string
	IBAN     string
	BIC      string
}

// CompanySettings réglages facultatifs prioritaires sur le profil.
type CompanySettings struct {
	UserID         string
	DefaultTaxRate *decimal.Decimal
	LegalMentions  string
	FooterText     string
}
