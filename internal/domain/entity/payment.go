package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Modes de paiement acceptés.
const (
	PaymentModeVirement      = "virement"
	PaymentModeCheque        = "cheque"
	PaymentModeEspeces       = "especes"
	PaymentModeCarteBancaire = "carte_bancaire"
	PaymentModePrelevement   = "prelevement"
	PaymentModeAutre         = "autre"
)

// Nature d'une écriture du registre des paiements.
const (
	PaymentKindPayment  = "payment"
	PaymentKindReversal = "reversal" // écriture compensatoire, montant négatif
)

// IsValidPaymentMode indique si mode fait partie de la liste fermée.
func IsValidPaymentMode(mode string) bool {
	switch mode {
	case PaymentModeVirement, PaymentModeCheque, PaymentModeEspeces,
		PaymentModeCarteBancaire, PaymentModePrelevement, PaymentModeAutre:
		return true
	}
	return false
}

// Payment écriture du registre des paiements d'une facture (ajout seul).
type Payment struct {
	ID                string
	InvoiceID         string
	UserID            string
	Amount            decimal.Decimal
	PaidAt            time.Time
	Mode              string
	Reference         string
	Notes             string
	Kind              string
	ReversesPaymentID string
	CreatedAt         time.Time
}
