package devis

import (
	"fmt"
	"strings"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// QuoteNumber formate le numéro séquentiel : 1 -> DEV-0001.
func QuoteNumber(seq int) string {
	return fmt.Sprintf("%s%04d", entity.QuoteNumberPrefix, seq)
}

// InvoiceNumberFor dérive le numéro de facture du devis : DEV-0001 -> FA-0001.
// Un numéro sans préfixe reconnu donne FA- suivi des 8 premiers caractères de l'identifiant du devis.
func InvoiceNumberFor(quoteNumber, quoteID string) string {
	if strings.HasPrefix(quoteNumber, entity.QuoteNumberPrefix) {
		return entity.InvoiceNumberPrefix + strings.TrimPrefix(quoteNumber, entity.QuoteNumberPrefix)
	}
	short := quoteID
	if len(short) > 8 {
		short = short[:8]
	}
	return entity.InvoiceNumberPrefix + strings.ToUpper(short)
}
