package devis

import (
	"context"

	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// TxRunner exécute fn dans une transaction, avec des dépôts liés à celle-ci.
// Une erreur renvoyée par fn annule toutes les écritures.
type TxRunner interface {
	RunDocuments(ctx context.Context, fn func(
		quoteRepo repository.QuoteRepository,
		invoiceRepo repository.InvoiceRepository,
	) error) error
}
