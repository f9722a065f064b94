package facture

import (
	"context"

	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// TxRunner exécute fn dans une transaction couvrant la facture et son registre de paiements.
type TxRunner interface {
	RunPayments(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		paymentRepo repository.PaymentRepository,
	) error) error
}
