package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// PaymentRepository registre des paiements : ajout et lecture uniquement.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, invoiceID, id string) (*entity.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
	HasReversal(ctx context.Context, paymentID string) (bool, error)
}
