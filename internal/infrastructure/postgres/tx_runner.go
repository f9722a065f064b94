package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/application/devis"
	"github.com/devifact/DeviFact-sub000/internal/application/facture"
	"github.com/devifact/DeviFact-sub000/internal/application/stock"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var (
	_ devis.TxRunner      = (*TxRunner)(nil)
	_ facture.TxRunner    = (*TxRunner)(nil)
	_ stock.TxRunner      = (*TxRunner)(nil)
	_ abonnement.TxRunner = (*TxRunner)(nil)
)

// TxRunner exécute des callbacks dans une transaction PostgreSQL avec des dépôts liés à la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construit le runner sur le pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx ouvre la transaction, exécute fn puis valide ; toute erreur annule.
func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunDocuments transaction devis + factures (création, conversion).
func (r *TxRunner) RunDocuments(ctx context.Context, fn func(
	quoteRepo repository.QuoteRepository,
	invoiceRepo repository.InvoiceRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewQuoteRepository(tx), NewInvoiceRepository(tx))
	})
}

// RunPayments transaction factures + registre des paiements.
func (r *TxRunner) RunPayments(ctx context.Context, fn func(
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewInvoiceRepository(tx), NewPaymentRepository(tx))
	})
}

// RunStock transaction produits + mouvements de stock.
func (r *TxRunner) RunStock(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewProductRepository(tx), NewStockMovementRepository(tx))
	})
}

// RunSubscriptions transaction abonnements + journal des événements de facturation.
func (r *TxRunner) RunSubscriptions(ctx context.Context, fn func(
	subRepo repository.SubscriptionRepository,
	eventRepo repository.BillingEventRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewSubscriptionRepository(tx), NewBillingEventRepository(tx))
	})
}
