package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo registre des paiements (table paiements). Aucune mise à jour ni suppression.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `
	id, facture_id, user_id, montant, date_paiement, mode, reference, notes, type, annule_paiement_id, created_at`

// Create ajoute une écriture. Une seconde annulation du même paiement -> ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO paiements (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.ID, p.InvoiceID, p.UserID, p.Amount, p.PaidAt, p.Mode, p.Reference, p.Notes, p.Kind,
		nullIfEmpty(p.ReversesPaymentID), p.CreatedAt,
	)
	if err != nil {
		return conflictOr(err, "paiement déjà annulé")
	}
	return nil
}

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	var reverses *string
	if err := row.Scan(
		&p.ID, &p.InvoiceID, &p.UserID, &p.Amount, &p.PaidAt, &p.Mode, &p.Reference, &p.Notes, &p.Kind,
		&reverses, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.ReversesPaymentID = derefStr(reverses)
	return &p, nil
}

// GetByID lit une écriture de la facture.
func (r *PaymentRepo) GetByID(ctx context.Context, invoiceID, id string) (*entity.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	p, err := scanPayment(r.q.QueryRow(ctx,
		`SELECT`+paymentColumns+` FROM paiements WHERE id = $1 AND facture_id = $2`, id, invoiceID))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paiement: %w", err)
	}
	return p, nil
}

// ListByInvoice écritures de la facture par date de paiement.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx,
		`SELECT`+paymentColumns+` FROM paiements WHERE facture_id = $1 ORDER BY date_paiement, created_at`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list paiements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paiement: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// SumByInvoice somme signée des écritures (annulations comprises).
func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(montant), 0) FROM paiements WHERE facture_id = $1`, invoiceID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("somme paiements: %w", err)
	}
	return sum, nil
}

// HasReversal indique si le paiement a déjà été annulé.
func (r *PaymentRepo) HasReversal(ctx context.Context, paymentID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM paiements WHERE annule_paiement_id = $1)`, paymentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("annulation du paiement: %w", err)
	}
	return exists, nil
}
