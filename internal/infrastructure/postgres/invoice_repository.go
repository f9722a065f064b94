package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo dépôt des factures (factures + lignes_factures). Pool ou tx.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	f.id, f.user_id, f.client_id, f.devis_id, f.numero, f.date_emission, f.date_echeance, f.statut,
	f.total_ht, f.total_tva, f.total_ttc, f.notes, f.verrouillee, f.created_at, f.updated_at`

func scanInvoice(row pgx.Row, extra ...any) (*entity.Invoice, error) {
	var inv entity.Invoice
	var quoteID *string
	dest := []any{
		&inv.ID, &inv.UserID, &inv.ClientID, &quoteID, &inv.Number, &inv.IssuedAt, &inv.DueDate, &inv.Status,
		&inv.TotalHT, &inv.TotalTVA, &inv.TotalTTC, &inv.Notes, &inv.Locked, &inv.CreatedAt, &inv.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	inv.QuoteID = derefStr(quoteID)
	return &inv, nil
}

// Create insère la facture et ses lignes. UNIQUE(devis_id) ou UNIQUE(user_id, numero)
// violée -> ErrConflict.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO factures (id, user_id, client_id, devis_id, numero, date_emission, date_echeance, statut,
		                      total_ht, total_tva, total_ttc, notes, verrouillee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		invoice.ID, invoice.UserID, invoice.ClientID, nullIfEmpty(invoice.QuoteID), invoice.Number,
		invoice.IssuedAt, invoice.DueDate, invoice.Status,
		invoice.TotalHT, invoice.TotalTVA, invoice.TotalTTC, invoice.Notes, invoice.Locked,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		return conflictOr(err, "facture déjà émise pour ce devis ou numéro "+invoice.Number+" déjà attribué")
	}
	for _, l := range invoice.Lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.InvoiceID = invoice.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO lignes_factures (id, facture_id, fournisseur_id, designation, reference, unite,
			                             quantite, prix_unitaire_ht, taux_tva, marge_pourcentage, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			l.ID, l.InvoiceID, nullIfEmpty(l.SupplierID), l.Designation, l.Reference, l.Unit,
			l.Quantity, l.UnitPriceHT, l.TaxRate, l.MarginPercent, l.Position,
		)
		if err != nil {
			return fmt.Errorf("insert ligne facture: %w", err)
		}
	}
	return nil
}

// GetByID lit la facture, ses lignes et le client destinataire.
func (r *InvoiceRepo) GetByID(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	var c entity.Client
	var clientUserID *string
	inv, err := scanInvoice(r.q.QueryRow(ctx, `
		SELECT`+invoiceColumns+`,
		       c.user_id, COALESCE(c.nom, ''), COALESCE(c.societe, ''), COALESCE(c.email, ''),
		       COALESCE(c.telephone, ''), COALESCE(c.adresse, ''), COALESCE(c.code_postal, ''),
		       COALESCE(c.ville, ''), COALESCE(c.siret, ''), COALESCE(c.tva_intracommunautaire, '')
		FROM factures f
		LEFT JOIN clients c ON c.id = f.client_id AND c.user_id = f.user_id
		WHERE f.id = $1 AND f.user_id = $2`, id, userID),
		&clientUserID, &c.Name, &c.CompanyName, &c.Email,
		&c.Phone, &c.Address, &c.PostalCode,
		&c.City, &c.SIRET, &c.TVANumber,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get facture: %w", err)
	}
	if clientUserID != nil {
		c.ID = inv.ClientID
		c.UserID = *clientUserID
		inv.Client = &c
	}
	if inv.Lines, err = r.lines(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

// GetForUpdate verrouille la facture (en-tête seul) : sérialise les paiements concurrents.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, userID, id string) (*entity.Invoice, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	inv, err := scanInvoice(r.q.QueryRow(ctx,
		`SELECT`+invoiceColumns+` FROM factures f WHERE f.id = $1 AND f.user_id = $2 FOR UPDATE`, id, userID))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock facture: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) lines(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, facture_id, fournisseur_id, designation, reference, unite,
		       quantite, prix_unitaire_ht, taux_tva, marge_pourcentage, position
		FROM lignes_factures WHERE facture_id = $1 ORDER BY position, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list lignes facture: %w", err)
	}
	defer rows.Close()

	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		var supplierID *string
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &supplierID, &l.Designation, &l.Reference, &l.Unit,
			&l.Quantity, &l.UnitPriceHT, &l.TaxRate, &l.MarginPercent, &l.Position,
		); err != nil {
			return nil, fmt.Errorf("scan ligne facture: %w", err)
		}
		l.SupplierID = derefStr(supplierID)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ExistsForQuote indique si une facture a déjà été émise pour le devis.
func (r *InvoiceRepo) ExistsForQuote(ctx context.Context, quoteID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM factures WHERE devis_id = $1)`, quoteID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("facture du devis: %w", err)
	}
	return exists, nil
}

// List en-têtes des factures, de la plus récente à la plus ancienne.
func (r *InvoiceRepo) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx,
		`SELECT`+invoiceColumns+` FROM factures f WHERE f.user_id = $1
		 ORDER BY f.date_emission DESC, f.numero DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list factures: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan facture: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// UpdateStatus enregistre le statut (annulation).
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE factures SET statut = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update statut facture: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
