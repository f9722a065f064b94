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

var _ repository.QuoteRepository = (*QuoteRepo)(nil)

// QuoteRepo dépôt des devis (table devis + lignes_devis). Pool ou tx.
type QuoteRepo struct {
	q Querier
}

// NewQuoteRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewQuoteRepository(q Querier) *QuoteRepo {
	return &QuoteRepo{q: q}
}

const quoteColumns = `
	id, user_id, client_id, numero, statut, date_validite,
	total_ht, total_tva, total_ttc, notes, description_travaux, created_at, updated_at`

func scanQuote(row pgx.Row) (*entity.Quote, error) {
	var q entity.Quote
	err := row.Scan(
		&q.ID, &q.UserID, &q.ClientID, &q.Number, &q.Status, &q.ValidUntil,
		&q.TotalHT, &q.TotalTVA, &q.TotalTTC, &q.Notes, &q.WorkDescription, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// Create insère l'en-tête puis les lignes. Numéro déjà pris -> ErrConflict.
func (r *QuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO devis (id, user_id, client_id, numero, statut, date_validite,
		                   total_ht, total_tva, total_ttc, notes, description_travaux, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		quote.ID, quote.UserID, quote.ClientID, quote.Number, quote.Status, quote.ValidUntil,
		quote.TotalHT, quote.TotalTVA, quote.TotalTTC, quote.Notes, quote.WorkDescription,
		quote.CreatedAt, quote.UpdatedAt,
	)
	if err != nil {
		return conflictOr(err, fmt.Sprintf("insert devis %s", quote.Number))
	}
	return r.insertLines(ctx, quote)
}

func (r *QuoteRepo) insertLines(ctx context.Context, quote *entity.Quote) error {
	for _, l := range quote.Lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.QuoteID = quote.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO lignes_devis (id, devis_id, produit_id, fournisseur_id, designation, reference, unite,
			                          quantite, prix_unitaire_ht, taux_tva, marge_pourcentage, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			l.ID, l.QuoteID, nullIfEmpty(l.ProductID), nullIfEmpty(l.SupplierID), l.Designation, l.Reference, l.Unit,
			l.Quantity, l.UnitPriceHT, l.TaxRate, l.MarginPercent, l.Position,
		)
		if err != nil {
			return fmt.Errorf("insert ligne devis: %w", err)
		}
	}
	return nil
}

// GetByID lit le devis et ses lignes triées par position.
func (r *QuoteRepo) GetByID(ctx context.Context, userID, id string) (*entity.Quote, error) {
	return r.get(ctx, userID, id, "")
}

// GetForUpdate verrouille la ligne du devis (SELECT … FOR UPDATE).
func (r *QuoteRepo) GetForUpdate(ctx context.Context, userID, id string) (*entity.Quote, error) {
	return r.get(ctx, userID, id, " FOR UPDATE")
}

func (r *QuoteRepo) get(ctx context.Context, userID, id, lock string) (*entity.Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	q, err := scanQuote(r.q.QueryRow(ctx,
		`SELECT`+quoteColumns+` FROM devis WHERE id = $1 AND user_id = $2`+lock, id, userID))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get devis: %w", err)
	}
	if q.Lines, err = r.lines(ctx, q.ID); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuoteRepo) lines(ctx context.Context, quoteID string) ([]*entity.QuoteLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, devis_id, produit_id, fournisseur_id, designation, reference, unite,
		       quantite, prix_unitaire_ht, taux_tva, marge_pourcentage, position
		FROM lignes_devis WHERE devis_id = $1 ORDER BY position, id`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("list lignes devis: %w", err)
	}
	defer rows.Close()

	var list []*entity.QuoteLine
	for rows.Next() {
		var l entity.QuoteLine
		var productID, supplierID *string
		if err := rows.Scan(
			&l.ID, &l.QuoteID, &productID, &supplierID, &l.Designation, &l.Reference, &l.Unit,
			&l.Quantity, &l.UnitPriceHT, &l.TaxRate, &l.MarginPercent, &l.Position,
		); err != nil {
			return nil, fmt.Errorf("scan ligne devis: %w", err)
		}
		l.ProductID = derefStr(productID)
		l.SupplierID = derefStr(supplierID)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// List en-têtes des devis de l'utilisateur, du plus récent au plus ancien (sans lignes).
func (r *QuoteRepo) List(ctx context.Context, userID string, limit, offset int) ([]*entity.Quote, error) {
	rows, err := r.q.Query(ctx,
		`SELECT`+quoteColumns+` FROM devis WHERE user_id = $1
		 ORDER BY created_at DESC, numero DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list devis: %w", err)
	}
	defer rows.Close()

	var list []*entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan devis: %w", err)
		}
		list = append(list, q)
	}
	return list, rows.Err()
}

// Update enregistre l'en-tête et remplace toutes les lignes.
func (r *QuoteRepo) Update(ctx context.Context, quote *entity.Quote) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE devis
		SET client_id = $2, date_validite = $3, total_ht = $4, total_tva = $5, total_ttc = $6,
		    notes = $7, description_travaux = $8, updated_at = $9
		WHERE id = $1`,
		quote.ID, quote.ClientID, quote.ValidUntil, quote.TotalHT, quote.TotalTVA, quote.TotalTTC,
		quote.Notes, quote.WorkDescription, quote.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update devis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM lignes_devis WHERE devis_id = $1`, quote.ID); err != nil {
		return fmt.Errorf("delete lignes devis: %w", err)
	}
	return r.insertLines(ctx, quote)
}

// UpdateStatus change le statut du devis.
func (r *QuoteRepo) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE devis SET statut = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return fmt.Errorf("update statut devis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete supprime le devis ; les lignes suivent (CASCADE) et factures.devis_id passe à NULL.
func (r *QuoteRepo) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM devis WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete devis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextSequence aperçu sans verrou : max(compteur, plus grand DEV-n) + 1.
func (r *QuoteRepo) NextSequence(ctx context.Context, userID string) (int, error) {
	highest, err := r.highestSequence(ctx, userID)
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

// AllocateSequence prend un verrou consultatif par utilisateur jusqu'à la fin de la
// transaction puis avance compteurs_devis. Le compteur ne recule jamais : un numéro
// libéré par une suppression n'est pas réattribué.
func (r *QuoteRepo) AllocateSequence(ctx context.Context, userID string) (int, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "devis:"+userID); err != nil {
		return 0, fmt.Errorf("verrou numérotation: %w", err)
	}
	highest, err := r.highestSequence(ctx, userID)
	if err != nil {
		return 0, err
	}
	next := highest + 1
	_, err = r.q.Exec(ctx, `
		INSERT INTO compteurs_devis (user_id, dernier) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET dernier = EXCLUDED.dernier`,
		userID, next)
	if err != nil {
		return 0, fmt.Errorf("compteur devis: %w", err)
	}
	return next, nil
}

// highestSequence plus grand numéro déjà attribué : compteur ou suffixe DEV-n existant
// (devis antérieurs au compteur).
func (r *QuoteRepo) highestSequence(ctx context.Context, userID string) (int, error) {
	var highest int
	err := r.q.QueryRow(ctx, `
		SELECT GREATEST(
			COALESCE((SELECT dernier FROM compteurs_devis WHERE user_id = $1), 0),
			COALESCE((SELECT MAX(substring(numero FROM $2)::int)
			          FROM devis WHERE user_id = $1 AND numero ~ $3), 0))`,
		userID,
		"^"+entity.QuoteNumberPrefix+"([0-9]+)$",
		"^"+entity.QuoteNumberPrefix+"[0-9]+$",
	).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("prochain numéro devis: %w", err)
	}
	return highest, nil
}
