package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.StockMovementRepository = (*StockMovementRepo)(nil)
)

// ProductRepo partie stock du catalogue (table produits). Pool ou tx.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `
	id, user_id, type, designation, reference, unite, prix_ht_defaut, taux_tva_defaut, marge_defaut,
	fournisseur_defaut_id, actif, suivi_stock, stock_actuel, stock_minimum, cout_moyen, created_at, updated_at`

// un produit standard est visible de tous, un produit custom de son seul créateur
const productVisible = `(type = 'standard' OR user_id = $2)`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	var userID, supplierID *string
	if err := row.Scan(
		&p.ID, &userID, &p.Kind, &p.Designation, &p.Reference, &p.Unit, &p.DefaultPriceHT, &p.DefaultTaxRate, &p.DefaultMargin,
		&supplierID, &p.Active, &p.StockTracked, &p.CurrentStock, &p.MinimumStock, &p.AverageCost, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.UserID = derefStr(userID)
	p.DefaultSupplierID = derefStr(supplierID)
	return &p, nil
}

// GetByID lit un produit visible par l'utilisateur.
func (r *ProductRepo) GetByID(ctx context.Context, userID, id string) (*entity.Product, error) {
	return r.get(ctx, userID, id, "")
}

// GetForUpdate verrouille la ligne produit : les mouvements d'un même produit se sérialisent.
func (r *ProductRepo) GetForUpdate(ctx context.Context, userID, id string) (*entity.Product, error) {
	return r.get(ctx, userID, id, " FOR UPDATE")
}

func (r *ProductRepo) get(ctx context.Context, userID, id, lock string) (*entity.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	p, err := scanProduct(r.q.QueryRow(ctx,
		`SELECT`+productColumns+` FROM produits WHERE id = $1 AND `+productVisible+lock, id, userID))
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get produit: %w", err)
	}
	return p, nil
}

// UpdateStock enregistre le stock courant et le coût moyen.
func (r *ProductRepo) UpdateStock(ctx context.Context, id string, stock, averageCost decimal.Decimal, at time.Time) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE produits SET stock_actuel = $2, cout_moyen = $3, updated_at = $4 WHERE id = $1`,
		id, stock, averageCost, at)
	if err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListLowStock produits suivis dont le stock est au plus le minimum (minimum > 0).
func (r *ProductRepo) ListLowStock(ctx context.Context, userID string) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT`+productColumns+` FROM produits
		WHERE (type = 'standard' OR user_id = $1)
		  AND suivi_stock AND stock_minimum > 0 AND stock_actuel <= stock_minimum
		ORDER BY designation`, userID)
	if err != nil {
		return nil, fmt.Errorf("list stock bas: %w", err)
	}
	defer rows.Close()

	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan produit: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// ── Mouvements ────────────────────────────────────────────────────────────────

// StockMovementRepo registre des mouvements (table mouvements_stock), ajout seul.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construit l'adaptateur. Passer le pool ou une tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create ajoute le mouvement.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO mouvements_stock (id, user_id, produit_id, type, quantite, stock_avant, stock_apres,
		                              prix_unitaire, document_ref, fournisseur_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		m.ID, m.UserID, m.ProductID, m.Type, m.Quantity, m.StockBefore, m.StockAfter,
		m.UnitPrice, m.DocumentRef, nullIfEmpty(m.SupplierID), m.Notes, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mouvement: %w", err)
	}
	return nil
}

// ListByProduct mouvements du produit, du plus récent au plus ancien.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, userID, productID string, limit, offset int) ([]*entity.StockMovement, error) {
	if _, err := uuid.Parse(productID); err != nil {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, produit_id, type, quantite, stock_avant, stock_apres,
		       prix_unitaire, document_ref, fournisseur_id, notes, created_at
		FROM mouvements_stock
		WHERE user_id = $1 AND produit_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, userID, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list mouvements: %w", err)
	}
	defer rows.Close()

	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var supplierID *string
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.ProductID, &m.Type, &m.Quantity, &m.StockBefore, &m.StockAfter,
			&m.UnitPrice, &m.DocumentRef, &supplierID, &m.Notes, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan mouvement: %w", err)
		}
		m.SupplierID = derefStr(supplierID)
		list = append(list, &m)
	}
	return list, rows.Err()
}
