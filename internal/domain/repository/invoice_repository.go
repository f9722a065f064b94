package repository

import (
	"context"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// InvoiceRepository port de persistance des factures.
type InvoiceRepository interface {
	// Create insère la facture et ses lignes. Une seconde facture pour le même devis
	// renvoie domain.ErrConflict (contrainte d'unicité).
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, userID, id string) (*entity.Invoice, error)
	GetForUpdate(ctx context.Context, userID, id string) (*entity.Invoice, error)
	ExistsForQuote(ctx context.Context, quoteID string) (bool, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.Invoice, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
}
