package repository

import (
	"context"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// QuoteRepository port de persistance des devis et de leurs lignes.
// Les lectures renvoient (nil, nil) si le devis n'existe pas ou n'appartient pas à userID.
type QuoteRepository interface {
	// Create insère l'en-tête et les lignes.
	Create(ctx context.Context, quote *entity.Quote) error
	GetByID(ctx context.Context, userID, id string) (*entity.Quote, error)
	// GetForUpdate verrouille la ligne du devis jusqu'à la fin de la transaction.
	GetForUpdate(ctx context.Context, userID, id string) (*entity.Quote, error)
	List(ctx context.Context, userID string, limit, offset int) ([]*entity.Quote, error)
	// Update enregistre l'en-tête (totaux compris) et remplace les lignes.
	Update(ctx context.Context, quote *entity.Quote) error
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	Delete(ctx context.Context, userID, id string) error
	// NextSequence renvoie le prochain numéro séquentiel sans le réserver (aperçu).
	NextSequence(ctx context.Context, userID string) (int, error)
	// AllocateSequence réserve le prochain numéro. À appeler dans une transaction :
	// l'allocation est sérialisée par utilisateur et le compteur ne recule jamais,
	// même après suppression d'un devis.
	AllocateSequence(ctx context.Context, userID string) (int, error)
}
