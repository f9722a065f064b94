package repository

import (
	"context"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// SubscriptionRepository port de persistance des abonnements (un par utilisateur).
// Les méthodes Lock* verrouillent la ligne trouvée jusqu'à la fin de la transaction.
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error)
	LockByUserID(ctx context.Context, userID string) (*entity.Subscription, error)
	LockByCustomerID(ctx context.Context, customerID string) (*entity.Subscription, error)
	// LockBySubscriptionID cherche l'identifiant parmi les abonnements principal et premium.
	LockBySubscriptionID(ctx context.Context, subscriptionID string) (*entity.Subscription, error)
	// Create insère l'abonnement s'il n'existe pas encore pour l'utilisateur.
	Create(ctx context.Context, sub *entity.Subscription) (created bool, err error)
	Save(ctx context.Context, sub *entity.Subscription) error
}

// BillingEventRepository mémorise les événements du prestataire déjà appliqués.
type BillingEventRepository interface {
	// MarkProcessed renvoie false si l'événement était déjà enregistré.
	MarkProcessed(ctx context.Context, eventID, eventType string, at time.Time) (bool, error)
}
