package abonnement

import (
	"context"

	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// TxRunner exécute fn dans une transaction sur les abonnements et le journal des événements.
type TxRunner interface {
	RunSubscriptions(ctx context.Context, fn func(
		subRepo repository.SubscriptionRepository,
		eventRepo repository.BillingEventRepository,
	) error) error
}

// CheckoutSessionInput paramètres d'une session de paiement hébergée.
type CheckoutSessionInput struct {
	PriceID       string
	CustomerID    string // client existant chez le prestataire ; vide = création
	CustomerEmail string
	UserID        string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// BillingProvider port vers le prestataire de paiement (Stripe).
type BillingProvider interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (url string, err error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (url string, err error)
}
