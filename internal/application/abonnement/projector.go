package abonnement

import (
	"context"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
	"github.com/devifact/DeviFact-sub000/pkg/logger"
)

// Projector applique les événements du prestataire de paiement à l'abonnement.
//
// Chaque projection affecte des valeurs tirées de l'événement (jamais de cumul) et les
// horodatages proviennent de l'événement : rejouer un événement donne le même état.
// Un événement déjà enregistré est acquitté sans être réappliqué. Un événement qui ne
// correspond à aucun abonnement est journalisé et acquitté, pour éviter les renvois en boucle.
type Projector struct {
	txRunner TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewProjector construit le projecteur. now nil = time.Now.
func NewProjector(txRunner TxRunner, log *logger.Logger, now func() time.Time) *Projector {
	if now == nil {
		now = time.Now
	}
	return &Projector{txRunner: txRunner, log: log, now: now}
}

// Apply projette ev dans une transaction. Seules les erreurs de stockage sont renvoyées.
func (p *Projector) Apply(ctx context.Context, ev entity.BillingEvent) error {
	handler := p.handlerFor(ev.Type)
	if handler == nil {
		p.log.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("événement de facturation ignoré")
		return nil
	}
	stamp := ev.OccurredAt
	if stamp.IsZero() {
		stamp = p.now()
	}

	return p.txRunner.RunSubscriptions(ctx, func(subRepo repository.SubscriptionRepository, eventRepo repository.BillingEventRepository) error {
		if ev.ID != "" {
			fresh, err := eventRepo.MarkProcessed(ctx, ev.ID, ev.Type, p.now())
			if err != nil {
				return err
			}
			if !fresh {
				p.log.Info().Str("event_id", ev.ID).Str("type", ev.Type).Msg("événement déjà traité")
				return nil
			}
		}
		sub, err := handler(ctx, subRepo, ev, stamp)
		if err != nil {
			return err
		}
		if sub == nil {
			p.log.Warn().
				Str("event_id", ev.ID).
				Str("type", ev.Type).
				Str("customer_id", ev.CustomerID).
				Str("subscription_id", ev.SubscriptionID).
				Msg("aucun abonnement correspondant, événement acquitté")
			return nil
		}
		sub.UpdatedAt = stamp
		if err := subRepo.Save(ctx, sub); err != nil {
			return err
		}
		p.log.Info().
			Str("event_id", ev.ID).
			Str("type", ev.Type).
			Str("user_id", sub.UserID).
			Str("status", sub.Main.Status).
			Bool("premium", sub.Premium.Active).
			Msg("abonnement mis à jour")
		return nil
	})
}

// projection renvoie l'abonnement modifié à enregistrer, ou nil s'il est introuvable
// ou non concerné.
type projection func(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, stamp time.Time) (*entity.Subscription, error)

func (p *Projector) handlerFor(eventType string) projection {
	switch eventType {
	case entity.BillingEventCheckoutCompleted:
		return checkoutCompleted
	case entity.BillingEventSubscriptionCreated:
		return subscriptionCreated
	case entity.BillingEventInvoicePaid:
		return invoicePaid
	case entity.BillingEventSubscriptionDeleted:
		return subscriptionDeleted
	case entity.BillingEventSubscriptionUpdated:
		return subscriptionUpdated
	}
	return nil
}

// ── Projections ───────────────────────────────────────────────────────────────

func checkoutCompleted(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, stamp time.Time) (*entity.Subscription, error) {
	sub, err := findOwner(ctx, subRepo, ev)
	if err != nil || sub == nil {
		return nil, err
	}
	plan := ev.Metadata[entity.MetadataPlanType]
	if ev.IsPremium() {
		sub.Premium.Active = true
		sub.Premium.PlanType = plan
		sub.Premium.SubscriptionID = ev.SubscriptionID
		sub.Premium.PeriodStart = timePtr(stamp)
		return sub, nil
	}
	sub.Main.Status = entity.SubscriptionStatusActive
	sub.Main.CustomerID = ev.CustomerID
	sub.Main.SubscriptionID = ev.SubscriptionID
	sub.Main.PlanType = plan
	sub.Main.PeriodStart = timePtr(stamp)
	return sub, nil
}

func subscriptionCreated(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, _ time.Time) (*entity.Subscription, error) {
	sub, err := subRepo.LockByCustomerID(ctx, ev.CustomerID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		if sub, err = findOwner(ctx, subRepo, ev); err != nil || sub == nil {
			return nil, err
		}
	}
	plan := ev.Metadata[entity.MetadataPlanType]
	if ev.IsPremium() {
		sub.Premium.Active = true
		sub.Premium.SubscriptionID = ev.SubscriptionID
		if plan != "" {
			sub.Premium.PlanType = plan
		}
		sub.Premium.PeriodStart = ev.PeriodStart
		sub.Premium.PeriodEnd = ev.PeriodEnd
		return sub, nil
	}
	sub.Main.Status = entity.SubscriptionStatusActive
	sub.Main.SubscriptionID = ev.SubscriptionID
	if sub.Main.CustomerID == "" {
		sub.Main.CustomerID = ev.CustomerID
	}
	if plan != "" {
		sub.Main.PlanType = plan
	}
	sub.Main.PeriodStart = ev.PeriodStart
	sub.Main.PeriodEnd = ev.PeriodEnd
	return sub, nil
}

func invoicePaid(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, _ time.Time) (*entity.Subscription, error) {
	sub, err := findBySubscription(ctx, subRepo, ev)
	if err != nil || sub == nil {
		return nil, err
	}
	switch {
	case isPremiumSubscription(sub, ev.SubscriptionID), ev.IsPremium():
		// facture premium reçue avant la création de l'abonnement premium : l'identifiant
		// est repris de l'événement
		sub.Premium.Active = true
		if sub.Premium.SubscriptionID == "" {
			sub.Premium.SubscriptionID = ev.SubscriptionID
		}
		if ev.PeriodEnd != nil {
			sub.Premium.PeriodEnd = ev.PeriodEnd
		}
	case ev.SubscriptionID != "" && ev.SubscriptionID == sub.Main.SubscriptionID:
		sub.Main.Status = entity.SubscriptionStatusActive
		if ev.PeriodEnd != nil {
			sub.Main.PeriodEnd = ev.PeriodEnd
		}
	case sub.Main.SubscriptionID == "" && ev.SubscriptionID != "":
		// checkout pas encore projeté : la facture porte l'abonnement principal
		sub.Main.Status = entity.SubscriptionStatusActive
		sub.Main.SubscriptionID = ev.SubscriptionID
		if sub.Main.CustomerID == "" {
			sub.Main.CustomerID = ev.CustomerID
		}
		if ev.PeriodEnd != nil {
			sub.Main.PeriodEnd = ev.PeriodEnd
		}
	default:
		// abonnement sans rapport avec le principal, premium non encore connu
		return nil, nil
	}
	return sub, nil
}

func subscriptionDeleted(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, stamp time.Time) (*entity.Subscription, error) {
	sub, err := subRepo.LockBySubscriptionID(ctx, ev.SubscriptionID)
	if err != nil || sub == nil {
		return nil, err
	}
	switch {
	case isPremiumSubscription(sub, ev.SubscriptionID):
		sub.Premium.Active = false
		sub.Premium.SubscriptionID = ""
		sub.Premium.PeriodEnd = timePtr(stamp)
	case sub.Main.SubscriptionID == ev.SubscriptionID:
		sub.Main.Status = entity.SubscriptionStatusCanceled
		sub.Main.PeriodEnd = timePtr(stamp)
		sub.Premium.Active = false
	default:
		return nil, nil
	}
	return sub, nil
}

func subscriptionUpdated(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent, _ time.Time) (*entity.Subscription, error) {
	sub, err := subRepo.LockBySubscriptionID(ctx, ev.SubscriptionID)
	if err != nil || sub == nil {
		return nil, err
	}
	switch {
	case isPremiumSubscription(sub, ev.SubscriptionID):
		sub.Premium.Active = ev.ProviderStatus == entity.ProviderStatusActive
		if ev.PeriodEnd != nil {
			sub.Premium.PeriodEnd = ev.PeriodEnd
		}
	case sub.Main.SubscriptionID == ev.SubscriptionID:
		if status, ok := MapProviderStatus(ev.ProviderStatus); ok {
			sub.Main.Status = status
		}
		if ev.PeriodStart != nil {
			sub.Main.PeriodStart = ev.PeriodStart
		}
		if ev.PeriodEnd != nil {
			sub.Main.PeriodEnd = ev.PeriodEnd
		}
	default:
		return nil, nil
	}
	return sub, nil
}

// MapProviderStatus traduit le statut du prestataire : active -> active ;
// canceled, unpaid -> canceled ; past_due -> expired. Les autres statuts sont sans effet.
func MapProviderStatus(providerStatus string) (string, bool) {
	switch providerStatus {
	case entity.ProviderStatusActive:
		return entity.SubscriptionStatusActive, true
	case entity.ProviderStatusCanceled, entity.ProviderStatusUnpaid:
		return entity.SubscriptionStatusCanceled, true
	case entity.ProviderStatusPastDue:
		return entity.SubscriptionStatusExpired, true
	}
	return "", false
}

// ── Recherche ─────────────────────────────────────────────────────────────────

// findOwner retrouve l'abonnement par l'utilisateur des métadonnées, sinon par le client.
func findOwner(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent) (*entity.Subscription, error) {
	if userID := ev.Metadata[entity.MetadataUserID]; userID != "" {
		sub, err := subRepo.LockByUserID(ctx, userID)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if ev.CustomerID == "" {
		return nil, nil
	}
	return subRepo.LockByCustomerID(ctx, ev.CustomerID)
}

// findBySubscription retrouve l'abonnement par l'identifiant d'abonnement, sinon par le client.
func findBySubscription(ctx context.Context, subRepo repository.SubscriptionRepository, ev entity.BillingEvent) (*entity.Subscription, error) {
	if ev.SubscriptionID != "" {
		sub, err := subRepo.LockBySubscriptionID(ctx, ev.SubscriptionID)
		if err != nil || sub != nil {
			return sub, err
		}
	}
	if ev.CustomerID == "" {
		return nil, nil
	}
	return subRepo.LockByCustomerID(ctx, ev.CustomerID)
}

func isPremiumSubscription(sub *entity.Subscription, subscriptionID string) bool {
	return subscriptionID != "" && sub.Premium.SubscriptionID == subscriptionID
}

func timePtr(t time.Time) *time.Time { return &t }
