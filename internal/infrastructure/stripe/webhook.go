package stripe

import (
	"encoding/json"
	"fmt"
	"time"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// Types d'événements Stripe projetés.
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionCreated = "customer.subscription.created"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
	eventInvoicePaid         = "invoice.paid"
)

// WebhookVerifier vérifie la signature des webhooks et les traduit en entity.BillingEvent.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier construit le vérificateur. Un secret vide fait échouer chaque appel.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// Parse vérifie l'en-tête Stripe-Signature puis traduit l'événement.
//   - secret absent : domain.ErrConfiguration
//   - signature invalide : domain.ErrInvalidInput
//   - type non projeté : (nil, nil)
//
// Les autres erreurs concernent un corps signé mais illisible.
func (v *WebhookVerifier) Parse(payload []byte, signature string) (*entity.BillingEvent, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: STRIPE_WEBHOOK_SECRET", domain.ErrConfiguration)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: signature webhook: %v", domain.ErrInvalidInput, err)
	}
	return translate(event)
}

func translate(event stripego.Event) (*entity.BillingEvent, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("événement %s sans données", event.ID)
	}
	out := &entity.BillingEvent{
		ID:         event.ID,
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}

	switch string(event.Type) {
	case eventCheckoutCompleted:
		var s stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("décodage session checkout: %w", err)
		}
		out.Type = entity.BillingEventCheckoutCompleted
		out.Metadata = s.Metadata
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		if s.Subscription != nil {
			out.SubscriptionID = s.Subscription.ID
		}

	case eventSubscriptionCreated, eventSubscriptionUpdated, eventSubscriptionDeleted:
		var s stripego.Subscription
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("décodage abonnement: %w", err)
		}
		switch string(event.Type) {
		case eventSubscriptionCreated:
			out.Type = entity.BillingEventSubscriptionCreated
		case eventSubscriptionUpdated:
			out.Type = entity.BillingEventSubscriptionUpdated
		default:
			out.Type = entity.BillingEventSubscriptionDeleted
		}
		out.SubscriptionID = s.ID
		out.Metadata = s.Metadata
		out.ProviderStatus = string(s.Status)
		if s.Customer != nil {
			out.CustomerID = s.Customer.ID
		}
		out.PeriodStart = unixPtr(s.CurrentPeriodStart)
		out.PeriodEnd = unixPtr(s.CurrentPeriodEnd)

	case eventInvoicePaid:
		var inv stripego.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("décodage facture: %w", err)
		}
		out.Type = entity.BillingEventInvoicePaid
		out.Metadata = invoiceMetadata(&inv)
		if inv.Customer != nil {
			out.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			out.SubscriptionID = inv.Subscription.ID
		}
		// la fin de période de la ligne d'abonnement prime sur celle de la facture
		end := inv.PeriodEnd
		if inv.Lines != nil && len(inv.Lines.Data) > 0 && inv.Lines.Data[0].Period != nil {
			end = inv.Lines.Data[0].Period.End
			out.PeriodStart = unixPtr(inv.Lines.Data[0].Period.Start)
		}
		out.PeriodEnd = unixPtr(end)

	default:
		return nil, nil
	}
	return out, nil
}

// invoiceMetadata réunit les métadonnées de l'abonnement facturé (subscription_details),
// des lignes puis de la facture elle-même, la dernière source l'emportant. Celles de la
// facture sont le plus souvent vides : le marqueur premium vient de l'abonnement.
func invoiceMetadata(inv *stripego.Invoice) map[string]string {
	out := map[string]string{}
	if inv.SubscriptionDetails != nil {
		for k, v := range inv.SubscriptionDetails.Metadata {
			out[k] = v
		}
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line == nil {
				continue
			}
			for k, v := range line.Metadata {
				out[k] = v
			}
		}
	}
	for k, v := range inv.Metadata {
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func unixPtr(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
