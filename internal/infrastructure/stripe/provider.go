package stripe

import (
	"context"
	"errors"
	"fmt"

	stripego "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/domain"
)

var _ abonnement.BillingProvider = (*Provider)(nil)

// Provider sessions Checkout et portail de facturation Stripe.
type Provider struct {
	sc *client.API
}

// NewProvider construit le client. backends nil : points d'accès Stripe par défaut.
func NewProvider(secretKey string, backends *stripego.Backends) (*Provider, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY", domain.ErrConfiguration)
	}
	return &Provider{sc: client.New(secretKey, backends)}, nil
}

// CreateCheckoutSession ouvre une session d'abonnement et renvoie son URL.
func (p *Provider) CreateCheckoutSession(ctx context.Context, in abonnement.CheckoutSessionInput) (string, error) {
	params := &stripego.CheckoutSessionParams{
		Mode: stripego.String(string(stripego.CheckoutSessionModeSubscription)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{Price: stripego.String(in.PriceID), Quantity: stripego.Int64(1)},
		},
		SuccessURL:        stripego.String(in.SuccessURL),
		CancelURL:         stripego.String(in.CancelURL),
		ClientReferenceID: stripego.String(in.UserID),
		SubscriptionData: &stripego.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{},
		},
	}
	if in.CustomerID != "" {
		params.Customer = stripego.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripego.String(in.CustomerEmail)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
		params.SubscriptionData.Metadata[k] = v
	}
	params.Context = ctx

	s, err := p.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", upstream("session checkout", err)
	}
	return s.URL, nil
}

// CreatePortalSession ouvre le portail client Stripe.
func (p *Provider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripego.BillingPortalSessionParams{
		Customer:  stripego.String(customerID),
		ReturnURL: stripego.String(returnURL),
	}
	params.Context = ctx

	s, err := p.sc.BillingPortalSessions.New(params)
	if err != nil {
		return "", upstream("session portail", err)
	}
	return s.URL, nil
}

func upstream(what string, err error) error {
	var se *stripego.Error
	if errors.As(err, &se) && se.Msg != "" {
		return fmt.Errorf("%w: %s: %s", domain.ErrUpstream, what, se.Msg)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, what, err)
}
