package abonnement

import (
	"context"
	"fmt"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entitlement"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// CheckoutConfig tarifs et URL publique du site.
type CheckoutConfig struct {
	PriceMonthly        string
	PriceAnnual         string
	PremiumPriceMonthly string
	PremiumPriceAnnual  string
	SiteURL             string
}

func (c CheckoutConfig) validate() error {
	if c.PriceMonthly == "" || c.PriceAnnual == "" || c.PremiumPriceMonthly == "" ||
		c.PremiumPriceAnnual == "" || c.SiteURL == "" {
		return fmt.Errorf("%w: tarifs ou SITE_URL", domain.ErrConfiguration)
	}
	return nil
}

// CheckoutUseCase sessions de souscription et portail client.
type CheckoutUseCase struct {
	subRepo  repository.SubscriptionRepository
	provider BillingProvider
	cfg      CheckoutConfig
	now      func() time.Time
}

// NewCheckoutUseCase construit le cas d'utilisation. provider nil : chaque appel renvoie
// ErrConfiguration.
func NewCheckoutUseCase(subRepo repository.SubscriptionRepository, provider BillingProvider, cfg CheckoutConfig, now func() time.Time) *CheckoutUseCase {
	if now == nil {
		now = time.Now
	}
	return &CheckoutUseCase{subRepo: subRepo, provider: provider, cfg: cfg, now: now}
}

func (uc *CheckoutUseCase) ready() error {
	if uc.provider == nil {
		return fmt.Errorf("%w: STRIPE_SECRET_KEY", domain.ErrConfiguration)
	}
	return uc.cfg.validate()
}

// CreateCheckout session d'abonnement principal.
func (uc *CheckoutUseCase) CreateCheckout(ctx context.Context, userID, email, plan string) (string, error) {
	if err := uc.ready(); err != nil {
		return "", err
	}
	price, err := uc.price(plan, false)
	if err != nil {
		return "", err
	}
	sub, err := uc.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	in := CheckoutSessionInput{
		PriceID:       price,
		CustomerEmail: email,
		UserID:        userID,
		SuccessURL:    uc.cfg.SiteURL + "/abonnement?success=true",
		CancelURL:     uc.cfg.SiteURL + "/abonnement?canceled=true",
		Metadata: map[string]string{
			entity.MetadataUserID:   userID,
			entity.MetadataPlanType: plan,
		},
	}
	if sub != nil {
		if entitlement.MainActive(sub.Main, uc.now()) {
			return "", fmt.Errorf("%w: abonnement déjà actif", domain.ErrInvalidState)
		}
		in.CustomerID = sub.Main.CustomerID
	}
	return uc.provider.CreateCheckoutSession(ctx, in)
}

// CreatePremiumCheckout session de l'option premium : exige un abonnement principal
// actif (pas un essai), un client connu du prestataire et pas de premium déjà actif.
func (uc *CheckoutUseCase) CreatePremiumCheckout(ctx context.Context, userID, plan string) (string, error) {
	if err := uc.ready(); err != nil {
		return "", err
	}
	price, err := uc.price(plan, true)
	if err != nil {
		return "", err
	}
	sub, err := uc.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	now := uc.now()
	switch {
	case sub == nil:
		return "", fmt.Errorf("%w: aucun abonnement", domain.ErrInvalidState)
	case !entitlement.MainActive(sub.Main, now):
		return "", fmt.Errorf("%w: l'option premium exige un abonnement actif (statut %s)", domain.ErrInvalidState, sub.Main.Status)
	case entitlement.PremiumActive(sub.Premium, now):
		return "", fmt.Errorf("%w: option premium déjà active", domain.ErrInvalidState)
	case sub.Main.CustomerID == "":
		return "", fmt.Errorf("%w: client de facturation introuvable", domain.ErrInvalidState)
	}
	return uc.provider.CreateCheckoutSession(ctx, CheckoutSessionInput{
		PriceID:    price,
		CustomerID: sub.Main.CustomerID,
		UserID:     userID,
		SuccessURL: uc.cfg.SiteURL + "/abonnement?premium=success",
		CancelURL:  uc.cfg.SiteURL + "/abonnement?premium=canceled",
		Metadata: map[string]string{
			entity.MetadataUserID:   userID,
			entity.MetadataPlanType: plan,
			entity.MetadataPremium:  "true",
		},
	})
}

// CreatePortal session du portail de facturation.
func (uc *CheckoutUseCase) CreatePortal(ctx context.Context, userID string) (string, error) {
	if err := uc.ready(); err != nil {
		return "", err
	}
	sub, err := uc.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub == nil || sub.Main.CustomerID == "" {
		return "", fmt.Errorf("%w: client de facturation introuvable", domain.ErrInvalidState)
	}
	return uc.provider.CreatePortalSession(ctx, sub.Main.CustomerID, uc.cfg.SiteURL+"/abonnement")
}

func (uc *CheckoutUseCase) price(plan string, premium bool) (string, error) {
	switch {
	case plan == entity.PlanMonthly && premium:
		return uc.cfg.PremiumPriceMonthly, nil
	case plan == entity.PlanAnnual && premium:
		return uc.cfg.PremiumPriceAnnual, nil
	case plan == entity.PlanMonthly:
		return uc.cfg.PriceMonthly, nil
	case plan == entity.PlanAnnual:
		return uc.cfg.PriceAnnual, nil
	}
	return "", fmt.Errorf("%w: formule %q (monthly ou annual)", domain.ErrInvalidInput, plan)
}
