package abonnement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/application/abonnement"
	"github.com/devifact/DeviFact-sub000/internal/domain"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/memory"
)

type fakeProvider struct {
	checkouts []abonnement.CheckoutSessionInput
	portals   []string
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, in abonnement.CheckoutSessionInput) (string, error) {
	f.checkouts = append(f.checkouts, in)
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	f.portals = append(f.portals, customerID+"|"+returnURL)
	return "https://billing.example/portal", nil
}

var prices = abonnement.CheckoutConfig{
	PriceMonthly:        "price_m",
	PriceAnnual:         "price_a",
	PremiumPriceMonthly: "price_pm",
	PremiumPriceAnnual:  "price_pa",
	SiteURL:             "https://devifact.example",
}

func newCheckout(store *memory.Store) (*abonnement.CheckoutUseCase, *fakeProvider) {
	provider := &fakeProvider{}
	return abonnement.NewCheckoutUseCase(store.Subscriptions(), provider, prices, clock), provider
}

// activeStore : abonnement principal actif chez le client cus_1.
func activeStore(t *testing.T) *memory.Store {
	t.Helper()
	store := trialStore(t)
	sub := subscriptionOf(t, store)
	sub.Main.Status = entity.SubscriptionStatusActive
	sub.Main.CustomerID = "cus_1"
	sub.Main.SubscriptionID = "sub_main"
	sub.Main.PeriodEnd = at(20)
	store.PutSubscription(sub)
	return store
}

// ──────────────────────────────────────────────────────────────────────────────
// Abonnement principal
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateCheckout_DepuisEssai(t *testing.T) {
	uc, provider := newCheckout(trialStore(t))

	url, err := uc.CreateCheckout(context.Background(), userID, "artisan@example.fr", entity.PlanAnnual)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/session", url)

	require.Len(t, provider.checkouts, 1)
	in := provider.checkouts[0]
	assert.Equal(t, "price_a", in.PriceID)
	assert.Equal(t, "artisan@example.fr", in.CustomerEmail)
	assert.Empty(t, in.CustomerID)
	assert.Equal(t, "https://devifact.example/abonnement?success=true", in.SuccessURL)
	assert.Equal(t, "https://devifact.example/abonnement?canceled=true", in.CancelURL)
	assert.Equal(t, userID, in.Metadata[entity.MetadataUserID])
	assert.Equal(t, entity.PlanAnnual, in.Metadata[entity.MetadataPlanType])
	assert.Empty(t, in.Metadata[entity.MetadataPremium])
}

func TestCreateCheckout_Refus(t *testing.T) {
	uc, provider := newCheckout(trialStore(t))
	ctx := context.Background()

	_, err := uc.CreateCheckout(ctx, userID, "", "weekly")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	active, _ := newCheckout(activeStore(t))
	_, err = active.CreateCheckout(ctx, userID, "", entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	missing := abonnement.NewCheckoutUseCase(trialStore(t).Subscriptions(), provider, abonnement.CheckoutConfig{SiteURL: "https://devifact.example"}, clock)
	_, err = missing.CreateCheckout(ctx, userID, "", entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	noProvider := abonnement.NewCheckoutUseCase(trialStore(t).Subscriptions(), nil, prices, clock)
	_, err = noProvider.CreateCheckout(ctx, userID, "", entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	assert.Empty(t, provider.checkouts)
}

func TestCreateCheckout_ReprendLeClientExistant(t *testing.T) {
	store := activeStore(t)
	sub := subscriptionOf(t, store)
	sub.Main.Status = entity.SubscriptionStatusCanceled
	store.PutSubscription(sub)

	uc, provider := newCheckout(store)
	_, err := uc.CreateCheckout(context.Background(), userID, "", entity.PlanMonthly)
	require.NoError(t, err)
	require.Len(t, provider.checkouts, 1)
	assert.Equal(t, "cus_1", provider.checkouts[0].CustomerID)
	assert.Equal(t, "price_m", provider.checkouts[0].PriceID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Option premium et portail
// ──────────────────────────────────────────────────────────────────────────────

func TestCreatePremiumCheckout(t *testing.T) {
	uc, provider := newCheckout(activeStore(t))

	_, err := uc.CreatePremiumCheckout(context.Background(), userID, entity.PlanMonthly)
	require.NoError(t, err)
	require.Len(t, provider.checkouts, 1)
	in := provider.checkouts[0]
	assert.Equal(t, "price_pm", in.PriceID)
	assert.Equal(t, "cus_1", in.CustomerID)
	assert.Equal(t, "true", in.Metadata[entity.MetadataPremium])
	assert.Equal(t, "https://devifact.example/abonnement?premium=success", in.SuccessURL)
	assert.Equal(t, "https://devifact.example/abonnement?premium=canceled", in.CancelURL)
}

func TestCreatePremiumCheckout_Refus(t *testing.T) {
	ctx := context.Background()

	trial, _ := newCheckout(trialStore(t))
	_, err := trial.CreatePremiumCheckout(ctx, userID, entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "essai en cours")

	_, err = trial.CreatePremiumCheckout(ctx, "inconnu", entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "aucun abonnement")

	store := activeStore(t)
	sub := subscriptionOf(t, store)
	sub.Premium.Active = true
	sub.Premium.SubscriptionID = "sub_premium"
	store.PutSubscription(sub)
	already, _ := newCheckout(store)
	_, err = already.CreatePremiumCheckout(ctx, userID, entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "premium déjà actif")

	store = activeStore(t)
	sub = subscriptionOf(t, store)
	sub.Main.CustomerID = ""
	store.PutSubscription(sub)
	noCustomer, _ := newCheckout(store)
	_, err = noCustomer.CreatePremiumCheckout(ctx, userID, entity.PlanMonthly)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "client inconnu du prestataire")
}

func TestCreatePortal(t *testing.T) {
	ctx := context.Background()

	trial, _ := newCheckout(trialStore(t))
	_, err := trial.CreatePortal(ctx, userID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	uc, provider := newCheckout(activeStore(t))
	url, err := uc.CreatePortal(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example/portal", url)
	assert.Equal(t, []string{"cus_1|https://devifact.example/abonnement"}, provider.portals)
}

// ──────────────────────────────────────────────────────────────────────────────
// Droits
// ──────────────────────────────────────────────────────────────────────────────

func TestProvisionTrial_Idempotent(t *testing.T) {
	store := memory.NewStore()
	uc := abonnement.NewEntitlementUseCase(store.Subscriptions(), clock)
	ctx := context.Background()

	e, err := uc.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, e.HasAccess, "utilisateur non provisionné")

	e, err = uc.ProvisionTrial(ctx, userID)
	require.NoError(t, err)
	assert.True(t, e.TrialActive)
	assert.True(t, e.HasAccess)
	assert.False(t, e.IsPremium)
	assert.Equal(t, 30, e.TrialDaysLeft)
	first := subscriptionOf(t, store)

	later := abonnement.NewEntitlementUseCase(store.Subscriptions(), func() time.Time { return now.AddDate(0, 0, 10) })
	e, err = later.ProvisionTrial(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 20, e.TrialDaysLeft, "l'essai existant n'est pas prolongé")
	assert.Equal(t, first, subscriptionOf(t, store))
}
