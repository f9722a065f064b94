package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/devifact/DeviFact-sub000/internal/domain/entitlement"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(d)
	return &t
}

func TestEvaluate_SansAbonnement(t *testing.T) {
	e := entitlement.Evaluate(nil, now)
	assert.Equal(t, entitlement.Entitlements{}, e)
}

func TestEvaluate_EssaiEnCours(t *testing.T) {
	sub := entity.NewTrialSubscription("u1", now.Add(-24*time.Hour))
	e := entitlement.Evaluate(sub, now)

	assert.True(t, e.TrialActive)
	assert.True(t, e.HasAccess)
	assert.False(t, e.MainSubscriptionActive)
	assert.False(t, e.IsPremium)
	assert.Equal(t, 29, e.TrialDaysLeft)
}

func TestEvaluate_EssaiExpire(t *testing.T) {
	sub := entity.NewTrialSubscription("u1", now.Add(-31*24*time.Hour))
	e := entitlement.Evaluate(sub, now)

	assert.False(t, e.TrialActive)
	assert.False(t, e.HasAccess)
	assert.Equal(t, 0, e.TrialDaysLeft)
}

func TestEvaluate_PeriodePrincipaleEchue(t *testing.T) {
	sub := &entity.Subscription{Main: entity.MainPlan{Status: entity.SubscriptionStatusActive, PeriodEnd: at(-time.Minute)}}
	assert.False(t, entitlement.Evaluate(sub, now).MainSubscriptionActive)

	sub.Main.PeriodEnd = nil
	assert.True(t, entitlement.Evaluate(sub, now).MainSubscriptionActive)
}

// IsPremium exige principal actif ET option premium valide.
func TestEvaluate_PremiumDependDuPrincipal(t *testing.T) {
	cases := []struct {
		name       string
		mainStatus string
		mainEnd    *time.Time
		premium    bool
		premiumEnd *time.Time
		want       bool
	}{
		{"actif + premium", entity.SubscriptionStatusActive, at(time.Hour), true, nil, true},
		{"actif sans premium", entity.SubscriptionStatusActive, nil, false, nil, false},
		{"premium échu", entity.SubscriptionStatusActive, nil, true, at(-time.Hour), false},
		{"principal annulé", entity.SubscriptionStatusCanceled, nil, true, nil, false},
		{"principal expiré", entity.SubscriptionStatusExpired, nil, true, nil, false},
		{"essai", entity.SubscriptionStatusTrial, nil, true, nil, false},
		{"principal échu", entity.SubscriptionStatusActive, at(-time.Hour), true, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := &entity.Subscription{
				Main:    entity.MainPlan{Status: tc.mainStatus, PeriodEnd: tc.mainEnd, TrialEnd: at(time.Hour)},
				Premium: entity.PremiumOption{Active: tc.premium, PeriodEnd: tc.premiumEnd},
			}
			e := entitlement.Evaluate(sub, now)
			assert.Equal(t, tc.want, e.IsPremium)
			assert.Equal(t, e.MainSubscriptionActive && e.PremiumActive, e.IsPremium)
		})
	}
}

// Le drapeau premium brut reste visible même quand le principal est inactif.
func TestEvaluate_PremiumBrutIndependant(t *testing.T) {
	sub := &entity.Subscription{
		Main:    entity.MainPlan{Status: entity.SubscriptionStatusCanceled},
		Premium: entity.PremiumOption{Active: true},
	}
	e := entitlement.Evaluate(sub, now)
	assert.True(t, e.PremiumActive)
	assert.False(t, e.IsPremium)
}
