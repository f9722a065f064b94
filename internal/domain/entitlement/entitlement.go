// Package entitlement dérive les droits d'accès d'un utilisateur à partir de son
// abonnement et de l'heure courante. Lecture seule.
package entitlement

import (
	"math"
	"time"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
)

// Entitlements droits effectifs.
//
// PremiumActive ne tient compte que de l'option premium ; seules IsPremium et HasAccess
// doivent servir à ouvrir une fonctionnalité.
type Entitlements struct {
	Status                 string     `json:"status"`
	MainSubscriptionActive bool       `json:"main_subscription_active"`
	TrialActive            bool       `json:"trial_active"`
	TrialEnd               *time.Time `json:"trial_end,omitempty"`
	TrialDaysLeft          int        `json:"trial_days_left"`
	PremiumActive          bool       `json:"premium_active"`
	IsPremium              bool       `json:"is_premium"`
	HasAccess              bool       `json:"has_access"`
}

// Evaluate calcule les droits. sub nil (utilisateur non provisionné) : tout est faux.
func Evaluate(sub *entity.Subscription, now time.Time) Entitlements {
	if sub == nil {
		return Entitlements{}
	}
	e := Entitlements{
		Status:                 sub.Main.Status,
		MainSubscriptionActive: MainActive(sub.Main, now),
		TrialActive:            TrialActive(sub.Main, now),
		TrialEnd:               sub.Main.TrialEnd,
		PremiumActive:          PremiumActive(sub.Premium, now),
	}
	e.IsPremium = e.MainSubscriptionActive && e.PremiumActive
	e.HasAccess = e.MainSubscriptionActive || e.TrialActive
	if e.TrialActive {
		e.TrialDaysLeft = int(math.Ceil(sub.Main.TrialEnd.Sub(now).Hours() / 24))
	}
	return e
}

// MainActive : statut active et période non échue (ou sans fin connue).
func MainActive(m entity.MainPlan, now time.Time) bool {
	return m.Status == entity.SubscriptionStatusActive && notExpired(m.PeriodEnd, now)
}

// TrialActive : statut trial et fin d'essai dans le futur.
func TrialActive(m entity.MainPlan, now time.Time) bool {
	return m.Status == entity.SubscriptionStatusTrial && m.TrialEnd != nil && m.TrialEnd.After(now)
}

// PremiumActive : drapeau posé et période premium non échue.
func PremiumActive(p entity.PremiumOption, now time.Time) bool {
	return p.Active && notExpired(p.PeriodEnd, now)
}

func notExpired(end *time.Time, now time.Time) bool {
	return end == nil || end.After(now)
}
