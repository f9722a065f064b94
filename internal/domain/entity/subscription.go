package entity

import "time"

// Statuts de l'abonnement principal.
const (
	SubscriptionStatusTrial    = "trial"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
	SubscriptionStatusExpired  = "expired"
)

// Formules.
const (
	PlanMonthly = "monthly"
	PlanAnnual  = "annual"
)

// TrialDuration durée de l'essai accordé à l'inscription.
const TrialDuration = 30 * 24 * time.Hour

// IsValidPlan indique si plan est une formule connue.
func IsValidPlan(plan string) bool {
	return plan == PlanMonthly || plan == PlanAnnual
}

// Subscription abonnement d'un utilisateur : formule principale et option premium,
// chacune avec son propre cycle de vie et ses identifiants chez le prestataire.
type Subscription struct {
	ID        string
	UserID    string
	Main      MainPlan
	Premium   PremiumOption
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MainPlan formule principale.
type MainPlan struct {
	Status         string
	TrialStart     *time.Time
	TrialEnd       *time.Time
	PlanType       string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	CustomerID     string
	SubscriptionID string
}

// PremiumOption option premium (comptabilité + stock). Le drapeau Active seul ne suffit
// pas : l'accès premium exige aussi une formule principale active.
type PremiumOption struct {
	Active         bool
	PlanType       string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	SubscriptionID string
}

// NewTrialSubscription crée l'abonnement d'essai de 30 jours.
func NewTrialSubscription(userID string, now time.Time) *Subscription {
	end := now.Add(TrialDuration)
	start := now
	return &Subscription{
		UserID: userID,
		Main: MainPlan{
			Status:     SubscriptionStatusTrial,
			TrialStart: &start,
			TrialEnd:   &end,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}
