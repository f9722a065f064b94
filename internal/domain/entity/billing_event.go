package entity

import "time"

// Types d'événements de facturation, indépendants du prestataire.
const (
	BillingEventCheckoutCompleted   = "checkout_completed"
	BillingEventSubscriptionCreated = "subscription_created"
	BillingEventSubscriptionUpdated = "subscription_updated"
	BillingEventSubscriptionDeleted = "subscription_deleted"
	BillingEventInvoicePaid         = "invoice_paid"
)

// Clés de métadonnées posées à la création de la session de paiement.
const (
	MetadataUserID   = "user_id"
	MetadataPlanType = "plan_type"
	MetadataPremium  = "premium"
)

// Statuts d'abonnement côté prestataire.
const (
	ProviderStatusActive   = "active"
	ProviderStatusCanceled = "canceled"
	ProviderStatusUnpaid   = "unpaid"
	ProviderStatusPastDue  = "past_due"
)

// BillingEvent événement vérifié reçu du prestataire de paiement.
type BillingEvent struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
	ProviderStatus string
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	OccurredAt     time.Time
}

// IsPremium indique si les métadonnées désignent l'option premium.
func (e BillingEvent) IsPremium() bool {
	return e.Metadata[MetadataPremium] == "true"
}
