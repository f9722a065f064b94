package abonnement

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devifact/DeviFact-sub000/internal/domain/entitlement"
	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
)

// EntitlementUseCase droits d'accès d'un utilisateur.
type EntitlementUseCase struct {
	subRepo repository.SubscriptionRepository
	now     func() time.Time
}

// NewEntitlementUseCase construit le cas d'utilisation. now nil = time.Now.
func NewEntitlementUseCase(subRepo repository.SubscriptionRepository, now func() time.Time) *EntitlementUseCase {
	if now == nil {
		now = time.Now
	}
	return &EntitlementUseCase{subRepo: subRepo, now: now}
}

// Get évalue les droits. Un utilisateur sans abonnement n'a aucun droit (pas d'erreur).
func (uc *EntitlementUseCase) Get(ctx context.Context, userID string) (entitlement.Entitlements, error) {
	sub, err := uc.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		return entitlement.Entitlements{}, err
	}
	return entitlement.Evaluate(sub, uc.now()), nil
}

// ProvisionTrial crée l'essai de 30 jours s'il n'existe pas encore d'abonnement.
// Renvoie les droits résultants ; sans effet si l'abonnement existe déjà.
func (uc *EntitlementUseCase) ProvisionTrial(ctx context.Context, userID string) (entitlement.Entitlements, error) {
	sub := entity.NewTrialSubscription(userID, uc.now())
	sub.ID = uuid.New().String()
	if _, err := uc.subRepo.Create(ctx, sub); err != nil {
		return entitlement.Entitlements{}, err
	}
	return uc.Get(ctx, userID)
}
