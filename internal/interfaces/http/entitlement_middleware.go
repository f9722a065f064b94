package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/devifact/DeviFact-sub000/internal/domain/entitlement"
)

// entitlementChecker contrat minimal du middleware ; *abonnement.EntitlementUseCase le satisfait.
type entitlementChecker interface {
	Get(ctx context.Context, userID string) (entitlement.Entitlements, error)
}

// RequireAccess exige un essai en cours ou un abonnement actif. À placer après AuthMiddleware.
//   - 403 SUBSCRIPTION_REQUIRED : ni essai ni abonnement
//   - 503 : droits illisibles (stockage)
func RequireAccess(checker entitlementChecker) fiber.Handler {
	return requireEntitlement(checker, func(e entitlement.Entitlements) bool { return e.HasAccess },
		CodeSubscriptionRequired, "abonnement requis")
}

// RequirePremium exige l'option premium sur un abonnement principal actif.
func RequirePremium(checker entitlementChecker) fiber.Handler {
	return requireEntitlement(checker, func(e entitlement.Entitlements) bool { return e.IsPremium },
		CodePremiumRequired, "option premium requise")
}

func requireEntitlement(checker entitlementChecker, allowed func(entitlement.Entitlements) bool, code, message string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return fail(c, fiber.StatusUnauthorized, CodeUnauthorized, "utilisateur non authentifié")
		}
		e, err := checker.Get(c.Context(), userID)
		if err != nil {
			return fail(c, fiber.StatusServiceUnavailable, "ENTITLEMENT_CHECK_FAILED", "droits indisponibles, réessayer plus tard")
		}
		if !allowed(e) {
			return fail(c, fiber.StatusForbidden, code, message)
		}
		return c.Next()
	}
}
